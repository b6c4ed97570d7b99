// Package storage holds the object-store client used to publish board
// snapshots and other static artifacts to a public bucket.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the write side of a public object store. Keys are plain
// paths; the uploader turns them into public URLs.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}
