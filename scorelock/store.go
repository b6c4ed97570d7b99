package scorelock

import (
	"context"
	"sync"
	"time"
)

// LockRecord is the stored lease for one resource.
type LockRecord struct {
	ResourceID string    `json:"resource_id"`
	SessionID  string    `json:"holder_session_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the lease lifetime has passed. A lease expiring
// exactly now is still live; anything later treats it as free.
func (r *LockRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store is the keyed record store the manager runs on. CompareAndSwap must
// be atomic per resource; that is the only primitive the protocol needs.
type Store interface {
	// Get returns the stored record for the resource, or nil when free.
	Get(ctx context.Context, resourceID string) (*LockRecord, error)
	// CompareAndSwap installs next iff the stored record matches prev.
	// A nil prev means "only when free"; a nil next deletes the record.
	// It reports whether the swap took place.
	CompareAndSwap(ctx context.Context, resourceID string, prev, next *LockRecord) (bool, error)
}

// Records are compared by holder and expiry; AcquiredAt is carried along
// unchanged on renew and does not participate.
func sameRecord(a, b *LockRecord) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.SessionID == b.SessionID && a.ExpiresAt.Equal(b.ExpiresAt)
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*LockRecord
}

// NewMemoryStore keeps lock records in process memory. The default for a
// single-instance deployment; multi-instance setups use the Redis store.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[string]*LockRecord)}
}

func (s *memoryStore) Get(_ context.Context, resourceID string) (*LockRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[resourceID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryStore) CompareAndSwap(_ context.Context, resourceID string, prev, next *LockRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sameRecord(s.records[resourceID], prev) {
		return false, nil
	}
	if next == nil {
		delete(s.records, resourceID)
		return true, nil
	}
	cp := *next
	s.records[resourceID] = &cp
	return true, nil
}
