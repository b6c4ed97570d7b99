// Package client is the desk-side API client: typed calls for the scoring
// endpoints, pollers that keep views inside their freshness bounds, and the
// scoring session lifecycle around a lock lease.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/scorelock"
)

// Sentinels mirror the server's error taxonomy so callers can branch with
// errors.Is instead of matching status codes.
var (
	ErrUnauthorized = errors.New("not authorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStaleLock    = errors.New("scoring lock is stale")
	ErrValidation   = errors.New("validation failed")
	// ErrTransient wraps transport-level failures worth retrying.
	ErrTransient = errors.New("transient network error")
)

type Client struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken installs the bearer token used on subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return statusError(res)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func statusError(res *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(res.Body).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = res.Status
	}

	switch res.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", ErrStaleLock, msg)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	default:
		return fmt.Errorf("server returned %s: %s", res.Status, msg)
	}
}

// ValidateAccessCode exchanges a scorer's code for a scoring token. The
// token is installed on the client; the unlocked competition is returned.
func (c *Client) ValidateAccessCode(ctx context.Context, code string) (*models.Competition, error) {
	var out struct {
		Token       string              `json:"token"`
		Competition *models.Competition `json:"competition"`
	}
	err := c.do(ctx, http.MethodPost, "/api/scoring/validate", map[string]string{"code": code}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return out.Competition, nil
}

// Match fetches one match.
func (c *Client) Match(ctx context.Context, matchID string) (*models.Match, error) {
	var out struct {
		Match *models.Match `json:"match"`
	}
	err := c.do(ctx, http.MethodGet, "/api/scoring/matches/"+matchID, nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Match, nil
}

// PublicBoard fetches a tournament's spectator board.
func (c *Client) PublicBoard(ctx context.Context, tournamentID string) (*models.PublicBoard, error) {
	var out *models.PublicBoard
	err := c.do(ctx, http.MethodGet, "/api/public/tournaments/"+tournamentID+"/board", nil, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type lockRequest struct {
	SessionID string `json:"session_id"`
}

// AcquireLock requests an exclusive scoring lease on the match.
func (c *Client) AcquireLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error) {
	var out struct {
		Lock *scorelock.LockRecord `json:"lock"`
	}
	err := c.do(ctx, http.MethodPost, "/api/scoring/matches/"+matchID+"/lock", lockRequest{SessionID: sessionID}, &out)
	if err != nil {
		return nil, err
	}
	return out.Lock, nil
}

// RenewLock extends an unexpired lease this session holds.
func (c *Client) RenewLock(ctx context.Context, matchID, sessionID string) (*scorelock.LockRecord, error) {
	var out struct {
		Lock *scorelock.LockRecord `json:"lock"`
	}
	err := c.do(ctx, http.MethodPut, "/api/scoring/matches/"+matchID+"/lock", lockRequest{SessionID: sessionID}, &out)
	if err != nil {
		return nil, err
	}
	return out.Lock, nil
}

// ReleaseLock frees the lease. Releasing a lease the session no longer
// holds succeeds silently.
func (c *Client) ReleaseLock(ctx context.Context, matchID, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/scoring/matches/"+matchID+"/lock", lockRequest{SessionID: sessionID}, nil)
}

type submitScoreRequest struct {
	SessionID string            `json:"session_id"`
	Sets      []models.SetScore `json:"sets"`
}

// SubmitScore replaces the match's full set list under the session's lease.
func (c *Client) SubmitScore(ctx context.Context, matchID, sessionID string, sets []models.SetScore) (*models.Match, error) {
	var out struct {
		Match *models.Match `json:"match"`
	}
	err := c.do(ctx, http.MethodPut, "/api/scoring/matches/"+matchID+"/score", submitScoreRequest{SessionID: sessionID, Sets: sets}, &out)
	if err != nil {
		return nil, err
	}
	return out.Match, nil
}
