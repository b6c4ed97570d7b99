package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rallydesk/rallydesk/models"
	"github.com/rallydesk/rallydesk/scorelock"
)

// releaseTimeout bounds the best-effort release on Close. If it does not
// land, lease expiry cleans up server-side.
const releaseTimeout = 3 * time.Second

// ScoringSession owns one scorer's lease on a match: acquire on Start,
// renewal in the background at half the lease lifetime, best-effort release
// on Close. Losing the lease for any reason other than Close fires onLost;
// after that the session must not submit again without a new Start.
type ScoringSession struct {
	client    *Client
	matchID   string
	sessionID string
	onLost    func(error)

	mu    sync.Mutex
	lease *scorelock.LockRecord

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScoringSession(c *Client, matchID string, onLost func(error)) *ScoringSession {
	return &ScoringSession{
		client:    c,
		matchID:   matchID,
		sessionID: uuid.NewString(),
		onLost:    onLost,
	}
}

func (s *ScoringSession) SessionID() string {
	return s.sessionID
}

// Lease returns the last lease the session saw, or nil before Start.
func (s *ScoringSession) Lease() *scorelock.LockRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lease == nil {
		return nil
	}
	cp := *s.lease
	return &cp
}

// Start acquires the lock and begins renewing it in the background. A
// conflict comes back as ErrConflict with the holder's expiry in the
// message.
func (s *ScoringSession) Start(ctx context.Context) error {
	lease, err := s.client.AcquireLock(ctx, s.matchID, s.sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.lease = lease
	s.mu.Unlock()

	// Renew at half the remaining lifetime, so one missed renewal still
	// leaves a full half-life to recover in.
	interval := time.Until(lease.ExpiresAt) / 2
	if interval <= 0 {
		interval = time.Second
	}

	renewCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.renewLoop(renewCtx, interval)
	return nil
}

func (s *ScoringSession) renewLoop(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lease, err := s.client.RenewLock(ctx, s.matchID, s.sessionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// A flaky network is survivable while the lease has
				// life left; a stale or taken-over lease is not.
				if errors.Is(err, ErrTransient) {
					continue
				}
				if s.onLost != nil {
					s.onLost(err)
				}
				return
			}
			s.mu.Lock()
			s.lease = lease
			s.mu.Unlock()
		}
	}
}

// SubmitScore sends the complete set list under this session's lease.
func (s *ScoringSession) SubmitScore(ctx context.Context, sets []models.SetScore) (*models.Match, error) {
	return s.client.SubmitScore(ctx, s.matchID, s.sessionID, sets)
}

// Close stops renewal and releases the lease. The release is best effort;
// when it fails the lease simply runs out.
func (s *ScoringSession) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = s.client.ReleaseLock(ctx, s.matchID, s.sessionID)
}
