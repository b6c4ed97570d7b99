// Package scorelock grants exclusive scoring leases per resource (a match
// or a group). A lease is a record in a keyed store; every transition goes
// through a compare-and-swap, which is what makes the single-holder
// invariant hold under concurrent sessions. Expiry is passive: nothing
// sweeps old leases, they are simply treated as free at the next check.
package scorelock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLockHeld is returned by Acquire while another live lease exists.
	ErrLockHeld = errors.New("resource is already locked by another scoring session")
	// ErrLockNotHeld is returned when the session holds no lease on the
	// resource (never held one, or another session took over).
	ErrLockNotHeld = errors.New("scoring lock is not held by this session")
	// ErrLockExpired is returned when the session's lease ran out before
	// the call. The caller must re-acquire before writing again.
	ErrLockExpired = errors.New("scoring lock has expired")
)

// DefaultTTL matches the reference deployment: multi-minute leases with
// clients renewing at half the TTL.
const DefaultTTL = 10 * time.Minute

// Manager owns the lock protocol. All operations are non-blocking
// attempts: a refused acquire returns a conflict immediately and never
// queues the caller.
type Manager interface {
	// Acquire grants a fresh lease iff the resource is free or its
	// current lease has expired. The conflict error carries a
	// human-readable reason including the current holder's expiry.
	Acquire(ctx context.Context, resourceID, sessionID string) (*LockRecord, error)
	// Renew extends the lease, only for the current unexpired holder.
	// Any failure means lock loss: the caller must stop writing.
	Renew(ctx context.Context, resourceID, sessionID string) (*LockRecord, error)
	// Release frees the lease if this session holds it. Releasing a free
	// or expired resource is not an error; release is fire-and-forget
	// and expiry remains the correctness backstop.
	Release(ctx context.Context, resourceID, sessionID string) error
	// Check verifies the session currently holds a live lease. Score
	// writes are gated on it server-side.
	Check(ctx context.Context, resourceID, sessionID string) (*LockRecord, error)
	// TTL is the fixed lease lifetime.
	TTL() time.Duration
}

type manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store Store, ttl time.Duration) Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &manager{store: store, ttl: ttl, now: time.Now}
}

func (m *manager) TTL() time.Duration {
	return m.ttl
}

func (m *manager) Acquire(ctx context.Context, resourceID, sessionID string) (*LockRecord, error) {
	for {
		cur, err := m.store.Get(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("scorelock: read %s: %w", resourceID, err)
		}

		now := m.now()
		if cur != nil && !cur.Expired(now) {
			return nil, fmt.Errorf("%w (held until %s)", ErrLockHeld, cur.ExpiresAt.UTC().Format(time.RFC3339))
		}

		next := &LockRecord{
			ResourceID: resourceID,
			SessionID:  sessionID,
			AcquiredAt: now,
			ExpiresAt:  now.Add(m.ttl),
		}
		swapped, err := m.store.CompareAndSwap(ctx, resourceID, cur, next)
		if err != nil {
			return nil, fmt.Errorf("scorelock: swap %s: %w", resourceID, err)
		}
		if swapped {
			return next, nil
		}
		// Lost a race against another session; re-read and decide again.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (m *manager) Renew(ctx context.Context, resourceID, sessionID string) (*LockRecord, error) {
	for {
		cur, err := m.store.Get(ctx, resourceID)
		if err != nil {
			return nil, fmt.Errorf("scorelock: read %s: %w", resourceID, err)
		}
		if cur == nil || cur.SessionID != sessionID {
			return nil, ErrLockNotHeld
		}

		now := m.now()
		if cur.Expired(now) {
			return nil, ErrLockExpired
		}

		next := &LockRecord{
			ResourceID: resourceID,
			SessionID:  sessionID,
			AcquiredAt: cur.AcquiredAt,
			ExpiresAt:  now.Add(m.ttl),
		}
		swapped, err := m.store.CompareAndSwap(ctx, resourceID, cur, next)
		if err != nil {
			return nil, fmt.Errorf("scorelock: swap %s: %w", resourceID, err)
		}
		if swapped {
			return next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (m *manager) Release(ctx context.Context, resourceID, sessionID string) error {
	for {
		cur, err := m.store.Get(ctx, resourceID)
		if err != nil {
			return fmt.Errorf("scorelock: read %s: %w", resourceID, err)
		}
		// Idempotent: nothing to do when free, and a non-holder must not
		// free someone else's live lease.
		if cur == nil || cur.SessionID != sessionID {
			return nil
		}

		swapped, err := m.store.CompareAndSwap(ctx, resourceID, cur, nil)
		if err != nil {
			return fmt.Errorf("scorelock: swap %s: %w", resourceID, err)
		}
		if swapped {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (m *manager) Check(ctx context.Context, resourceID, sessionID string) (*LockRecord, error) {
	cur, err := m.store.Get(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("scorelock: read %s: %w", resourceID, err)
	}
	if cur == nil || cur.SessionID != sessionID {
		return nil, ErrLockNotHeld
	}
	if cur.Expired(m.now()) {
		return nil, ErrLockExpired
	}
	return cur, nil
}
