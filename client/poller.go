package client

import (
	"context"
	"errors"
	"time"

	"github.com/rallydesk/rallydesk/models"
)

// Freshness bounds for polled views. Live scoring views must never show
// data older than LiveViewInterval; public boards tolerate BoardInterval.
const (
	LiveViewInterval = 5 * time.Second
	BoardInterval    = 10 * time.Second
)

// Poller re-runs a fetch on a fixed cadence until its context is cancelled.
// The first run happens immediately, so a fresh view appears without
// waiting out the first interval.
type Poller struct {
	Interval time.Duration

	// OnError receives fetch failures. The poller keeps going either way;
	// a missed poll only ages the view by one interval.
	OnError func(error)
}

func (p *Poller) Run(ctx context.Context, fetch func(context.Context) error) {
	runOnce := func() {
		if err := fetch(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if p.OnError != nil {
				p.OnError(err)
			}
		}
	}

	runOnce()
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			runOnce()
		}
	}
}

// WatchMatch polls one match at the live-view cadence and hands each fetched
// state to onUpdate. It blocks until ctx is cancelled.
func (c *Client) WatchMatch(ctx context.Context, matchID string, onUpdate func(*models.Match), onError func(error)) {
	p := &Poller{Interval: LiveViewInterval, OnError: onError}
	p.Run(ctx, func(ctx context.Context) error {
		match, err := c.Match(ctx, matchID)
		if err != nil {
			return err
		}
		onUpdate(match)
		return nil
	})
}

// WatchBoard polls a tournament board at the spectator cadence and hands
// each fetched state to onUpdate. It blocks until ctx is cancelled.
func (c *Client) WatchBoard(ctx context.Context, tournamentID string, onUpdate func(*models.PublicBoard), onError func(error)) {
	p := &Poller{Interval: BoardInterval, OnError: onError}
	p.Run(ctx, func(ctx context.Context) error {
		board, err := c.PublicBoard(ctx, tournamentID)
		if err != nil {
			return err
		}
		onUpdate(board)
		return nil
	})
}
