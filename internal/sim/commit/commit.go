// Package commit moves a finished session's loot into durable storage.
package commit

import (
	"context"
	"time"

	"digsite.gg/internal/persistence/store"
)

// Sink is the durable side of a surfacing. *store.Store satisfies it.
type Sink interface {
	CommitSurface(ctx context.Context, surf store.Surfacing) error
}

// Committer retries transient commit failures before giving up. The caller
// keeps the session alive until Commit returns nil so no loot is lost to a
// flaky disk.
type Committer struct {
	sink    Sink
	retries int
	backoff time.Duration
}

func New(sink Sink, retries int) *Committer {
	if retries < 1 {
		retries = 1
	}
	return &Committer{sink: sink, retries: retries, backoff: 50 * time.Millisecond}
}

// Commit applies the surfacing, retrying up to the configured attempt count.
// It returns the last error when every attempt fails.
func (c *Committer) Commit(ctx context.Context, surf store.Surfacing) error {
	var err error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}
		if err = c.sink.CommitSurface(ctx, surf); err == nil {
			return nil
		}
	}
	return err
}
