package domain

import (
	"context"
	"fmt"
	"time"
)

// Sweeper runs Store.Sweep on a fixed interval. It complements the per-call
// sweep by reclaiming expired records while the store is idle.
type Sweeper struct {
	store    *Store
	interval time.Duration
	logf     func(string, ...any)
	tick     func(time.Duration) (<-chan time.Time, func())
}

// NewSweeper returns a sweeper for store. A non-positive interval disables it.
func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	logf := func(string, ...any) {}
	if store != nil {
		logf = store.logf
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logf:     logf,
		tick: func(d time.Duration) (<-chan time.Time, func()) {
			ticker := time.NewTicker(d)
			return ticker.C, ticker.Stop
		},
	}
}

// Run sweeps on every tick until ctx ends. It returns nil on cancellation and
// immediately when the interval is not positive.
func (w *Sweeper) Run(ctx context.Context) error {
	if w == nil || w.interval <= 0 {
		return nil
	}
	if w.store == nil {
		return fmt.Errorf("sweeper store is required")
	}

	ticks, stop := w.tick(w.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			stats, err := w.store.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logf("background sweep: %v", err)
				continue
			}
			if stats.Removed > 0 || stats.Failed > 0 {
				w.logf("background sweep: scanned=%d removed=%d failed=%d", stats.Scanned, stats.Removed, stats.Failed)
			}
		}
	}
}
