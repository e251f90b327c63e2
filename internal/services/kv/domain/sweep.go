package domain

import (
	"context"
	"errors"

	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
)

// SweepStats summarizes one expiry sweep.
type SweepStats struct {
	Scanned int
	Removed int
	Failed  int
}

// Sweep removes every expired record. It opens the mapping if needed; the
// only errors it returns are from opening or a cancelled context. Per-key
// failures are logged and counted.
func (s *Store) Sweep(ctx context.Context) (SweepStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return SweepStats{}, err
	}
	if err := s.ensureOpen(ctx); err != nil {
		return SweepStats{}, err
	}
	return s.sweepLocked(ctx), nil
}

// sweepLocked never fails the caller: a key that cannot be read, decoded,
// or removed is skipped so the rest still get cleaned up.
func (s *Store) sweepLocked(ctx context.Context) SweepStats {
	var stats SweepStats

	keys, err := s.mapping.Keys(ctx)
	if err != nil {
		s.logf("sweep: list keys: %v", err)
		stats.Failed++
		return stats
	}

	now := s.nowMillis()
	for _, key := range keys {
		stats.Scanned++
		payload, err := s.mapping.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logf("sweep: read %q: %v", key, err)
			stats.Failed++
			continue
		}
		record, err := decodeRecord(payload)
		if err != nil {
			s.logf("sweep: %q: %v", key, err)
			stats.Failed++
			continue
		}
		if !record.Expired(now) {
			continue
		}
		if err := s.mapping.Delete(ctx, key); err != nil {
			s.logf("sweep: remove %q: %v", key, err)
			stats.Failed++
			continue
		}
		stats.Removed++
	}
	return stats
}
