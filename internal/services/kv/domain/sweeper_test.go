package domain

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/louisbranch/kvmcp/internal/services/kv/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSweeperDisabled(t *testing.T) {
	if err := NewSweeper(nil, 0).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	var nilSweeper *Sweeper
	if err := nilSweeper.Run(context.Background()); err != nil {
		t.Fatalf("nil sweeper: %v", err)
	}
}

func TestSweeperRequiresStore(t *testing.T) {
	if err := NewSweeper(nil, time.Second).Run(context.Background()); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func TestSweeperRemovesExpiredOnTick(t *testing.T) {
	clock := newFakeClock()
	mapping := memory.New()
	logs := &logRecorder{}
	store := newTestStore(t, mapping, clock, WithLogger(logs.Logf))
	mustStore(t, store, StoreOp{Key: "gone", Value: "v", TTLSeconds: 1})
	mustStore(t, store, StoreOp{Key: "kept", Value: "v"})
	clock.Advance(5 * time.Second)

	ticks := make(chan time.Time)
	stopped := make(chan struct{})
	sweeper := NewSweeper(store, time.Minute)
	sweeper.tick = func(d time.Duration) (<-chan time.Time, func()) {
		if d != time.Minute {
			t.Errorf("interval = %v", d)
		}
		return ticks, func() { close(stopped) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	ticks <- clock.Now()
	// The second send only completes once the first sweep has finished.
	ticks <- clock.Now()

	keys, err := mapping.Keys(context.Background())
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "kept" {
		t.Fatalf("keys = %v", keys)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
	<-stopped

	if len(logs.Lines()) == 0 {
		t.Fatal("expected sweep summary to be logged")
	}
}
