package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
)

func TestSetGetDelete(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "proj:a", []byte(`{"value":"1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	payload, err := store.Get(ctx, "proj:a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(payload) != `{"value":"1"}` {
		t.Fatalf("payload = %q", payload)
	}

	if err := store.Delete(ctx, "proj:a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "proj:a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	store := openTempStore(t)
	if err := store.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestKeysKeepInsertionOrderAcrossUpserts(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for _, key := range []string{"b", "a", "c"} {
		if err := store.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("set %s: %v", key, err)
		}
	}
	if err := store.Set(ctx, "b", []byte("updated")); err != nil {
		t.Fatalf("overwrite b: %v", err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	payload, err := store.Get(ctx, "b")
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	if string(payload) != "updated" {
		t.Fatalf("payload = %q, want updated", payload)
	}
}

func TestKeysEmptyStore(t *testing.T) {
	store := openTempStore(t)
	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if keys == nil || len(keys) != 0 {
		t.Fatalf("expected empty non-nil keys, got %#v", keys)
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Set(ctx, "durable", []byte("yes")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	payload, err := second.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(payload) != "yes" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestUseAfterClose(t *testing.T) {
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if _, err := store.Keys(context.Background()); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenerOpensStore(t *testing.T) {
	open := Opener(filepath.Join(t.TempDir(), "kv.db"))
	mapping, err := open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = mapping.Close() })
	if _, ok := mapping.(*Store); !ok {
		t.Fatalf("expected *Store, got %T", mapping)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kv.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
