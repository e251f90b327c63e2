package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
)

// Store serves the key-value operations over a lazily opened durable mapping.
//
// Operations run one at a time: each holds the Store lock for its sweep,
// validation, and storage access. The mapping is opened on first use; a failed
// open leaves the Store uninitialized so the next call retries.
type Store struct {
	open    storage.Opener
	now     func() time.Time
	logf    func(string, ...any)
	onInit  func()
	onClose func()

	mu      sync.Mutex
	mapping storage.Mapping
	closed  bool
	ready   atomic.Bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger overrides the logger used for sweep and lifecycle messages.
func WithLogger(logf func(string, ...any)) Option {
	return func(s *Store) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// WithCloseHook registers fn to run when Close releases an opened mapping.
func WithCloseHook(fn func()) Option {
	return func(s *Store) {
		s.onClose = fn
	}
}

// WithInitHook registers fn to run once the mapping has been opened.
func WithInitHook(fn func()) Option {
	return func(s *Store) {
		s.onInit = fn
	}
}

// NewStore returns a Store that opens its mapping with open on first use.
func NewStore(open storage.Opener, opts ...Option) (*Store, error) {
	if open == nil {
		return nil, fmt.Errorf("storage opener is required")
	}
	s := &Store{
		open: open,
		now:  time.Now,
		logf: log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ready reports whether the mapping has been opened.
func (s *Store) Ready() bool {
	return s != nil && s.ready.Load()
}

// Execute runs op and returns its result.
func (s *Store) Execute(ctx context.Context, op Operation) (Result, error) {
	switch op := op.(type) {
	case StoreOp:
		return s.StoreValue(ctx, op)
	case RetrieveOp:
		return s.Retrieve(ctx, op)
	case ListOp:
		return s.List(ctx, op)
	case DeleteOp:
		return s.Delete(ctx, op)
	default:
		return nil, apperrors.New(apperrors.CodeUnknownOperation, fmt.Sprintf("unknown operation %T", op))
	}
}

// StoreValue writes a record under the composed storage key, replacing any
// existing record.
func (s *Store) StoreValue(ctx context.Context, op StoreOp) (StoreResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return StoreResult{}, err
	}
	if err := ValidateKey(op.Key); err != nil {
		return StoreResult{}, err
	}
	if err := ValidateValue(op.Value); err != nil {
		return StoreResult{}, err
	}
	if err := ValidateNamespace(op.Namespace); err != nil {
		return StoreResult{}, err
	}

	payload, err := encodeRecord(newRecord(op.Value, s.now(), op.TTLSeconds))
	if err != nil {
		return StoreResult{}, apperrors.AsInternal(err, "store value")
	}
	if err := s.mapping.Set(ctx, StorageKey(op.Key, op.Namespace), payload); err != nil {
		return StoreResult{}, apperrors.AsInternal(err, "store value")
	}
	return StoreResult{Key: op.Key}, nil
}

// Retrieve returns the value of the live record under the composed key.
// Missing and expired records are both NotFound.
func (s *Store) Retrieve(ctx context.Context, op RetrieveOp) (RetrieveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return RetrieveResult{}, err
	}
	if err := ValidateKey(op.Key); err != nil {
		return RetrieveResult{}, err
	}
	if err := ValidateNamespace(op.Namespace); err != nil {
		return RetrieveResult{}, err
	}

	record, found, err := s.read(ctx, StorageKey(op.Key, op.Namespace))
	if err != nil {
		return RetrieveResult{}, apperrors.AsInternal(err, "retrieve value")
	}
	if !found || record.Expired(s.nowMillis()) {
		return RetrieveResult{}, apperrors.WithMetadata(
			apperrors.CodeNotFound,
			"key not found: "+op.Key,
			map[string]string{"Key": op.Key},
		)
	}
	return RetrieveResult{Value: record.Value}, nil
}

// List returns storage keys, filtered by namespace prefix when one is given,
// in the mapping's enumeration order. Metadata listing fails on an
// undecodable record; key-only listing keeps its key.
func (s *Store) List(ctx context.Context, op ListOp) (ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return ListResult{}, err
	}
	if err := ValidateNamespace(op.Namespace); err != nil {
		return ListResult{}, err
	}

	keys, err := s.mapping.Keys(ctx)
	if err != nil {
		return ListResult{}, apperrors.AsInternal(err, "list keys")
	}

	result := ListResult{WithMetadata: op.IncludeMetadata}
	if op.IncludeMetadata {
		result.Entries = make([]ListEntry, 0, len(keys))
	} else {
		result.Keys = make([]string, 0, len(keys))
	}

	now := s.nowMillis()
	for _, key := range keys {
		if !inNamespace(key, op.Namespace) {
			continue
		}
		record, found, err := s.read(ctx, key)
		if err != nil {
			if op.IncludeMetadata || !errors.Is(err, errUndecodableRecord) {
				return ListResult{}, apperrors.AsInternal(err, "list keys")
			}
			// Key-only listing treats an undecodable record as live.
			s.logf("list: %v", err)
			result.Keys = append(result.Keys, key)
			continue
		}
		// A sweep that failed to remove an expired record must not make it
		// visible again.
		if !found || record.Expired(now) {
			continue
		}
		if op.IncludeMetadata {
			result.Entries = append(result.Entries, ListEntry{
				Key:       key,
				Timestamp: record.CreatedAt,
				Expiry:    record.ExpiresAt,
			})
			continue
		}
		result.Keys = append(result.Keys, key)
	}
	return result, nil
}

// Delete removes the record under the composed key. Deleting a missing key
// succeeds.
func (s *Store) Delete(ctx context.Context, op DeleteOp) (DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.prepare(ctx); err != nil {
		return DeleteResult{}, err
	}
	if err := ValidateKey(op.Key); err != nil {
		return DeleteResult{}, err
	}
	if err := ValidateNamespace(op.Namespace); err != nil {
		return DeleteResult{}, err
	}

	if err := s.mapping.Delete(ctx, StorageKey(op.Key, op.Namespace)); err != nil {
		return DeleteResult{}, apperrors.AsInternal(err, "delete value")
	}
	return DeleteResult{Key: op.Key}, nil
}

// Close releases the mapping. Later operations fail with an internal error.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.mapping == nil {
		return nil
	}
	err := s.mapping.Close()
	s.mapping = nil
	s.ready.Store(false)
	if s.onClose != nil {
		s.onClose()
	}
	return err
}

// prepare opens the mapping if needed and sweeps expired records. Callers
// hold s.mu.
func (s *Store) prepare(ctx context.Context) error {
	if ctx == nil {
		return apperrors.New(apperrors.CodeInternal, "context is required")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.AsInternal(err, "operation cancelled")
	}
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	s.sweepLocked(ctx)
	return nil
}

func (s *Store) ensureOpen(ctx context.Context) error {
	if s.closed {
		return apperrors.New(apperrors.CodeInternal, "store is closed")
	}
	if s.mapping != nil {
		return nil
	}
	mapping, err := s.open(ctx)
	if err != nil {
		return apperrors.AsInternal(err, "open storage")
	}
	if mapping == nil {
		return apperrors.New(apperrors.CodeInternal, "open storage: no mapping returned")
	}
	s.mapping = mapping
	s.ready.Store(true)
	if s.onInit != nil {
		s.onInit()
	}
	return nil
}

// read loads and decodes the record under storageKey.
func (s *Store) read(ctx context.Context, storageKey string) (StoredRecord, bool, error) {
	payload, err := s.mapping.Get(ctx, storageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return StoredRecord{}, false, nil
	}
	if err != nil {
		return StoredRecord{}, false, err
	}
	record, err := decodeRecord(payload)
	if err != nil {
		return StoredRecord{}, false, fmt.Errorf("%s: %w", storageKey, err)
	}
	return record, true, nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}
