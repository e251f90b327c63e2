package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// errUndecodableRecord marks a stored payload that is not a valid record.
var errUndecodableRecord = errors.New("decode record")

// StoredRecord is the unit persisted per storage key. Timestamps are
// milliseconds since the Unix epoch.
type StoredRecord struct {
	Value     string `json:"value"`
	CreatedAt int64  `json:"timestamp"`
	ExpiresAt *int64 `json:"expiry,omitempty"`
}

// newRecord builds a record created at now. A positive ttlSeconds sets an
// expiry; zero, negative, or non-finite values leave the record without one.
func newRecord(value string, now time.Time, ttlSeconds float64) StoredRecord {
	record := StoredRecord{
		Value:     value,
		CreatedAt: now.UnixMilli(),
	}
	if ttlSeconds > 0 && !math.IsInf(ttlSeconds, 0) {
		expiresAt := expiryMillis(record.CreatedAt, math.Round(ttlSeconds*1000))
		record.ExpiresAt = &expiresAt
	}
	return record
}

// expiryMillis adds ttlMillis to createdAt, saturating at math.MaxInt64 for
// TTLs beyond the int64 millisecond range.
func expiryMillis(createdAt int64, ttlMillis float64) int64 {
	headroom := int64(math.MaxInt64)
	if createdAt > 0 {
		headroom -= createdAt
	}
	if ttlMillis >= float64(headroom) {
		return math.MaxInt64
	}
	if ms := int64(ttlMillis); ms < headroom {
		return createdAt + ms
	}
	return math.MaxInt64
}

// Expired reports whether the record is logically deleted at nowMillis.
func (r StoredRecord) Expired(nowMillis int64) bool {
	return r.ExpiresAt != nil && *r.ExpiresAt <= nowMillis
}

func encodeRecord(record StoredRecord) ([]byte, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return payload, nil
}

func decodeRecord(payload []byte) (StoredRecord, error) {
	var record StoredRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return StoredRecord{}, fmt.Errorf("%w: %w", errUndecodableRecord, err)
	}
	return record, nil
}
