// Package domain implements the namespaced, TTL-aware key-value semantics.
//
// Store composes namespace and key into a storage key, wraps values in a
// StoredRecord carrying a creation timestamp and optional expiry, and serves
// four operations (store, retrieve, list, delete). Every operation first
// prepares the durable mapping (once per Store) and sweeps expired records,
// then validates its inputs, then touches storage.
//
// # Namespace ambiguity
//
// Storage keys are "{namespace}:{key}" or the bare key. Keys and namespaces
// may contain ':' themselves, so the composition cannot be reversed and a
// namespace filter on "{namespace}:" also matches bare keys that happen to
// start with the same text. The ambiguity is kept as observed behavior.
//
// # Scaling
//
// The expiry sweep reads every record on every call. That is fine for the
// small personal stores this serves and is the first thing to replace with an
// expiry index if the table grows.
package domain
