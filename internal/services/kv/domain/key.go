package domain

import "strings"

// namespaceSeparator joins namespace and key in a storage key.
const namespaceSeparator = ":"

// StorageKey composes the durable mapping key for key under an optional
// namespace.
func StorageKey(key string, namespace *string) string {
	if namespace == nil {
		return key
	}
	return *namespace + namespaceSeparator + key
}

// inNamespace reports whether storageKey falls under namespace by prefix.
// A nil namespace matches everything.
func inNamespace(storageKey string, namespace *string) bool {
	if namespace == nil {
		return true
	}
	return strings.HasPrefix(storageKey, *namespace+namespaceSeparator)
}
