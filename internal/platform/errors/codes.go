// Package errors provides structured error handling for the key-value store.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Key and namespace errors. Namespaces share the key rules, so the
	// offending field is carried in metadata rather than in the code.
	CodeKeyEmpty             Code = "KEY_EMPTY"
	CodeKeyTooLong           Code = "KEY_TOO_LONG"
	CodeKeyInvalidCharacters Code = "KEY_INVALID_CHARACTERS"

	// Value errors
	CodeValueTooLarge Code = "VALUE_TOO_LARGE"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeInternal Code = "INTERNAL"

	// Dispatch errors
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"
)

// Kind groups codes into the failure categories reported to callers.
type Kind string

const (
	// KindInvalidInput covers malformed keys, values, and namespaces.
	KindInvalidInput Kind = "InvalidInput"
	// KindNotFound reports a missing or expired record.
	KindNotFound Kind = "NotFound"
	// KindUnknownOperation reports an operation outside the supported set.
	KindUnknownOperation Kind = "UnknownOperation"
	// KindInternal wraps storage and serialization failures.
	KindInternal Kind = "InternalError"
)

// Kind maps a code to its failure category.
func (c Code) Kind() Kind {
	switch c {
	case CodeKeyEmpty,
		CodeKeyTooLong,
		CodeKeyInvalidCharacters,
		CodeValueTooLarge:
		return KindInvalidInput

	case CodeNotFound:
		return KindNotFound

	case CodeUnknownOperation:
		return KindUnknownOperation

	default:
		return KindInternal
	}
}
