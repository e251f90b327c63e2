package domain

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
)

const (
	// MaxKeyLength is the longest accepted key or namespace, in characters.
	MaxKeyLength = 256
	// MaxValueBytes is the largest accepted value (1 MiB).
	MaxValueBytes = 1 << 20
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9\-_:.]+$`)

// ValidateKey checks key well-formedness.
func ValidateKey(key string) error {
	return validateIdentifier("key", key)
}

// ValidateNamespace checks an optional namespace. An absent namespace is
// valid; a supplied one follows the key rules.
func ValidateNamespace(namespace *string) error {
	if namespace == nil {
		return nil
	}
	return validateIdentifier("namespace", *namespace)
}

// ValidateValue checks the value size limit. Any text, including the empty
// string, is accepted.
func ValidateValue(value string) error {
	if len(value) > MaxValueBytes {
		return apperrors.WithMetadata(
			apperrors.CodeValueTooLarge,
			fmt.Sprintf("value must be at most %d bytes, got %d", MaxValueBytes, len(value)),
			map[string]string{"Field": "value"},
		)
	}
	return nil
}

func validateIdentifier(field, value string) error {
	meta := map[string]string{"Field": field}
	if value == "" {
		return apperrors.WithMetadata(apperrors.CodeKeyEmpty, field+" must not be empty", meta)
	}
	if utf8.RuneCountInString(value) > MaxKeyLength {
		return apperrors.WithMetadata(
			apperrors.CodeKeyTooLong,
			fmt.Sprintf("%s must be at most %d characters", field, MaxKeyLength),
			meta,
		)
	}
	if !keyPattern.MatchString(value) {
		return apperrors.WithMetadata(
			apperrors.CodeKeyInvalidCharacters,
			field+" may only contain letters, digits, '-', '_', ':' and '.'",
			meta,
		)
	}
	return nil
}
