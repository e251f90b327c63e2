package domain

import (
	"strings"
	"testing"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		code apperrors.Code
	}{
		{name: "simple", key: "user-1"},
		{name: "all allowed", key: "a.B_c-9:z"},
		{name: "max length", key: strings.Repeat("k", MaxKeyLength)},
		{name: "empty", key: "", code: apperrors.CodeKeyEmpty},
		{name: "too long", key: strings.Repeat("k", MaxKeyLength+1), code: apperrors.CodeKeyTooLong},
		{name: "space", key: "a b", code: apperrors.CodeKeyInvalidCharacters},
		{name: "slash", key: "a/b", code: apperrors.CodeKeyInvalidCharacters},
		{name: "non ascii", key: "clé", code: apperrors.CodeKeyInvalidCharacters},
		{name: "newline suffix", key: "abc\n", code: apperrors.CodeKeyInvalidCharacters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.code == "" {
				if err != nil {
					t.Fatalf("ValidateKey(%q) = %v", tt.key, err)
				}
				return
			}
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Fatalf("code = %s, want %s (err %v)", got, tt.code, err)
			}
			if kind := apperrors.KindOf(err); kind != apperrors.KindInvalidInput {
				t.Fatalf("kind = %s, want %s", kind, apperrors.KindInvalidInput)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	if err := ValidateNamespace(nil); err != nil {
		t.Fatalf("nil namespace: %v", err)
	}
	ns := "tenant.a"
	if err := ValidateNamespace(&ns); err != nil {
		t.Fatalf("valid namespace: %v", err)
	}

	empty := ""
	err := ValidateNamespace(&empty)
	domainErr, ok := apperrors.As(err)
	if !ok || domainErr.Code != apperrors.CodeKeyEmpty {
		t.Fatalf("expected KEY_EMPTY, got %v", err)
	}
	if domainErr.Metadata["Field"] != "namespace" {
		t.Fatalf("field = %q, want namespace", domainErr.Metadata["Field"])
	}

	bad := "has space"
	if got := apperrors.CodeOf(ValidateNamespace(&bad)); got != apperrors.CodeKeyInvalidCharacters {
		t.Fatalf("code = %s", got)
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue(""); err != nil {
		t.Fatalf("empty value: %v", err)
	}
	if err := ValidateValue(strings.Repeat("v", MaxValueBytes)); err != nil {
		t.Fatalf("max value: %v", err)
	}
	err := ValidateValue(strings.Repeat("v", MaxValueBytes+1))
	if got := apperrors.CodeOf(err); got != apperrors.CodeValueTooLarge {
		t.Fatalf("code = %s, want %s", got, apperrors.CodeValueTooLarge)
	}
}
