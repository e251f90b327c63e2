package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port     int           `env:"KVMCP_TEST_PORT"     envDefault:"123"`
	Interval time.Duration `env:"KVMCP_TEST_INTERVAL" envDefault:"0s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Interval != 0 {
		t.Fatalf("expected zero interval, got %s", cfg.Interval)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("KVMCP_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestParseEnvFromMap(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("KVMCP_TEST_PORT", "999")

	err := ParseEnvFrom(&cfg, map[string]string{
		"KVMCP_TEST_PORT":     "456",
		"KVMCP_TEST_INTERVAL": "30s",
	})
	if err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 456 {
		t.Fatalf("expected map port 456, got %d", cfg.Port)
	}
	if cfg.Interval != 30*time.Second {
		t.Fatalf("expected 30s interval, got %s", cfg.Interval)
	}
}

func TestParseEnvFromNilUsesProcessEnv(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("KVMCP_TEST_PORT", "789")

	if err := ParseEnvFrom(&cfg, nil); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 789 {
		t.Fatalf("expected process env port 789, got %d", cfg.Port)
	}
}

func TestParseEnvFromError(t *testing.T) {
	var cfg envTestConfig

	err := ParseEnvFrom(&cfg, map[string]string{"KVMCP_TEST_INTERVAL": "soon"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
