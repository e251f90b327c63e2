// Package kvmcp parses command configuration and starts the key-value MCP server.
package kvmcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/kvmcp/internal/platform/config"
	"github.com/louisbranch/kvmcp/internal/platform/otel"
	"github.com/louisbranch/kvmcp/internal/platform/timeouts"
	mcpapp "github.com/louisbranch/kvmcp/internal/services/mcp/app"
	"github.com/louisbranch/kvmcp/internal/services/mcp/service"
)

// Version is reported to MCP clients and telemetry.
const Version = "0.1.0"

// Config holds kvmcp command configuration.
type Config struct {
	Transport     string        `env:"KVMCP_TRANSPORT"       envDefault:"stdio"`
	HTTPAddr      string        `env:"KVMCP_HTTP_ADDR"       envDefault:"localhost:8081"`
	DataDir       string        `env:"KVMCP_DATA_DIR"`
	Backend       string        `env:"KVMCP_STORAGE_BACKEND" envDefault:"sqlite"`
	SweepInterval time.Duration `env:"KVMCP_SWEEP_INTERVAL"  envDefault:"0s"`
	HealthPort    int           `env:"KVMCP_HEALTH_PORT"     envDefault:"0"`

	AllowedHosts []string `env:"KVMCP_HTTP_ALLOWED_HOSTS" envSeparator:","`
	APIToken     string   `env:"KVMCP_HTTP_API_TOKEN"`
	JWTSecret    string   `env:"KVMCP_HTTP_JWT_SECRET"`
	JWTIssuer    string   `env:"KVMCP_HTTP_JWT_ISSUER"`
	JWTAudience  string   `env:"KVMCP_HTTP_JWT_AUDIENCE"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "storage directory (default ~/.kvmcp)")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: sqlite or memory")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "background expiry sweep period (0 disables)")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "gRPC health server port (0 disables)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch service.TransportKind(cfg.Transport) {
	case service.TransportStdio, service.TransportHTTP:
	default:
		return Config{}, fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	if cfg.HealthPort < 0 {
		return Config{}, fmt.Errorf("health port must not be negative")
	}
	if cfg.SweepInterval < 0 {
		return Config{}, fmt.Errorf("sweep interval must not be negative")
	}
	return cfg, nil
}

// RuntimeConfig maps command configuration onto the app runtime.
func (c Config) RuntimeConfig() mcpapp.RuntimeConfig {
	runtime := mcpapp.RuntimeConfig{
		Transport:     service.TransportKind(c.Transport),
		HTTPAddr:      c.HTTPAddr,
		AllowedHosts:  c.AllowedHosts,
		AuthToken:     c.APIToken,
		DataDir:       c.DataDir,
		Backend:       c.Backend,
		SweepInterval: c.SweepInterval,
		JWT: service.JWTConfig{
			Secret:   c.JWTSecret,
			Issuer:   c.JWTIssuer,
			Audience: c.JWTAudience,
		},
	}
	if c.HealthPort > 0 {
		runtime.HealthAddr = fmt.Sprintf(":%d", c.HealthPort)
	}
	return runtime
}

// Run starts the key-value MCP server.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "kvmcp", Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return mcpapp.Run(ctx, cfg.RuntimeConfig())
}
