package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	kvdomain "github.com/louisbranch/kvmcp/internal/services/kv/domain"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage/memory"
	kvsqlite "github.com/louisbranch/kvmcp/internal/services/kv/storage/sqlite"
	"github.com/louisbranch/kvmcp/internal/services/mcp/service"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	defaultDataDirName = ".kvmcp"
	sqliteFileName     = "kv.db"
	// healthServiceName reports SERVING once the store has opened its mapping.
	healthServiceName = "kvmcp.store"
)

var userHomeDir = os.UserHomeDir

// RuntimeConfig controls process startup for the key-value MCP server.
type RuntimeConfig struct {
	Transport    service.TransportKind
	HTTPAddr     string
	AllowedHosts []string
	AuthToken    string
	JWT          service.JWTConfig

	// DataDir holds the SQLite database. Empty means ~/.kvmcp.
	DataDir string
	Backend string
	// SweepInterval enables a background expiry sweep when positive.
	SweepInterval time.Duration
	// HealthAddr enables the gRPC health server when set.
	HealthAddr string
}

// Run opens the store, starts optional health and sweep side runtimes, and
// serves MCP until ctx ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var health *healthRuntime
	opts := []kvdomain.Option{}
	if strings.TrimSpace(cfg.HealthAddr) != "" {
		var err error
		health, err = startHealthServer(cfg.HealthAddr)
		if err != nil {
			return err
		}
		defer health.Stop()
		opts = append(opts, kvdomain.WithInitHook(health.MarkReady), kvdomain.WithCloseHook(health.MarkNotReady))
	}

	store, location, err := openStore(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close kv store: %v", closeErr)
		}
	}()
	log.Printf("kv store backend=%s location=%s transport=%s", normalizeBackend(cfg.Backend), location, transportOrDefault(cfg.Transport))

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	if cfg.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := kvdomain.NewSweeper(store, cfg.SweepInterval).Run(runCtx); err != nil {
				log.Printf("background sweeper stopped: %v", err)
			}
		}()
	}

	return service.Run(runCtx, service.Config{
		Transport:    cfg.Transport,
		HTTPAddr:     cfg.HTTPAddr,
		AllowedHosts: cfg.AllowedHosts,
		AuthToken:    cfg.AuthToken,
		JWT:          cfg.JWT,
	}, store)
}

// openStore builds a Store over the configured backend. The mapping itself
// opens lazily on first use.
func openStore(cfg RuntimeConfig, opts ...kvdomain.Option) (*kvdomain.Store, string, error) {
	opener, location, err := newOpener(cfg)
	if err != nil {
		return nil, "", err
	}
	store, err := kvdomain.NewStore(opener, opts...)
	if err != nil {
		return nil, "", err
	}
	return store, location, nil
}

func newOpener(cfg RuntimeConfig) (storage.Opener, string, error) {
	switch backend := normalizeBackend(cfg.Backend); backend {
	case BackendMemory:
		return memory.Opener(memory.New()), "memory", nil
	case BackendSQLite:
		dir, err := resolveDataDir(cfg.DataDir)
		if err != nil {
			return nil, "", err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, "", fmt.Errorf("create kv data dir: %w", err)
		}
		path := filepath.Join(dir, sqliteFileName)
		return kvsqlite.Opener(path), path, nil
	default:
		return nil, "", fmt.Errorf("storage backend %q is not supported", cfg.Backend)
	}
}

func normalizeBackend(backend string) string {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" {
		return BackendSQLite
	}
	return backend
}

func transportOrDefault(kind service.TransportKind) service.TransportKind {
	if kind == "" {
		return service.TransportStdio
	}
	return kind
}

// resolveDataDir defaults to ~/.kvmcp and expands a leading "~/".
func resolveDataDir(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir != "" && dir != "~" && !strings.HasPrefix(dir, "~/") {
		return filepath.Clean(dir), nil
	}
	home, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	switch {
	case dir == "":
		return filepath.Join(home, defaultDataDirName), nil
	case dir == "~":
		return home, nil
	default:
		return filepath.Join(home, strings.TrimPrefix(dir, "~/")), nil
	}
}

// healthRuntime serves grpc.health.v1 for process supervisors.
type healthRuntime struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	healthServer *health.Server
	serveErr     chan error
	stopOnce     sync.Once
}

func startHealthServer(addr string) (*healthRuntime, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on health address %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	runtime := &healthRuntime{
		listener:     listener,
		grpcServer:   grpcServer,
		healthServer: healthServer,
		serveErr:     make(chan error, 1),
	}
	go func() {
		runtime.serveErr <- grpcServer.Serve(listener)
	}()
	log.Printf("health server listening at %v", listener.Addr())
	return runtime, nil
}

// Addr returns the bound listener address.
func (h *healthRuntime) Addr() string {
	return h.listener.Addr().String()
}

// MarkReady flips the store service to SERVING.
func (h *healthRuntime) MarkReady() {
	h.healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
}

// MarkNotReady flips the store service back to NOT_SERVING.
func (h *healthRuntime) MarkNotReady() {
	h.healthServer.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// Stop shuts the health server down and waits for it to exit.
func (h *healthRuntime) Stop() {
	h.stopOnce.Do(func() {
		h.healthServer.Shutdown()
		h.grpcServer.GracefulStop()
		<-h.serveErr
	})
}
