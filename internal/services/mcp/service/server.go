package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kvmcp/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "kvmcp"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server transport.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the HTTP listen address. Defaults to localhost:8081.
	HTTPAddr string
	// AllowedHosts extends the loopback-only Host/Origin allowlist.
	AllowedHosts []string
	// AuthToken, when set, is accepted as a static bearer token.
	AuthToken string
	// JWT, when its secret is set, accepts HS256 bearer tokens.
	JWT JWTConfig
}

// Server hosts the MCP server and its key-value tools.
type Server struct {
	mcpServer *mcp.Server
}

// New creates an MCP server exposing the store, retrieve, list, and delete
// tools backed by exec.
func New(exec domain.Executor) (*Server, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	names := toolNameSet{}
	for _, module := range newMCPRegistrationModules(exec) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer, names: names}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}
	mcpServer.AddReceivingMiddleware(unknownToolMiddleware(names))
	return &Server{mcpServer: mcpServer}, nil
}

// Run serves the tools over the configured transport and blocks until the
// context ends.
func Run(ctx context.Context, cfg Config, exec domain.Executor) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	server, err := New(exec)
	if err != nil {
		return err
	}
	if cfg.Transport == TransportHTTP {
		return server.ServeHTTP(ctx, cfg)
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// ServeHTTP starts the streamable HTTP transport and blocks until the context ends.
func (s *Server) ServeHTTP(ctx context.Context, cfg Config) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	transport, err := NewHTTPTransport(cfg, s.mcpServer)
	if err != nil {
		return err
	}
	return transport.Start(ctx)
}

// serveWithTransport runs the MCP server on transport. Context cancellation
// is a clean exit.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
