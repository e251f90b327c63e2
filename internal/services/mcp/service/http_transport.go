package service

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kvmcp/internal/platform/timeouts"
)

const defaultHTTPAddr = "localhost:8081"

var listenTCP = net.Listen

// HTTPTransport serves MCP over streamable HTTP at /mcp, with a health probe
// at /mcp/health. Every request passes the host guard; /mcp additionally
// requires a bearer token when one is configured.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	auth         *bearerAuth
	mcpHandler   http.Handler
	httpServer   *http.Server
}

// NewHTTPTransport creates an HTTP transport for server. The default address
// is localhost-only.
func NewHTTPTransport(cfg Config, server *mcp.Server) (*HTTPTransport, error) {
	if server == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = defaultHTTPAddr
	}
	auth, err := newBearerAuth(cfg.AuthToken, cfg.JWT)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{
		addr:         addr,
		allowedHosts: parseAllowedHosts(cfg.AllowedHosts),
		auth:         auth,
		mcpHandler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, nil),
	}, nil
}

// Handler returns the HTTP routes served by the transport.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc("/mcp/health", t.handleHealth)
	return mux
}

// Start listens on the configured address and serves until ctx ends, then
// shuts the server down gracefully.
func (t *HTTPTransport) Start(ctx context.Context) error {
	listener, err := listenTCP("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.addr, err)
	}

	t.httpServer = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	log.Printf("Starting MCP HTTP server on %s", listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		<-errChan
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

// handleMCP guards and authenticates requests before handing them to the
// streamable MCP handler.
func (t *HTTPTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}
	t.mcpHandler.ServeHTTP(w, r)
}

// handleHealth handles GET /mcp/health for health checks.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Printf("Failed to write health response: %v", err)
	}
}
