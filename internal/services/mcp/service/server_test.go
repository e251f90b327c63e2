package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	kvdomain "github.com/louisbranch/kvmcp/internal/services/kv/domain"
	"github.com/louisbranch/kvmcp/internal/services/kv/storage/memory"
)

type failingTransport struct{}

// Connect always fails.
func (failingTransport) Connect(context.Context) (mcp.Connection, error) {
	return nil, errors.New("transport failure")
}

func newTestStore(t *testing.T) *kvdomain.Store {
	t.Helper()
	store, err := kvdomain.NewStore(memory.Opener(memory.New()), kvdomain.WithLogger(func(string, ...any) {}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// connectInMemory serves a new Server over in-memory transports and returns a
// connected client session. Cleanup stops the server and waits for it.
func connectInMemory(t *testing.T, store *kvdomain.Store) *mcp.ClientSession {
	t.Helper()
	server, err := New(store)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.serveWithTransport(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case <-serveErr:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("call %s returned no content", name)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("call %s content = %T", name, result.Content[0])
	}
	return text.Text, result.IsError
}

func TestNewRequiresExecutor(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil executor")
	}
}

func TestServerListsTools(t *testing.T) {
	session := connectInMemory(t, newTestStore(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"store", "retrieve", "list", "delete"} {
		if !names[want] {
			t.Errorf("tool %q not registered (have %v)", want, names)
		}
	}
}

func TestNamespacedLifecycleOverProtocol(t *testing.T) {
	session := connectInMemory(t, newTestStore(t))

	text, isErr := callTool(t, session, "store", map[string]any{"key": "a", "value": "1", "namespace": "proj", "ttl": 0})
	if isErr || text != "Successfully stored key: a" {
		t.Fatalf("store = %q (error %v)", text, isErr)
	}

	text, isErr = callTool(t, session, "retrieve", map[string]any{"key": "a", "namespace": "proj"})
	if isErr || text != "1" {
		t.Fatalf("retrieve = %q (error %v)", text, isErr)
	}

	text, isErr = callTool(t, session, "list", map[string]any{"namespace": "proj"})
	if isErr || text != `["proj:a"]` {
		t.Fatalf("list = %q (error %v)", text, isErr)
	}

	text, isErr = callTool(t, session, "delete", map[string]any{"key": "a", "namespace": "proj"})
	if isErr || text != "Successfully deleted key: a" {
		t.Fatalf("delete = %q (error %v)", text, isErr)
	}

	text, isErr = callTool(t, session, "retrieve", map[string]any{"key": "a", "namespace": "proj"})
	if !isErr || !strings.HasPrefix(text, "NotFound: ") {
		t.Fatalf("retrieve after delete = %q (error %v)", text, isErr)
	}
}

func TestInvalidKeyOverProtocol(t *testing.T) {
	session := connectInMemory(t, newTestStore(t))

	text, isErr := callTool(t, session, "store", map[string]any{"key": "no spaces", "value": "v"})
	if !isErr || !strings.HasPrefix(text, "InvalidInput: ") {
		t.Fatalf("store = %q (error %v)", text, isErr)
	}
	text, _ = callTool(t, session, "list", map[string]any{})
	if text != "[]" {
		t.Fatalf("list after rejected store = %q", text)
	}
}

func TestUnknownToolIsUnknownOperation(t *testing.T) {
	session := connectInMemory(t, newTestStore(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "increment", Arguments: map[string]any{"key": "a"}})
	if err != nil {
		t.Fatalf("call increment: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error result")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "UnknownOperation: unknown operation: increment" {
		t.Fatalf("content = %#v", result.Content[0])
	}
	payload, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structured content = %T", result.StructuredContent)
	}
	if payload["kind"] != "UnknownOperation" || payload["code"] != "UNKNOWN_OPERATION" {
		t.Fatalf("payload = %v", payload)
	}

	// Registered tools still dispatch normally.
	if text, isErr := callTool(t, session, "list", map[string]any{}); isErr || text != "[]" {
		t.Fatalf("list = %q (error %v)", text, isErr)
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), Config{Transport: "websocket"}, newTestStore(t))
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected 'not supported' in error, got: %v", err)
	}
}

func TestServeWithTransportErrors(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
	if err := (&Server{}).serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for missing mcp server")
	}

	server, err := New(newTestStore(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := server.serveWithTransport(context.Background(), failingTransport{}); err == nil {
		t.Fatal("expected error from failing transport")
	}
}

func TestAddMCPToolRejectsUnknownHandler(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
	err := addMCPTool(server, &mcp.Tool{Name: "bogus"}, func() {})
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected unsupported handler error, got %v", err)
	}
}
