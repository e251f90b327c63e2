package domain

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
	kvdomain "github.com/louisbranch/kvmcp/internal/services/kv/domain"
)

const tracerName = "github.com/louisbranch/kvmcp/internal/services/mcp/domain"

// Executor runs key-value operations. *kvdomain.Store satisfies it.
type Executor interface {
	Execute(ctx context.Context, op kvdomain.Operation) (kvdomain.Result, error)
}

// StoreHandler executes a store request.
func StoreHandler(exec Executor) mcp.ToolHandlerFor[StoreInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, any, error) {
		return invoke(ctx, exec, input.Operation())
	}
}

// RetrieveHandler executes a retrieve request.
func RetrieveHandler(exec Executor) mcp.ToolHandlerFor[RetrieveInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, any, error) {
		return invoke(ctx, exec, input.Operation())
	}
}

// ListHandler executes a list request.
func ListHandler(exec Executor) mcp.ToolHandlerFor[ListInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, any, error) {
		return invoke(ctx, exec, input.Operation())
	}
}

// DeleteHandler executes a delete request.
func DeleteHandler(exec Executor) mcp.ToolHandlerFor[DeleteInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, any, error) {
		return invoke(ctx, exec, input.Operation())
	}
}

// invoke runs op inside a span and renders the outcome. Operation failures
// are returned as error results, never as handler errors.
func invoke(ctx context.Context, exec Executor, op kvdomain.Operation) (*mcp.CallToolResult, any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	invocationID := NewInvocationID()
	ctx = WithInvocationID(ctx, invocationID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "kv."+op.Name(),
		trace.WithAttributes(
			attribute.String("kv.invocation_id", invocationID),
			attribute.Bool("kv.namespaced", hasNamespace(op)),
		),
	)
	defer span.End()

	if exec == nil {
		return failure(span, invocationID, op, apperrors.New(apperrors.CodeInternal, "store is not configured"))
	}

	result, err := exec.Execute(ctx, op)
	if err != nil {
		return failure(span, invocationID, op, err)
	}
	rendered, err := RenderResult(result)
	if err != nil {
		return failure(span, invocationID, op, apperrors.AsInternal(err, "render result"))
	}
	return rendered, nil, nil
}

func failure(span trace.Span, invocationID string, op kvdomain.Operation, err error) (*mcp.CallToolResult, any, error) {
	kind := apperrors.KindOf(err)
	span.SetAttributes(attribute.String("kv.error_kind", string(kind)))
	span.SetStatus(codes.Error, err.Error())
	if kind == apperrors.KindInternal {
		log.Printf("kv %s failed: invocation=%s err=%v", op.Name(), invocationID, err)
	}
	return ErrorResult(err), nil, nil
}

func hasNamespace(op kvdomain.Operation) bool {
	switch op := op.(type) {
	case kvdomain.StoreOp:
		return op.Namespace != nil
	case kvdomain.RetrieveOp:
		return op.Namespace != nil
	case kvdomain.ListOp:
		return op.Namespace != nil
	case kvdomain.DeleteOp:
		return op.Namespace != nil
	default:
		return false
	}
}
