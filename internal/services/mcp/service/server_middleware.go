package service

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
	"github.com/louisbranch/kvmcp/internal/services/mcp/domain"
)

const methodCallTool = "tools/call"

// toolNameSet holds the names of registered tools.
type toolNameSet map[string]struct{}

// unknownToolMiddleware answers tools/call requests for unregistered tool
// names with an UnknownOperation tool result instead of a protocol error.
func unknownToolMiddleware(known toolNameSet) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != methodCallTool {
				return next(ctx, method, req)
			}
			call, ok := req.(*mcp.CallToolRequest)
			if !ok || call.Params == nil {
				return next(ctx, method, req)
			}
			if _, ok := known[call.Params.Name]; ok {
				return next(ctx, method, req)
			}
			return domain.ErrorResult(apperrors.WithMetadata(
				apperrors.CodeUnknownOperation,
				fmt.Sprintf("unknown operation: %s", call.Params.Name),
				map[string]string{"Operation": call.Params.Name},
			)), nil
		}
	}
}
