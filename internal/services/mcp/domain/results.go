package domain

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/kvmcp/internal/platform/errors"
	kvdomain "github.com/louisbranch/kvmcp/internal/services/kv/domain"
)

// ErrorPayload is the structured content attached to failed tool calls.
type ErrorPayload struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RenderResult converts an operation result into tool content.
func RenderResult(result kvdomain.Result) (*mcp.CallToolResult, error) {
	switch result := result.(type) {
	case kvdomain.StoreResult:
		return textResult("Successfully stored key: " + result.Key), nil
	case kvdomain.RetrieveResult:
		return textResult(result.Value), nil
	case kvdomain.ListResult:
		var listed any = result.Keys
		if result.WithMetadata {
			listed = result.Entries
		}
		payload, err := json.Marshal(listed)
		if err != nil {
			return nil, fmt.Errorf("encode list: %w", err)
		}
		return textResult(string(payload)), nil
	case kvdomain.DeleteResult:
		return textResult("Successfully deleted key: " + result.Key), nil
	default:
		return nil, fmt.Errorf("unsupported result %T", result)
	}
}

// ErrorResult converts err into a failed tool result with text content
// "<kind>: <message>" and an ErrorPayload as structured content.
func ErrorResult(err error) *mcp.CallToolResult {
	if err == nil {
		err = apperrors.New(apperrors.CodeUnknown, "unknown error")
	}
	payload := ErrorPayload{
		Kind:    string(apperrors.KindOf(err)),
		Code:    string(apperrors.CodeOf(err)),
		Message: err.Error(),
	}
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: payload.Kind + ": " + payload.Message}},
		StructuredContent: payload,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
