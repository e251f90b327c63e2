package domain

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	kvdomain "github.com/louisbranch/kvmcp/internal/services/kv/domain"
)

// StoreInput represents the MCP tool input for storing a value.
type StoreInput struct {
	Key       string   `json:"key" jsonschema:"key to store the value under (letters, digits, '-', '_', ':', '.'; at most 256 characters)"`
	Value     string   `json:"value" jsonschema:"text value to store (at most 1 MiB)"`
	Namespace *string  `json:"namespace,omitempty" jsonschema:"optional namespace the key is grouped under"`
	TTL       *float64 `json:"ttl,omitempty" jsonschema:"optional time-to-live in seconds; zero or negative means no expiry"`
}

// RetrieveInput represents the MCP tool input for reading a value.
type RetrieveInput struct {
	Key       string  `json:"key" jsonschema:"key to read"`
	Namespace *string `json:"namespace,omitempty" jsonschema:"optional namespace the key was stored under"`
}

// ListInput represents the MCP tool input for listing keys.
type ListInput struct {
	Namespace       *string `json:"namespace,omitempty" jsonschema:"optional namespace to filter by"`
	IncludeMetadata bool    `json:"includeMetadata,omitempty" jsonschema:"return key, timestamp and expiry for each entry instead of bare keys"`
}

// DeleteInput represents the MCP tool input for deleting a value.
type DeleteInput struct {
	Key       string  `json:"key" jsonschema:"key to delete"`
	Namespace *string `json:"namespace,omitempty" jsonschema:"optional namespace the key was stored under"`
}

// StoreTool defines the MCP tool schema for storing a value.
func StoreTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        kvdomain.OperationStore,
		Description: "Stores a text value under a key, optionally within a namespace and with a time-to-live in seconds. Replaces any existing value.",
	}
}

// RetrieveTool defines the MCP tool schema for reading a value.
func RetrieveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        kvdomain.OperationRetrieve,
		Description: "Returns the value stored under a key. Expired values are reported as not found.",
	}
}

// ListTool defines the MCP tool schema for listing keys.
func ListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        kvdomain.OperationList,
		Description: "Lists stored keys as a JSON array, in their namespaced form. With a namespace, only keys starting with \"<namespace>:\" are returned.",
	}
}

// DeleteTool defines the MCP tool schema for deleting a value.
func DeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        kvdomain.OperationDelete,
		Description: "Deletes the value stored under a key. Deleting a missing key succeeds.",
	}
}

// Operation shapes the input into a store operation.
func (in StoreInput) Operation() kvdomain.StoreOp {
	op := kvdomain.StoreOp{
		Key:       in.Key,
		Value:     in.Value,
		Namespace: in.Namespace,
	}
	if in.TTL != nil {
		op.TTLSeconds = *in.TTL
	}
	return op
}

// Operation shapes the input into a retrieve operation.
func (in RetrieveInput) Operation() kvdomain.RetrieveOp {
	return kvdomain.RetrieveOp{Key: in.Key, Namespace: in.Namespace}
}

// Operation shapes the input into a list operation.
func (in ListInput) Operation() kvdomain.ListOp {
	return kvdomain.ListOp{Namespace: in.Namespace, IncludeMetadata: in.IncludeMetadata}
}

// Operation shapes the input into a delete operation.
func (in DeleteInput) Operation() kvdomain.DeleteOp {
	return kvdomain.DeleteOp{Key: in.Key, Namespace: in.Namespace}
}
