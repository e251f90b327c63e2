// Package domain translates MCP tool calls into key-value store operations.
//
// Each tool decodes its typed input into one kv operation record, runs it
// through an Executor, and renders the outcome as tool content:
//   - store and delete acknowledge the caller's key,
//   - retrieve returns the stored text,
//   - list returns a JSON array of keys or key metadata.
//
// Failures never surface as protocol errors. They become tool results with
// IsError set and a structured {kind, code, message} payload.
package domain
