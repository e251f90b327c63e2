// Package service wires protocol transport to the key-value tools.
//
// It is the transport adapter layer: the package knows how to run MCP over stdio
// or streamable HTTP and delegates operation meaning to the MCP domain handlers.
package service
