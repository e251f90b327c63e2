package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/kvmcp/internal/services/mcp/domain"
)

const mcpKVToolsModuleName = "kv-tools"

// mcpRegistrationTarget is the subset of server registration the tool
// modules need.
type mcpRegistrationTarget interface {
	AddTool(tool *mcp.Tool, handler any) error
}

type mcpRegistrationModule struct {
	name     string
	register func(mcpRegistrationTarget) error
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
	names  toolNameSet
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	if err := addMCPTool(r.server, tool, handler); err != nil {
		return err
	}
	if r.names != nil {
		r.names[tool.Name] = struct{}{}
	}
	return nil
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.StoreInput, any](),
	newMCPToolRegistrar[domain.RetrieveInput, any](),
	newMCPToolRegistrar[domain.ListInput, any](),
	newMCPToolRegistrar[domain.DeleteInput, any](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(exec domain.Executor) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpKVToolsModuleName,
			register: func(registrar mcpRegistrationTarget) error {
				return registerKVTools(registrar, exec)
			},
		},
	}
}

func registerKVTools(registrar mcpRegistrationTarget, exec domain.Executor) error {
	tools := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{domain.StoreTool(), domain.StoreHandler(exec)},
		{domain.RetrieveTool(), domain.RetrieveHandler(exec)},
		{domain.ListTool(), domain.ListHandler(exec)},
		{domain.DeleteTool(), domain.DeleteHandler(exec)},
	}
	for _, entry := range tools {
		if err := registrar.AddTool(entry.tool, entry.handler); err != nil {
			return err
		}
	}
	return nil
}
