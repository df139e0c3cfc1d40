package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolCaller is the slice of the MCP session that tool invocation needs.
type toolCaller interface {
	CallTool(ctx context.Context, params *sdk.CallToolParams) (*sdk.CallToolResult, error)
}

// MCPTool exposes a single MCP server tool through the langchaingo tool
// interface.
type MCPTool struct {
	name        string
	description string
	schema      map[string]any
	caller      toolCaller
}

// Name returns the tool name as published by the server.
func (t *MCPTool) Name() string {
	return t.name
}

// Description returns the tool description as published by the server.
func (t *MCPTool) Description() string {
	return t.description
}

// ArgumentSchema returns the JSON-schema argument declaration published
// by the server, or nil when the server declared none.
func (t *MCPTool) ArgumentSchema() map[string]any {
	return t.schema
}

// Call invokes the tool. The input must be a JSON object of arguments
// matching the server's declared schema; empty input means no arguments.
func (t *MCPTool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(input)
	if trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return "", fmt.Errorf("arguments for tool %q are not a JSON object: %w", t.name, err)
		}
	}

	result, err := t.caller.CallTool(ctx, &sdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("call mcp tool %q: %w", t.name, err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return "", fmt.Errorf("mcp tool %q failed: %s", t.name, text)
	}
	return text, nil
}

// flattenContent joins the text parts of a tool result.
func flattenContent(content []sdk.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*sdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
