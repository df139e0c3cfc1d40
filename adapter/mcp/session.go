// Package mcp connects to Model Context Protocol tool servers over stdio
// and exposes their tools to langchaingo agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tmc/langchaingo/tools"

	"github.com/illation/wikisearch/log"
)

// ServerConfig describes how to launch a stdio MCP server.
type ServerConfig struct {
	// Command is the server executable.
	Command string
	// Args are passed to the server process.
	Args []string
	// Dir is the working directory for the server process.
	Dir string
}

// ParseCommand splits a server command line into the executable and its
// arguments. ok is false when the line is blank.
func ParseCommand(line string) (command string, args []string, ok bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

// Session is a live connection to one MCP server.
type Session struct {
	session *sdk.ClientSession
	logger  log.Logger
}

// Connect launches the configured server, performs the protocol
// handshake, and returns a live session. The caller owns the session and
// must Close it.
func Connect(ctx context.Context, cfg ServerConfig, logger log.Logger) (*Session, error) {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp server command is empty")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir

	client := sdk.NewClient(&sdk.Implementation{
		Name:    "wikisearch",
		Version: "0.1.0",
	}, nil)

	logger.Debug("launching mcp server: %s %v", cfg.Command, cfg.Args)
	session, err := client.Connect(ctx, &sdk.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to mcp server %s: %w", cfg.Command, err)
	}
	logger.Debug("mcp session initialized")

	return &Session{session: session, logger: logger}, nil
}

// Tools discovers the server's tools and wraps each one as a langchaingo
// tool, registered in a typed registry.
func (s *Session) Tools(ctx context.Context) (*Registry, error) {
	result, err := s.session.ListTools(ctx, &sdk.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	registry := NewRegistry()
	for _, t := range result.Tools {
		schema, err := schemaToMap(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("argument schema of mcp tool %q: %w", t.Name, err)
		}
		tool := &MCPTool{
			name:        t.Name,
			description: t.Description,
			schema:      schema,
			caller:      s.session,
		}
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
		s.logger.Debug("registered mcp tool %q", t.Name)
	}
	return registry, nil
}

// schemaToMap converts the SDK's schema representation into the generic
// map the model-facing tool declarations use.
func schemaToMap(schema any) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close shuts down the session and the server process.
func (s *Session) Close() error {
	return s.session.Close()
}

var _ tools.Tool = (*MCPTool)(nil)
var _ SchemaTool = (*MCPTool)(nil)
