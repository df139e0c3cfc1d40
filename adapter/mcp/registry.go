package mcp

import (
	"fmt"
	"sort"

	"github.com/tmc/langchaingo/tools"
)

// SchemaTool is a tool that publishes a JSON-schema declaration of its
// arguments and takes them as a JSON object. Tools without one take a
// single input string.
type SchemaTool interface {
	tools.Tool
	ArgumentSchema() map[string]any
}

// Registry maps tool names to tools. Lookups of unknown names fail
// instead of silently dispatching to nothing.
type Registry struct {
	byName map[string]tools.Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]tools.Tool{}}
}

// Register adds a tool. Duplicate names are rejected.
func (r *Registry) Register(tool tools.Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.byName[name] = tool
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (tools.Tool, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, &UnknownToolError{Name: name, Known: r.Names()}
	}
	return tool, nil
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered tools, ordered by name.
func (r *Registry) All() []tools.Tool {
	names := r.Names()
	out := make([]tools.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.byName)
}

// UnknownToolError reports a lookup of a tool name that was never
// registered.
type UnknownToolError struct {
	Name  string
	Known []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q (known tools: %v)", e.Name, e.Known)
}
