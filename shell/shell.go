// Package shell implements an interactive shell over a tool registry.
// Lines are dispatched natively: built-in commands first, then tool
// names with JSON arguments.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/log"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	promptStyle  = lipgloss.NewStyle().Bold(true)
)

const promptText = "wsh> "

// Shell is an interactive REPL over the tools in a registry.
type Shell struct {
	registry *mcp.Registry
	in       io.Reader
	out      io.Writer
	logger   log.Logger
}

// New creates a shell reading commands from in and writing to out.
func New(registry *mcp.Registry, in io.Reader, out io.Writer, logger log.Logger) *Shell {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Shell{
		registry: registry,
		in:       in,
		out:      out,
		logger:   logger,
	}
}

// Run reads and dispatches lines until quit or end of input.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Welcome to the Wikipedia tool shell. Type help to list commands.")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(s.out, promptStyle.Render(promptText))
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		if done := s.Dispatch(ctx, scanner.Text()); done {
			return nil
		}
	}
}

// Dispatch interprets one input line. It returns true when the shell
// should stop.
func (s *Shell) Dispatch(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	name, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(name) {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp(strings.TrimSpace(rest))
		return false
	case "ls":
		s.listFiles()
		return false
	default:
		s.callTool(ctx, strings.ToLower(name), strings.TrimSpace(rest))
		return false
	}
}

// callTool dispatches a tool by name, with the rest of the line parsed
// as a JSON argument object.
func (s *Shell) callTool(ctx context.Context, name, argsText string) {
	tool, err := s.registry.Get(name)
	if err != nil {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Unknown command: %s", name)))
		return
	}

	if argsText != "" && !json.Valid([]byte(argsText)) {
		fmt.Fprintln(s.out, errorStyle.Render("Error: arguments must be valid JSON"))
		return
	}

	fmt.Fprintf(s.out, "Entering %s => %s\n", name, tool.Description())
	result, err := tool.Call(ctx, argsText)
	if err != nil {
		s.logger.Error("tool %q failed: %v", name, err)
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Error executing %s: %v", name, err)))
		return
	}
	fmt.Fprintf(s.out, "Completed tool %s\n", name)
	fmt.Fprintln(s.out, indentJSON(result))
}

// printHelp lists the commands, or describes one tool.
func (s *Shell) printHelp(arg string) {
	if arg == "" {
		fmt.Fprintln(s.out, headingStyle.Render("Available commands:"))
		fmt.Fprintln(s.out, "  quit: Exit the shell")
		fmt.Fprintln(s.out, "  help: Show this help message")
		fmt.Fprintln(s.out, "  ls: List files in the current directory")
		for _, tool := range s.registry.All() {
			fmt.Fprintf(s.out, "  %s: %s\n", tool.Name(), tool.Description())
		}
		return
	}

	tool, err := s.registry.Get(strings.ToLower(arg))
	if err != nil {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("No help available for: %s", arg)))
		return
	}
	fmt.Fprintln(s.out, headingStyle.Render(tool.Name()+":"))
	fmt.Fprintf(s.out, "Description: %s\n", tool.Description())
	if st, ok := tool.(mcp.SchemaTool); ok && st.ArgumentSchema() != nil {
		if data, err := json.MarshalIndent(st.ArgumentSchema(), "", "  "); err == nil {
			fmt.Fprintf(s.out, "Arguments: %s\n", data)
		}
	}
}

// listFiles prints the entries of the current directory.
func (s *Shell) listFiles() {
	entries, err := os.ReadDir(".")
	if err != nil {
		fmt.Fprintln(s.out, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		return
	}
	for _, entry := range entries {
		fmt.Fprintln(s.out, entry.Name())
	}
}

// indentJSON pretty-prints a tool result when it is JSON, and returns it
// unchanged otherwise.
func indentJSON(text string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(text), "", "  "); err != nil {
		return text
	}
	return buf.String()
}
