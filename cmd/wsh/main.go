package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kataras/golog"

	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/log"
	"github.com/illation/wikisearch/secrets"
	"github.com/illation/wikisearch/shell"
	"github.com/illation/wikisearch/tool"
)

func main() {
	mcpCommand := flag.String("mcp", "", "command that starts a Wikipedia MCP server over stdio (built-in tools when empty)")
	logLevel := flag.String("loglevel", "warn", "log level: debug, info, warn or error")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fatal(err)
	}
	logger := log.NewGologLogger(golog.New())
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, cleanup, err := buildRegistry(ctx, *mcpCommand, logger)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	sh := shell.New(registry, os.Stdin, os.Stdout, logger)
	if err := sh.Run(ctx); err != nil {
		fatal(err)
	}
}

func buildRegistry(ctx context.Context, mcpCommand string, logger log.Logger) (*mcp.Registry, func(), error) {
	if command, args, ok := mcp.ParseCommand(mcpCommand); ok {
		session, err := mcp.Connect(ctx, mcp.ServerConfig{
			Command: command,
			Args:    args,
			Dir:     os.TempDir(),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		registry, err := session.Tools(ctx)
		if err != nil {
			_ = session.Close()
			return nil, nil, err
		}
		return registry, func() { _ = session.Close() }, nil
	}

	var opts []tool.WikipediaOption
	if token := secrets.WikiToken(); token != "" {
		opts = append(opts, tool.WithAccessToken(token))
	}

	registry := mcp.NewRegistry()
	if err := registry.Register(tool.NewWikipediaSearch(opts...)); err != nil {
		return nil, nil, err
	}
	if err := registry.Register(tool.NewWikipediaArticle(opts...)); err != nil {
		return nil, nil, err
	}
	return registry, func() {}, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "wsh:", err)
	os.Exit(1)
}
