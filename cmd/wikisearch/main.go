package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/log"
	"github.com/illation/wikisearch/namefinder"
)

func main() {
	person := flag.String("person", "Kitty Dukakis", "person to research")
	promptsDir := flag.String("prompts", "prompts", "directory holding the prompt templates")
	mcpCommand := flag.String("mcp", "", "command that starts a Wikipedia MCP server over stdio (built-in tools when empty)")
	workDir := flag.String("out", "", "directory for logs, snapshots and reports (a per-user temp directory when empty)")
	storeKind := flag.String("store", "file", "snapshot store: memory, file, sqlite, redis, postgres or none")
	redisAddr := flag.String("redis-addr", "localhost:6379", "redis address for -store redis")
	postgresDSN := flag.String("postgres-dsn", "", "connection string for -store postgres")
	maxSteps := flag.Int("max-steps", 20, "tool call budget for the researcher")
	logLevel := flag.String("loglevel", "info", "log level: debug, info, warn or error")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fatal(err)
	}

	command, mcpArgs, _ := mcp.ParseCommand(*mcpCommand)

	app, err := namefinder.NewApp(namefinder.Config{
		Person:      *person,
		PromptsDir:  *promptsDir,
		MCPCommand:  command,
		MCPArgs:     mcpArgs,
		WorkDir:     *workDir,
		StoreKind:   *storeKind,
		RedisAddr:   *redisAddr,
		PostgresDSN: *postgresDSN,
		MaxSteps:    *maxSteps,
		LogLevel:    level,
	})
	if err != nil {
		fatal(err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := app.Run(ctx)
	if err != nil {
		fatal(err)
	}

	if result.State.EntityData != nil {
		fmt.Printf("%s is best known as %s.\n", *person, result.State.EntityData.BestKnownAs)
	}
	if result.State.ArticleNames != nil {
		fmt.Printf("Found %d co-occurring names.\n", len(result.State.ArticleNames.Names))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "wikisearch:", err)
	os.Exit(1)
}
