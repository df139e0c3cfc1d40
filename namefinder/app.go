package namefinder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tmc/langchaingo/llms/openai"

	"github.com/illation/wikisearch/adapter"
	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/graph"
	"github.com/illation/wikisearch/log"
	"github.com/illation/wikisearch/prompt"
	"github.com/illation/wikisearch/report"
	"github.com/illation/wikisearch/runstore"
	"github.com/illation/wikisearch/runstore/postgres"
	"github.com/illation/wikisearch/runstore/redis"
	"github.com/illation/wikisearch/runstore/sqlite"
	"github.com/illation/wikisearch/secrets"
	"github.com/illation/wikisearch/tool"
)

// Model names for the two roles. The researcher drives tools; the
// extractor only produces structured output.
const (
	researcherModel = "gpt-5-mini"
	extractorModel  = "gpt-5-nano"
)

// Prompt file names under the prompts directory.
const (
	researcherPromptFile = "name_extractor_agent.yaml"
	locatorPromptFile    = "name_scraper_prompt.yaml"
)

// Config holds the application configuration, normally populated from
// command-line flags.
type Config struct {
	// Person is the research target.
	Person string
	// PromptsDir is the directory holding the prompt YAML files.
	PromptsDir string
	// MCPCommand launches a Wikipedia MCP server; empty means use the
	// built-in REST tools instead.
	MCPCommand string
	// MCPArgs are extra arguments for the MCP server.
	MCPArgs []string
	// WorkDir receives logs, snapshots, and output artifacts.
	WorkDir string
	// StoreKind selects the snapshot backend: memory, file, sqlite,
	// redis (addr via RedisAddr), or postgres (DSN via PostgresDSN).
	StoreKind string
	// RedisAddr is the Redis address when StoreKind is "redis".
	RedisAddr string
	// PostgresDSN is the connection string when StoreKind is "postgres".
	PostgresDSN string
	// MaxSteps is the researcher's step budget.
	MaxSteps int
	// LogLevel controls console verbosity.
	LogLevel log.LogLevel
}

// Result is what a completed run produces.
type Result struct {
	RunID string          `json:"run_id"`
	State NameFinderState `json:"state"`
}

// App is the main application harness. It fetches secrets, configures
// logging and models, connects the tool source, and runs the graph.
type App struct {
	cfg     Config
	logger  log.Logger
	secrets secrets.ApplicationSecrets

	closers []func() error
}

// NewApp prepares the harness: working directory, logging, credentials.
func NewApp(cfg Config) (*App, error) {
	if cfg.Person == "" {
		return nil, fmt.Errorf("no person to research")
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 20
	}
	if cfg.StoreKind == "" {
		cfg.StoreKind = "file"
	}

	logger, closeLogs, err := log.Setup(cfg.WorkDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, logger: logger}
	app.closers = append(app.closers, closeLogs)

	app.secrets, err = secrets.Fetch()
	if err != nil {
		app.Close()
		return nil, err
	}
	logger.Debug("fetched credentials: %v", app.secrets.Names())

	return app, nil
}

// Close releases everything the app opened.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed: %v", err)
		}
	}
	a.closers = nil
}

// Run executes a full research run and writes the output artifacts.
func (a *App) Run(ctx context.Context) (*Result, error) {
	registry, err := a.buildTools(ctx)
	if err != nil {
		return nil, err
	}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	researchPrompt, err := prompt.FromFile(filepath.Join(a.cfg.PromptsDir, researcherPromptFile))
	if err != nil {
		return nil, err
	}
	locatorPrompt, err := prompt.FromFile(filepath.Join(a.cfg.PromptsDir, locatorPromptFile))
	if err != nil {
		return nil, err
	}

	model, err := openai.New(
		openai.WithModel(researcherModel),
		openai.WithToken(a.secrets.LLMAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("configure researcher model: %w", err)
	}

	var structuredOpts []adapter.StructuredOption
	if a.secrets.LLMProjectID != "" {
		structuredOpts = append(structuredOpts, adapter.WithProjectID(a.secrets.LLMProjectID))
	}
	structured := adapter.NewStructuredClient(a.secrets.LLMAPIKey, extractorModel, structuredOpts...)

	nodes := NewNodes(
		NewResearcher(model, registry, a.logger),
		structured,
		researchPrompt,
		locatorPrompt,
		a.logger,
	)

	runnable, runID, err := BuildGraph(GraphConfig{
		Nodes:  nodes,
		Store:  store,
		Logger: a.logger,
	})
	if err != nil {
		return nil, err
	}

	tracer := graph.NewTracer(graph.TraceHookFunc(func(ctx context.Context, span *graph.TraceSpan) {
		if !span.EndTime.IsZero() {
			a.logger.Debug("span %s %s took %s", span.Event, span.NodeName, span.Duration)
		}
	}))
	runnable.SetTracer(tracer)

	a.logger.Info("starting name finder run %s for %q", runID, a.cfg.Person)
	finalState, err := runnable.Invoke(ctx, NameFinderState{
		RemainingSteps: a.cfg.MaxSteps,
		TargetPerson:   a.cfg.Person,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, State: finalState}
	if err := a.writeArtifacts(result); err != nil {
		return nil, err
	}
	a.logger.Info("run %s finished with %d messages", runID, len(finalState.Messages))
	return result, nil
}

// buildTools connects the MCP server when configured, otherwise falls
// back to the built-in Wikipedia REST tools.
func (a *App) buildTools(ctx context.Context) (*mcp.Registry, error) {
	if a.cfg.MCPCommand != "" {
		session, err := mcp.Connect(ctx, mcp.ServerConfig{
			Command: a.cfg.MCPCommand,
			Args:    a.cfg.MCPArgs,
			Dir:     os.TempDir(),
		}, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, session.Close)
		return session.Tools(ctx)
	}

	a.logger.Info("no MCP server configured, using built-in Wikipedia tools")
	var toolOpts []tool.WikipediaOption
	if a.secrets.WikiAccessToken != "" {
		toolOpts = append(toolOpts, tool.WithAccessToken(a.secrets.WikiAccessToken))
	}

	registry := mcp.NewRegistry()
	if err := registry.Register(tool.NewWikipediaSearch(toolOpts...)); err != nil {
		return nil, err
	}
	if err := registry.Register(tool.NewWikipediaArticle(toolOpts...)); err != nil {
		return nil, err
	}
	return registry, nil
}

// buildStore selects the snapshot backend.
func (a *App) buildStore(ctx context.Context) (runstore.Store, error) {
	switch a.cfg.StoreKind {
	case "memory":
		return runstore.NewMemoryStore(), nil
	case "file":
		return runstore.NewFileStore(filepath.Join(a.cfg.WorkDir, "snapshots"))
	case "sqlite":
		store, err := sqlite.NewSqliteStore(sqlite.Options{
			Path: filepath.Join(a.cfg.WorkDir, "snapshots.db"),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "redis":
		store := redis.NewRedisStore(redis.Options{Addr: a.cfg.RedisAddr})
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "postgres":
		store, err := postgres.NewPostgresStore(ctx, postgres.Options{
			ConnString: a.cfg.PostgresDSN,
		})
		if err != nil {
			return nil, err
		}
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		return store, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown snapshot store %q", a.cfg.StoreKind)
	}
}

// writeArtifacts writes agent_out.json and the rendered reports into the
// working directory.
func (a *App) writeArtifacts(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}
	outPath := filepath.Join(a.cfg.WorkDir, "agent_out.json")
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	a.logger.Info("wrote %s", outPath)

	state := result.State
	return report.Write(a.cfg.WorkDir, state.TargetPerson, state.EntityData, state.ArticleNames)
}
