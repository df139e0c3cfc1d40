package namefinder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/illation/wikisearch/graph"
	"github.com/illation/wikisearch/log"
	"github.com/illation/wikisearch/runstore"
)

// GraphConfig wires the research graph.
type GraphConfig struct {
	Nodes *Nodes
	// Store receives a snapshot after each node completes. Optional.
	Store runstore.Store
	// RunID identifies this run in the store. Defaults to a fresh UUID.
	RunID  string
	Logger log.Logger
}

// BuildGraph assembles the two-node research graph: the entity
// researcher runs strictly before the names finder.
func BuildGraph(cfg GraphConfig) (*graph.StateRunnable[NameFinderState], string, error) {
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &log.NoOpLogger{}
	}

	version := 0
	withSnapshot := func(nodeName string, fn graph.NodeFunction[NameFinderState]) graph.NodeFunction[NameFinderState] {
		return func(ctx context.Context, state NameFinderState) (NameFinderState, error) {
			update, err := fn(ctx, state)
			if err != nil {
				return update, err
			}
			if cfg.Store == nil {
				return update, nil
			}

			merged, mergeErr := mergeState(state, update)
			if mergeErr != nil {
				return update, mergeErr
			}
			stateJSON, mergeErr := json.Marshal(merged)
			if mergeErr != nil {
				logger.Warn("snapshot of %q not serializable: %v", nodeName, mergeErr)
				return update, nil
			}

			version++
			snapshot := &runstore.Snapshot{
				ID:        uuid.NewString(),
				RunID:     runID,
				Person:    merged.TargetPerson,
				NodeName:  nodeName,
				State:     stateJSON,
				Timestamp: time.Now().UTC(),
				Version:   version,
			}
			if saveErr := cfg.Store.Save(ctx, snapshot); saveErr != nil {
				logger.Warn("failed to save snapshot for %q: %v", nodeName, saveErr)
			}
			return update, nil
		}
	}

	g := graph.NewStateGraph[NameFinderState]()
	g.SetSchema(StateSchema())
	g.AddNode(NodeEntityResearcher, "Researches the target person with Wikipedia tools",
		withSnapshot(NodeEntityResearcher, cfg.Nodes.ResearchEntity))
	g.AddNode(NodeNamesFinder, "Extracts co-occurring person names from retrieved articles",
		withSnapshot(NodeNamesFinder, cfg.Nodes.LocateNames))
	g.SetEntryPoint(NodeEntityResearcher)
	g.AddEdge(NodeEntityResearcher, NodeNamesFinder)
	g.AddEdge(NodeNamesFinder, graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, "", err
	}
	return runnable, runID, nil
}
