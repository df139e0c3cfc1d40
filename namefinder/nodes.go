package namefinder

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/illation/wikisearch/log"
	"github.com/illation/wikisearch/prompt"
	"github.com/illation/wikisearch/schemas"
)

// Nodes holds the two graph nodes and their shared dependencies.
type Nodes struct {
	researcher     *Researcher
	structured     StructuredGenerator
	researchPrompt *prompt.Template
	locatorPrompt  *prompt.Template
	logger         log.Logger
}

// NewNodes wires the graph nodes.
func NewNodes(researcher *Researcher, structured StructuredGenerator, researchPrompt, locatorPrompt *prompt.Template, logger log.Logger) *Nodes {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Nodes{
		researcher:     researcher,
		structured:     structured,
		researchPrompt: researchPrompt,
		locatorPrompt:  locatorPrompt,
		logger:         logger,
	}
}

// ResearchEntity is the first node: it runs the tool-calling researcher
// against the target person and distills the transcript into structured
// entity data.
func (n *Nodes) ResearchEntity(ctx context.Context, state NameFinderState) (NameFinderState, error) {
	if state.TargetPerson == "" {
		return NameFinderState{}, fmt.Errorf("no target person set")
	}

	formatInstructions, err := schemas.FormatInstructions(schemas.PersonInfoSchema())
	if err != nil {
		return NameFinderState{}, err
	}

	promptMessages, err := n.researchPrompt.Format(map[string]any{
		"person":              state.TargetPerson,
		"format_instructions": formatInstructions,
	})
	if err != nil {
		return NameFinderState{}, err
	}

	n.logger.Info("researching %q with %d steps remaining", state.TargetPerson, state.RemainingSteps)
	generated, remaining, err := n.researcher.Run(ctx, promptMessages, state.RemainingSteps)
	if err != nil {
		return NameFinderState{}, err
	}

	transcript := append(append([]llms.MessageContent{}, promptMessages...), generated...)
	var info schemas.PersonInfo
	if err := n.structured.GenerateInto(ctx, transcript, "person_info", schemas.PersonInfoSchema(), &info); err != nil {
		return NameFinderState{}, fmt.Errorf("extract entity data: %w", err)
	}

	return NameFinderState{
		Messages:       transcript,
		RemainingSteps: remaining,
		EntityData:     &info,
	}, nil
}

// LocateNames is the second node: it collects every tool result the
// researcher retrieved and extracts all person names mentioned in them.
// It requires the researcher to have run first.
func (n *Nodes) LocateNames(ctx context.Context, state NameFinderState) (NameFinderState, error) {
	if state.EntityData == nil {
		return NameFinderState{}, &ResearchIncompleteError{
			Person: state.TargetPerson,
			Stage:  NodeNamesFinder,
		}
	}

	allDocs := collectToolResults(state.Messages)
	if allDocs == "" {
		n.logger.Warn("no tool results to mine for names")
	}
	n.logger.Info("locating names in %d bytes of retrieved text", len(allDocs))

	promptMessages, err := n.locatorPrompt.Format(map[string]any{
		"all_docs": allDocs,
	})
	if err != nil {
		return NameFinderState{}, err
	}

	var names schemas.ArticleNames
	if err := n.structured.GenerateInto(ctx, promptMessages, "article_names", schemas.ArticleNamesSchema(), &names); err != nil {
		return NameFinderState{}, fmt.Errorf("extract article names: %w", err)
	}

	return NameFinderState{
		RemainingSteps: state.RemainingSteps,
		ArticleNames:   &names,
	}, nil
}

// collectToolResults joins the contents of all tool messages in
// transcript order.
func collectToolResults(messages []llms.MessageContent) string {
	var docs []string
	for _, m := range messages {
		if m.Role != llms.ChatMessageTypeTool {
			continue
		}
		for _, part := range m.Parts {
			if resp, ok := part.(llms.ToolCallResponse); ok {
				docs = append(docs, resp.Content)
			}
		}
	}
	return strings.Join(docs, "\n")
}
