// Package namefinder researches a single person through an LLM agent
// with Wikipedia tools and mines the retrieved article text for
// co-occurring person names.
package namefinder

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/illation/wikisearch/graph"
	"github.com/illation/wikisearch/schemas"
)

// Graph node names.
const (
	NodeEntityResearcher = "Entity Researcher"
	NodeNamesFinder      = "Names Finder"
)

// ErrStepBudgetExhausted is returned when the researcher's step budget
// runs out while the model still wants to call tools.
var ErrStepBudgetExhausted = errors.New("step budget exhausted before research finished")

// ResearchIncompleteError reports that a stage ran before the research
// it depends on produced any output.
type ResearchIncompleteError struct {
	Person string
	Stage  string
}

func (e *ResearchIncompleteError) Error() string {
	return fmt.Sprintf("%s: no research output available for %q", e.Stage, e.Person)
}

// NameFinderState is the state flowing through the research graph:
// detailed info about a single entity, and all co-occurring names.
type NameFinderState struct {
	// Messages is the append-only conversation transcript, including
	// tool calls and tool results.
	Messages []llms.MessageContent `json:"messages"`
	// RemainingSteps is the number of agent steps still allowed.
	RemainingSteps int `json:"remaining_steps"`
	// TargetPerson is the person being researched.
	TargetPerson string `json:"target_person"`
	// EntityData is the structured research result, nil until the
	// researcher has run.
	EntityData *schemas.PersonInfo `json:"entity_data"`
	// ArticleNames holds the names mined from retrieved articles, nil
	// until the locator has run.
	ArticleNames *schemas.ArticleNames `json:"article_name_data"`
}

// StateSchema returns the merge schema for NameFinderState: messages
// append, RemainingSteps is always taken from the update, the remaining
// fields take the newest non-zero value.
func StateSchema() graph.StateSchema[NameFinderState] {
	return graph.NewStructSchema(NameFinderState{}, mergeState)
}

// mergeState applies a node's update to the current state. Every node
// update must carry RemainingSteps forward; zero is a valid value for an
// exactly exhausted budget.
func mergeState(current, update NameFinderState) (NameFinderState, error) {
	if len(update.Messages) > 0 {
		current.Messages = append(current.Messages, update.Messages...)
	}
	current.RemainingSteps = update.RemainingSteps
	if update.TargetPerson != "" {
		current.TargetPerson = update.TargetPerson
	}
	if update.EntityData != nil {
		current.EntityData = update.EntityData
	}
	if update.ArticleNames != nil {
		current.ArticleNames = update.ArticleNames
	}
	return current, nil
}
