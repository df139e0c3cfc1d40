package namefinder

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/prompt"
	"github.com/illation/wikisearch/runstore"
	"github.com/illation/wikisearch/schemas"
)

// MockLLM implements llms.Model for testing
type MockLLM struct {
	responses []llms.ContentResponse
	callCount int
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.callCount >= len(m.responses) {
		return &llms.ContentResponse{
			Choices: []*llms.ContentChoice{
				{Content: "No more responses"},
			},
		}, nil
	}
	resp := m.responses[m.callCount]
	m.callCount++
	return &resp, nil
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

// recordingTool echoes a fixed payload and records its inputs
type recordingTool struct {
	name    string
	payload string
	inputs  []string
}

func (t *recordingTool) Name() string        { return t.name }
func (t *recordingTool) Description() string { return "test tool" }
func (t *recordingTool) Call(ctx context.Context, input string) (string, error) {
	t.inputs = append(t.inputs, input)
	return t.payload, nil
}

// schemaTool is a recordingTool that publishes an argument schema, like
// tools discovered over MCP
type schemaTool struct {
	recordingTool
	schema map[string]any
}

func (t *schemaTool) ArgumentSchema() map[string]any { return t.schema }

// fakeStructured fills outputs from canned JSON keyed by schema name
type fakeStructured struct {
	outputs  map[string]string
	messages map[string][]llms.MessageContent
}

func (f *fakeStructured) GenerateInto(ctx context.Context, messages []llms.MessageContent, schemaName string, schema map[string]any, out any) error {
	if f.messages == nil {
		f.messages = map[string][]llms.MessageContent{}
	}
	f.messages[schemaName] = messages

	raw, ok := f.outputs[schemaName]
	if !ok {
		return errors.New("no canned output for " + schemaName)
	}
	return json.Unmarshal([]byte(raw), out)
}

func toolCallResponse(name string) llms.ContentResponse {
	return llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call-1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      name,
					Arguments: `{"input": "Kitty Dukakis"}`,
				},
			}},
		}},
	}
}

func finalResponse(content string) llms.ContentResponse {
	return llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

func testPrompts(t *testing.T) (*prompt.Template, *prompt.Template) {
	t.Helper()
	research, err := prompt.Parse([]byte(`
- - system
  - You research people. {format_instructions}
- - human
  - Research {person}.
`))
	require.NoError(t, err)

	locator, err := prompt.Parse([]byte(`
- - system
  - Extract every person name from the text.
- - human
  - '{all_docs}'
`))
	require.NoError(t, err)
	return research, locator
}

const personInfoJSON = `{
	"birth_name": "Katharine Dickson",
	"best_known_as": "Kitty Dukakis",
	"alternate_names": [],
	"best_known_for": "Author and former First Lady of Massachusetts.",
	"is_real": true,
	"is_human": true,
	"birth_year": 1936,
	"birth_month": null,
	"birth_day": null,
	"assigned_gender_at_birth": "Female",
	"gender_identity": "Female",
	"continent_of_origin": "North America",
	"country_of_origin": "United States",
	"locality_of_origin": "Cambridge"
}`

const articleNamesJSON = `{
	"names": [
		{"name": "Michael Dukakis", "relationship": "husband", "url": "https://en.wikipedia.org/wiki/Michael_Dukakis"},
		{"name": "Harry Ellis Dickson", "relationship": "father", "url": null},
		{"name": "Jinny Peters", "relationship": null, "url": null}
	]
}`

func newTestNodes(t *testing.T, model llms.Model, structured StructuredGenerator, tools ...*recordingTool) *Nodes {
	t.Helper()
	registry := mcp.NewRegistry()
	for _, tool := range tools {
		require.NoError(t, registry.Register(tool))
	}
	research, locator := testPrompts(t)
	return NewNodes(NewResearcher(model, registry, nil), structured, research, locator, nil)
}

func TestResearcher_StopsWithoutToolCalls(t *testing.T) {
	model := &MockLLM{responses: []llms.ContentResponse{finalResponse("done")}}
	r := NewResearcher(model, mcp.NewRegistry(), nil)

	generated, remaining, err := r.Run(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, llms.ChatMessageTypeAI, generated[0].Role)
}

func TestResearcher_ExecutesToolsAndDecrementsBudget(t *testing.T) {
	wiki := &recordingTool{name: "search_wikipedia", payload: "search results"}
	model := &MockLLM{responses: []llms.ContentResponse{
		toolCallResponse("search_wikipedia"),
		finalResponse("done"),
	}}
	registry := mcp.NewRegistry()
	require.NoError(t, registry.Register(wiki))

	r := NewResearcher(model, registry, nil)
	generated, remaining, err := r.Run(context.Background(), nil, 5)
	require.NoError(t, err)

	assert.Equal(t, 4, remaining)
	assert.Equal(t, []string{"Kitty Dukakis"}, wiki.inputs)

	// AI tool call, tool result, final AI answer
	require.Len(t, generated, 3)
	assert.Equal(t, llms.ChatMessageTypeAI, generated[0].Role)
	assert.Equal(t, llms.ChatMessageTypeTool, generated[1].Role)
	resp, ok := generated[1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "search results", resp.Content)
	assert.Equal(t, llms.ChatMessageTypeAI, generated[2].Role)
}

func TestResearcher_BudgetExhausted(t *testing.T) {
	wiki := &recordingTool{name: "search_wikipedia", payload: "more results"}
	model := &MockLLM{responses: []llms.ContentResponse{
		toolCallResponse("search_wikipedia"),
		toolCallResponse("search_wikipedia"),
	}}
	registry := mcp.NewRegistry()
	require.NoError(t, registry.Register(wiki))

	r := NewResearcher(model, registry, nil)
	_, remaining, err := r.Run(context.Background(), nil, 1)
	assert.True(t, errors.Is(err, ErrStepBudgetExhausted))
	assert.Equal(t, 0, remaining)
}

func TestResearcher_SchemaToolGetsRawArguments(t *testing.T) {
	article := &schemaTool{
		recordingTool: recordingTool{name: "get_article", payload: "article text"},
		schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"title": map[string]any{"type": "string"}},
			"required":   []any{"title"},
		},
	}
	model := &MockLLM{responses: []llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call-1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "get_article",
					Arguments: `{"title": "Kitty Dukakis"}`,
				},
			}},
		}}},
		finalResponse("done"),
	}}
	registry := mcp.NewRegistry()
	require.NoError(t, registry.Register(article))

	r := NewResearcher(model, registry, nil)
	_, _, err := r.Run(context.Background(), nil, 5)
	require.NoError(t, err)

	// The model's arguments reach the tool as-is, never rewrapped
	require.Len(t, article.inputs, 1)
	assert.JSONEq(t, `{"title": "Kitty Dukakis"}`, article.inputs[0])
}

func TestResearcher_AdvertisesPublishedSchemas(t *testing.T) {
	article := &schemaTool{
		recordingTool: recordingTool{name: "get_article"},
		schema: map[string]any{
			"type":     "object",
			"required": []any{"title"},
		},
	}
	search := &recordingTool{name: "search_wikipedia"}
	registry := mcp.NewRegistry()
	require.NoError(t, registry.Register(article))
	require.NoError(t, registry.Register(search))

	r := NewResearcher(&MockLLM{}, registry, nil)
	defs := r.toolDefinitions()
	require.Len(t, defs, 2)

	// Tools come back in name order: get_article, search_wikipedia
	assert.Equal(t, article.schema, defs[0].Function.Parameters)

	params, ok := defs[1].Function.Parameters.(map[string]any)
	require.True(t, ok)
	props, ok := params["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "input")
}

func TestResearcher_UnknownToolBecomesErrorMessage(t *testing.T) {
	model := &MockLLM{responses: []llms.ContentResponse{
		toolCallResponse("no_such_tool"),
		finalResponse("done"),
	}}
	r := NewResearcher(model, mcp.NewRegistry(), nil)

	generated, _, err := r.Run(context.Background(), nil, 5)
	require.NoError(t, err)

	resp, ok := generated[1].Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Contains(t, resp.Content, "unknown tool")
}

func TestResearchEntity_ProducesEntityData(t *testing.T) {
	wiki := &recordingTool{name: "search_wikipedia", payload: "article text about Kitty Dukakis"}
	model := &MockLLM{responses: []llms.ContentResponse{
		toolCallResponse("search_wikipedia"),
		finalResponse("summary"),
	}}
	structured := &fakeStructured{outputs: map[string]string{"person_info": personInfoJSON}}
	nodes := newTestNodes(t, model, structured, wiki)

	update, err := nodes.ResearchEntity(context.Background(), NameFinderState{
		TargetPerson:   "Kitty Dukakis",
		RemainingSteps: 10,
	})
	require.NoError(t, err)

	require.NotNil(t, update.EntityData)
	assert.Equal(t, "Kitty Dukakis", update.EntityData.BestKnownAs)
	require.NotNil(t, update.EntityData.BirthYear)
	assert.Equal(t, 1936, *update.EntityData.BirthYear)
	assert.Equal(t, 9, update.RemainingSteps)

	// Transcript includes prompt, tool exchange, and final answer
	require.NotEmpty(t, update.Messages)
	assert.Equal(t, llms.ChatMessageTypeSystem, update.Messages[0].Role)

	// Person name was interpolated into the prompt
	human := update.Messages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, human, "Kitty Dukakis")
}

func TestResearchEntity_RequiresTarget(t *testing.T) {
	nodes := newTestNodes(t, &MockLLM{}, &fakeStructured{})
	_, err := nodes.ResearchEntity(context.Background(), NameFinderState{})
	require.Error(t, err)
}

func TestLocateNames_RequiresResearch(t *testing.T) {
	nodes := newTestNodes(t, &MockLLM{}, &fakeStructured{})

	_, err := nodes.LocateNames(context.Background(), NameFinderState{TargetPerson: "Kitty Dukakis"})
	require.Error(t, err)

	var incomplete *ResearchIncompleteError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, "Kitty Dukakis", incomplete.Person)
	assert.Equal(t, NodeNamesFinder, incomplete.Stage)
}

func TestLocateNames_JoinsToolResults(t *testing.T) {
	structured := &fakeStructured{outputs: map[string]string{"article_names": articleNamesJSON}}
	nodes := newTestNodes(t, &MockLLM{}, structured)

	state := NameFinderState{
		TargetPerson:   "Kitty Dukakis",
		RemainingSteps: 7,
		EntityData:     &schemas.PersonInfo{BestKnownAs: "Kitty Dukakis"},
		Messages: []llms.MessageContent{
			{Role: llms.ChatMessageTypeAI, Parts: []llms.ContentPart{llms.TextPart("thinking")}},
			{Role: llms.ChatMessageTypeTool, Parts: []llms.ContentPart{
				llms.ToolCallResponse{ToolCallID: "1", Name: "search_wikipedia", Content: "first article"},
			}},
			{Role: llms.ChatMessageTypeTool, Parts: []llms.ContentPart{
				llms.ToolCallResponse{ToolCallID: "2", Name: "get_article", Content: "second article"},
			}},
		},
	}

	update, err := nodes.LocateNames(context.Background(), state)
	require.NoError(t, err)

	require.NotNil(t, update.ArticleNames)
	require.Len(t, update.ArticleNames.Names, 3)
	assert.Equal(t, "Michael Dukakis", update.ArticleNames.Names[0].Name)
	assert.Nil(t, update.ArticleNames.Names[2].Relationship)
	assert.Equal(t, 7, update.RemainingSteps)

	// Only tool messages reach the locator prompt, joined in order
	locatorMessages := structured.messages["article_names"]
	require.Len(t, locatorMessages, 2)
	human := locatorMessages[1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, human, "first article\nsecond article")
	assert.NotContains(t, human, "thinking")
}

func TestGraph_ResearcherRunsBeforeLocator(t *testing.T) {
	wiki := &recordingTool{name: "search_wikipedia", payload: "alpha"}
	model := &MockLLM{responses: []llms.ContentResponse{
		toolCallResponse("search_wikipedia"),
		finalResponse("beta"),
	}}
	structured := &fakeStructured{outputs: map[string]string{
		"person_info":   personInfoJSON,
		"article_names": articleNamesJSON,
	}}
	nodes := newTestNodes(t, model, structured, wiki)

	store := runstore.NewMemoryStore()
	runnable, runID, err := BuildGraph(GraphConfig{Nodes: nodes, Store: store})
	require.NoError(t, err)

	finalState, err := runnable.Invoke(context.Background(), NameFinderState{
		TargetPerson:   "Kitty Dukakis",
		RemainingSteps: 20,
	})
	require.NoError(t, err)

	require.NotNil(t, finalState.EntityData)
	require.NotNil(t, finalState.ArticleNames)
	assert.Equal(t, 19, finalState.RemainingSteps)

	// The locator saw the researcher's tool output
	human := structured.messages["article_names"][1].Parts[0].(llms.TextContent).Text
	assert.Contains(t, human, "alpha")

	// The researcher's final answer came after the tool round
	var texts []string
	for _, m := range finalState.Messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				texts = append(texts, tc.Text)
			}
			if tr, ok := p.(llms.ToolCallResponse); ok {
				texts = append(texts, tr.Content)
			}
		}
	}
	require.NotEmpty(t, texts)
	alphaIdx, betaIdx := -1, -1
	for i, text := range texts {
		if text == "alpha" {
			alphaIdx = i
		}
		if text == "beta" {
			betaIdx = i
		}
	}
	require.GreaterOrEqual(t, alphaIdx, 0)
	require.Greater(t, betaIdx, alphaIdx)

	// One snapshot per node, in execution order
	snapshots, err := store.List(context.Background(), runID)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, NodeEntityResearcher, snapshots[0].NodeName)
	assert.Equal(t, NodeNamesFinder, snapshots[1].NodeName)
	assert.Equal(t, "Kitty Dukakis", snapshots[0].Person)
}

func TestStateSchema_MergesUpdates(t *testing.T) {
	schema := StateSchema()

	current := schema.Init()
	current.TargetPerson = "Kitty Dukakis"
	current.RemainingSteps = 20
	current.Messages = []llms.MessageContent{
		{Role: llms.ChatMessageTypeHuman, Parts: []llms.ContentPart{llms.TextPart("hi")}},
	}

	merged, err := schema.Update(current, NameFinderState{
		Messages: []llms.MessageContent{
			{Role: llms.ChatMessageTypeAI, Parts: []llms.ContentPart{llms.TextPart("hello")}},
		},
		RemainingSteps: 19,
		EntityData:     &schemas.PersonInfo{BestKnownAs: "Kitty Dukakis"},
	})
	require.NoError(t, err)

	assert.Len(t, merged.Messages, 2)
	assert.Equal(t, 19, merged.RemainingSteps)
	assert.Equal(t, "Kitty Dukakis", merged.TargetPerson)
	require.NotNil(t, merged.EntityData)
	assert.Nil(t, merged.ArticleNames)

	// An exactly exhausted budget merges as zero, not as the old value
	merged, err = schema.Update(merged, NameFinderState{RemainingSteps: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, merged.RemainingSteps)
}

func TestDefaultWorkDir(t *testing.T) {
	t.Setenv("USER", "heather")
	dir := DefaultWorkDir()
	assert.Contains(t, dir, "heather")
	assert.NotEmpty(t, dir)
}
