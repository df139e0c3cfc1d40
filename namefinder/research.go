package namefinder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/illation/wikisearch/adapter/mcp"
	"github.com/illation/wikisearch/log"
)

// StructuredGenerator produces schema-constrained structured output from
// a conversation.
type StructuredGenerator interface {
	GenerateInto(ctx context.Context, messages []llms.MessageContent, schemaName string, schema map[string]any, out any) error
}

// Researcher runs the tool-calling loop for one research conversation.
type Researcher struct {
	model    llms.Model
	registry *mcp.Registry
	logger   log.Logger
}

// NewResearcher creates a researcher over the given model and tool
// registry.
func NewResearcher(model llms.Model, registry *mcp.Registry, logger log.Logger) *Researcher {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &Researcher{
		model:    model,
		registry: registry,
		logger:   logger,
	}
}

// Run drives the model against the tools until it stops requesting tool
// calls or the step budget runs out. It returns all messages generated
// after the input prompt, plus the number of steps left.
func (r *Researcher) Run(ctx context.Context, prompt []llms.MessageContent, remainingSteps int) ([]llms.MessageContent, int, error) {
	toolDefs := r.toolDefinitions()
	conversation := append([]llms.MessageContent{}, prompt...)
	var generated []llms.MessageContent

	for {
		resp, err := r.model.GenerateContent(ctx, conversation, llms.WithTools(toolDefs))
		if err != nil {
			return nil, remainingSteps, fmt.Errorf("model call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, remainingSteps, fmt.Errorf("model returned no choices")
		}
		choice := resp.Choices[0]

		aiMsg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			aiMsg.Parts = append(aiMsg.Parts, llms.TextPart(choice.Content))
		}
		for _, tc := range choice.ToolCalls {
			aiMsg.Parts = append(aiMsg.Parts, tc)
		}
		conversation = append(conversation, aiMsg)
		generated = append(generated, aiMsg)

		if len(choice.ToolCalls) == 0 {
			return generated, remainingSteps, nil
		}
		if remainingSteps <= 0 {
			return generated, 0, ErrStepBudgetExhausted
		}
		remainingSteps--

		toolMessages := r.executeToolCalls(ctx, choice.ToolCalls)
		conversation = append(conversation, toolMessages...)
		generated = append(generated, toolMessages...)
	}
}

// executeToolCalls dispatches the requested tool calls through the
// registry. Tool failures become tool messages so the model can react to
// them.
func (r *Researcher) executeToolCalls(ctx context.Context, toolCalls []llms.ToolCall) []llms.MessageContent {
	var toolMessages []llms.MessageContent
	for _, tc := range toolCalls {
		result, err := r.dispatch(ctx, tc)
		if err != nil {
			r.logger.Warn("tool %q failed: %v", tc.FunctionCall.Name, err)
			result = fmt.Sprintf("Error: %v", err)
		}

		toolMessages = append(toolMessages, llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    result,
				},
			},
		})
	}
	return toolMessages
}

func (r *Researcher) dispatch(ctx context.Context, tc llms.ToolCall) (string, error) {
	tool, err := r.registry.Get(tc.FunctionCall.Name)
	if err != nil {
		return "", err
	}

	input := tc.FunctionCall.Arguments
	r.logger.Debug("calling tool %q", tc.FunctionCall.Name)

	// Tools that publish their own argument schema take the model's JSON
	// arguments unmodified.
	if argumentSchema(tool) != nil {
		return tool.Call(ctx, input)
	}

	// Single-input tools get the "input" value unwrapped.
	var args map[string]any
	if err := json.Unmarshal([]byte(input), &args); err == nil {
		if val, ok := args["input"].(string); ok {
			input = val
		}
	}
	return tool.Call(ctx, input)
}

// argumentSchema returns the tool's published argument schema, or nil
// for plain single-input tools.
func argumentSchema(tool tools.Tool) map[string]any {
	st, ok := tool.(mcp.SchemaTool)
	if !ok {
		return nil
	}
	return st.ArgumentSchema()
}

// toolDefinitions converts the registered tools into model-facing tool
// declarations: the tool's own argument schema when it publishes one,
// otherwise a single input string.
func (r *Researcher) toolDefinitions() []llms.Tool {
	var toolDefs []llms.Tool
	for _, t := range r.registry.All() {
		params := argumentSchema(t)
		if params == nil {
			params = map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": map[string]any{
						"type":        "string",
						"description": "The input query for the tool",
					},
				},
				"required":             []string{"input"},
				"additionalProperties": false,
			}
		}
		toolDefs = append(toolDefs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  params,
			},
		})
	}
	return toolDefs
}
