// Package adapter bridges external model APIs into the shapes the
// application works with.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

// chatCompleter is the slice of the OpenAI client that structured
// generation needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// StructuredClient generates responses constrained to a JSON schema,
// using the provider's native json_schema response format rather than
// prompt-level coaxing.
type StructuredClient struct {
	client chatCompleter
	model  string
}

// StructuredOption configures a StructuredClient.
type StructuredOption func(*structuredConfig)

type structuredConfig struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
}

// WithBaseURL overrides the API endpoint. Used in tests and for
// compatible proxies.
func WithBaseURL(url string) StructuredOption {
	return func(c *structuredConfig) { c.baseURL = url }
}

// WithProjectID scopes requests to a billing project.
func WithProjectID(id string) StructuredOption {
	return func(c *structuredConfig) { c.projectID = id }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) StructuredOption {
	return func(c *structuredConfig) { c.httpClient = client }
}

// NewStructuredClient creates a structured-output client for the given
// model.
func NewStructuredClient(apiKey, model string, opts ...StructuredOption) *StructuredClient {
	var cfg structuredConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}
	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.projectID != "" {
		httpClient = &http.Client{
			Transport: &projectHeaderTransport{
				projectID: cfg.projectID,
				inner:     httpClient.Transport,
			},
			Timeout: httpClient.Timeout,
		}
	}
	clientCfg.HTTPClient = httpClient

	return &StructuredClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Generate sends the messages and returns the model's JSON output, which
// the provider guarantees conforms to the schema.
func (c *StructuredClient) Generate(ctx context.Context, messages []llms.MessageContent, schemaName string, schema map[string]any) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal output schema: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: json.RawMessage(schemaJSON),
				Strict: false,
			},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("structured generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("structured generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateInto generates a structured response and unmarshals it into
// out.
func (c *StructuredClient) GenerateInto(ctx context.Context, messages []llms.MessageContent, schemaName string, schema map[string]any, out any) error {
	raw, err := c.Generate(ctx, messages, schemaName, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}
	return nil
}

// toOpenAIMessages converts langchaingo chat messages, keeping text
// parts only.
func toOpenAIMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case llms.ChatMessageTypeSystem:
			role = openai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			role = openai.ChatMessageRoleAssistant
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			role = openai.ChatMessageRoleUser
		}

		var text string
		for _, part := range m.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				if text != "" {
					text += "\n"
				}
				text += tc.Text
			}
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: text})
	}
	return out
}

// projectHeaderTransport adds the project scoping header to every
// request.
type projectHeaderTransport struct {
	projectID string
	inner     http.RoundTripper
}

func (t *projectHeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	inner := t.inner
	if inner == nil {
		inner = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("OpenAI-Project", t.projectID)
	return inner.RoundTrip(clone)
}
