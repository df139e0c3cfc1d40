// Package prompt loads chat prompt templates from YAML files. A prompt
// file is a list of [role, text] pairs; text uses f-string style {name}
// placeholders.
package prompt

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"gopkg.in/yaml.v3"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a chat prompt loaded from a YAML file.
type Template struct {
	chat           prompts.ChatPromptTemplate
	inputVariables []string
	messageCount   int
}

// FromFile reads a YAML prompt file and builds a chat template from its
// [role, text] rows.
func FromFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt file: %w", err)
	}
	tmpl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	return tmpl, nil
}

// Parse builds a chat template from YAML [role, text] rows.
func Parse(data []byte) (*Template, error) {
	var rows [][]string
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal prompt rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("prompt file has no messages")
	}

	seen := map[string]bool{}
	formatters := make([]prompts.MessageFormatter, 0, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("prompt row %d: expected [role, text] pair, got %d items", i, len(row))
		}
		role, text := row[0], row[1]
		vars := extractVariables(text)
		for _, v := range vars {
			seen[v] = true
		}

		p := prompts.PromptTemplate{
			Template:       text,
			InputVariables: vars,
			TemplateFormat: prompts.TemplateFormatFString,
		}
		switch strings.ToLower(role) {
		case "system":
			formatters = append(formatters, prompts.SystemMessagePromptTemplate{Prompt: p})
		case "human", "user":
			formatters = append(formatters, prompts.HumanMessagePromptTemplate{Prompt: p})
		case "ai", "assistant":
			formatters = append(formatters, prompts.AIMessagePromptTemplate{Prompt: p})
		default:
			return nil, fmt.Errorf("prompt row %d: unknown role %q", i, role)
		}
	}

	inputVars := make([]string, 0, len(seen))
	for v := range seen {
		inputVars = append(inputVars, v)
	}
	sort.Strings(inputVars)

	return &Template{
		chat:           prompts.NewChatPromptTemplate(formatters),
		inputVariables: inputVars,
		messageCount:   len(formatters),
	}, nil
}

// InputVariables returns the placeholder names the template expects,
// sorted alphabetically.
func (t *Template) InputVariables() []string {
	return t.inputVariables
}

// MessageCount returns the number of messages in the template.
func (t *Template) MessageCount() int {
	return t.messageCount
}

// Format renders the template with the given values into chat messages.
// Every input variable must be present in values.
func (t *Template) Format(values map[string]any) ([]llms.MessageContent, error) {
	for _, v := range t.inputVariables {
		if _, ok := values[v]; !ok {
			return nil, fmt.Errorf("missing prompt variable %q", v)
		}
	}
	chatMessages, err := t.chat.FormatMessages(values)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}

	out := make([]llms.MessageContent, 0, len(chatMessages))
	for _, m := range chatMessages {
		out = append(out, llms.MessageContent{
			Role:  m.GetType(),
			Parts: []llms.ContentPart{llms.TextContent{Text: m.GetContent()}},
		})
	}
	return out, nil
}

// extractVariables pulls {name} placeholders out of f-string text,
// ignoring escaped {{ and }} braces.
func extractVariables(text string) []string {
	cleaned := strings.ReplaceAll(text, "{{", "")
	cleaned = strings.ReplaceAll(cleaned, "}}", "")

	seen := map[string]bool{}
	var vars []string
	for _, m := range placeholderRe.FindAllStringSubmatch(cleaned, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}
