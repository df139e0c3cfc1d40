// Package secrets fetches API credentials from the operating system
// credential store.
package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrMissingLLMKey is returned when the credential store has no LLM API
// key. Nothing useful can run without one.
var ErrMissingLLMKey = errors.New("no LLM API key in credential store")

// Service names under which credentials are registered.
const (
	tracingService = "net.illation.wikisearch/langsmith"
	llmService     = "net.illation.wikisearch/openai"
	wikiService    = "net.illation.wikisearch/wikimedia"
)

// Account names within each service.
const (
	apiKeyAccount    = "api-key"
	projectIDAccount = "project-id"
)

// ApplicationSecrets holds the credentials the application uses. Empty
// fields mean the credential was not found; only the LLM key is required.
type ApplicationSecrets struct {
	// TracingAPIKey authenticates against the remote trace collector.
	TracingAPIKey string
	// LLMAPIKey authenticates against the LLM provider.
	LLMAPIKey string
	// LLMProjectID scopes LLM usage to a billing project, when set.
	LLMProjectID string
	// WikiAccessToken authorizes elevated Wikimedia API rate limits.
	WikiAccessToken string
}

// Names returns the names of the credentials that were found, for
// logging without exposing values.
func (s ApplicationSecrets) Names() []string {
	var names []string
	if s.TracingAPIKey != "" {
		names = append(names, "tracing_api_key")
	}
	if s.LLMAPIKey != "" {
		names = append(names, "llm_api_key")
	}
	if s.LLMProjectID != "" {
		names = append(names, "llm_project_id")
	}
	if s.WikiAccessToken != "" {
		names = append(names, "wiki_access_token")
	}
	return names
}

// Fetch reads all application credentials from the credential store.
// Absent optional credentials leave their field empty; an absent LLM key
// is an error because no agent call can succeed without it.
func Fetch() (ApplicationSecrets, error) {
	var s ApplicationSecrets

	llmKey, err := lookup(llmService, apiKeyAccount)
	if err != nil {
		return s, err
	}
	if llmKey == "" {
		return s, ErrMissingLLMKey
	}
	s.LLMAPIKey = llmKey

	if s.TracingAPIKey, err = lookup(tracingService, apiKeyAccount); err != nil {
		return s, err
	}
	if s.LLMProjectID, err = lookup(llmService, projectIDAccount); err != nil {
		return s, err
	}
	if s.WikiAccessToken, err = lookup(wikiService, apiKeyAccount); err != nil {
		return s, err
	}
	return s, nil
}

// WikiToken reads only the optional Wikimedia access token. Tools that
// do not need an LLM can work unauthenticated when it is absent.
func WikiToken() string {
	token, err := lookup(wikiService, apiKeyAccount)
	if err != nil {
		return ""
	}
	return token
}

// lookup reads one credential, mapping not-found to an empty string.
func lookup(service, account string) (string, error) {
	value, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read credential %s/%s: %w", service, account, err)
	}
	return value, nil
}
