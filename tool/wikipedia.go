// Package tool provides built-in tools backed by public web APIs. They
// serve as the fallback tool set when no MCP server is configured.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultSearchBaseURL  = "https://en.wikipedia.org/w/rest.php/v1/search/page"
	defaultArticleBaseURL = "https://en.wikipedia.org/api/rest_v1/page/html"
	wikiPageURLPrefix     = "https://en.wikipedia.org/wiki/"
)

// WikipediaSearch is a tool that searches Wikipedia page titles.
type WikipediaSearch struct {
	BaseURL     string
	Limit       int
	AccessToken string
	Client      *http.Client
}

type WikipediaOption func(*wikipediaConfig)

type wikipediaConfig struct {
	searchBaseURL  string
	articleBaseURL string
	limit          int
	accessToken    string
	client         *http.Client
}

// WithSearchBaseURL sets the base URL for the search endpoint.
func WithSearchBaseURL(baseURL string) WikipediaOption {
	return func(c *wikipediaConfig) {
		c.searchBaseURL = baseURL
	}
}

// WithArticleBaseURL sets the base URL for the article HTML endpoint.
func WithArticleBaseURL(baseURL string) WikipediaOption {
	return func(c *wikipediaConfig) {
		c.articleBaseURL = baseURL
	}
}

// WithSearchLimit sets the number of search results to return (1-50).
func WithSearchLimit(limit int) WikipediaOption {
	return func(c *wikipediaConfig) {
		if limit < 1 {
			limit = 1
		}
		if limit > 50 {
			limit = 50
		}
		c.limit = limit
	}
}

// WithAccessToken sets a Wikimedia API access token for elevated rate
// limits.
func WithAccessToken(token string) WikipediaOption {
	return func(c *wikipediaConfig) {
		c.accessToken = token
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) WikipediaOption {
	return func(c *wikipediaConfig) {
		c.client = client
	}
}

func newWikipediaConfig(opts []WikipediaOption) *wikipediaConfig {
	c := &wikipediaConfig{
		searchBaseURL:  defaultSearchBaseURL,
		articleBaseURL: defaultArticleBaseURL,
		limit:          10,
		client:         &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWikipediaSearch creates a new WikipediaSearch tool.
func NewWikipediaSearch(opts ...WikipediaOption) *WikipediaSearch {
	c := newWikipediaConfig(opts)
	return &WikipediaSearch{
		BaseURL:     c.searchBaseURL,
		Limit:       c.limit,
		AccessToken: c.accessToken,
		Client:      c.client,
	}
}

// Name returns the name of the tool.
func (w *WikipediaSearch) Name() string {
	return "search_wikipedia"
}

// Description returns the description of the tool.
func (w *WikipediaSearch) Description() string {
	return "Searches Wikipedia for articles matching a query. " +
		"Returns a numbered list of matching article titles with short descriptions. " +
		"Input should be a search query, for example a person's name."
}

// Call executes the search.
func (w *WikipediaSearch) Call(ctx context.Context, input string) (string, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(input))
	params.Set("limit", fmt.Sprintf("%d", w.Limit))

	reqURL := fmt.Sprintf("%s?%s", w.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if w.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.AccessToken)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia search returned status: %d", resp.StatusCode)
	}

	var result struct {
		Pages []struct {
			Key         string `json:"key"`
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var sb strings.Builder
	for i, page := range result.Pages {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\nURL: %s%s\nDescription: %s\n\n",
			i+1, page.Title, wikiPageURLPrefix, page.Key, page.Description))
	}
	if sb.Len() == 0 {
		return "No results found", nil
	}
	return sb.String(), nil
}

// WikipediaArticle is a tool that fetches the text of a Wikipedia
// article, with inline links preserved as URLs.
type WikipediaArticle struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

// NewWikipediaArticle creates a new WikipediaArticle tool.
func NewWikipediaArticle(opts ...WikipediaOption) *WikipediaArticle {
	c := newWikipediaConfig(opts)
	return &WikipediaArticle{
		BaseURL:     c.articleBaseURL,
		AccessToken: c.accessToken,
		Client:      c.client,
	}
}

// Name returns the name of the tool.
func (w *WikipediaArticle) Name() string {
	return "get_article"
}

// Description returns the description of the tool.
func (w *WikipediaArticle) Description() string {
	return "Fetches the full text of a Wikipedia article. " +
		"Inline links to other articles are kept as URLs next to the linked text. " +
		"Input should be the exact article title."
}

// Call fetches and extracts the article text.
func (w *WikipediaArticle) Call(ctx context.Context, input string) (string, error) {
	title := strings.ReplaceAll(strings.TrimSpace(input), " ", "_")
	if title == "" {
		return "", fmt.Errorf("article title is empty")
	}

	reqURL := fmt.Sprintf("%s/%s", w.BaseURL, url.PathEscape(title))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if w.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.AccessToken)
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("no article with title %q", input)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia article fetch returned status: %d", resp.StatusCode)
	}

	return extractArticleText(resp)
}

// extractArticleText sanitizes the article HTML and flattens its
// paragraphs to text, rewriting inline article links as "text (url)".
func extractArticleText(resp *http.Response) (string, error) {
	policy := bluemonday.UGCPolicy()
	policy.AllowRelativeURLs(true)
	sanitized := policy.SanitizeReader(resp.Body)

	doc, err := goquery.NewDocumentFromReader(sanitized)
	if err != nil {
		return "", fmt.Errorf("failed to parse article html: %w", err)
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		s.SetText(fmt.Sprintf("%s (%s)", text, absoluteWikiURL(href)))
	})

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return "Article has no readable text", nil
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// absoluteWikiURL resolves the relative "./Title" hrefs the article HTML
// endpoint emits.
func absoluteWikiURL(href string) string {
	if strings.HasPrefix(href, "./") {
		return wikiPageURLPrefix + strings.TrimPrefix(href, "./")
	}
	if strings.HasPrefix(href, "/wiki/") {
		return "https://en.wikipedia.org" + href
	}
	return href
}
