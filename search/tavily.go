package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tripmesh/tripmesh/core"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// TavilyOptions configures the Tavily search client.
type TavilyOptions struct {
	BaseURL    string
	MaxResults int
	HTTPClient *http.Client
}

// TavilyClient implements Searcher on the Tavily Search API. The raw decoded
// response (a mapping with a "results" list and optionally an "answer"
// field) is returned unchanged; normalization happens in the Adapter.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
}

// NewTavilyClient constructs a Tavily search client. An empty apiKey is
// allowed; every call then fails with core.ErrToolUnavailable so the Adapter
// degrades gracefully.
func NewTavilyClient(apiKey string, optFns ...func(o *TavilyOptions)) *TavilyClient {
	opts := TavilyOptions{
		BaseURL:    defaultTavilyURL,
		MaxResults: 5,
		HTTPClient: http.DefaultClient,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		maxResults: opts.MaxResults,
		httpClient: opts.HTTPClient,
	}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search implements Searcher.
func (c *TavilyClient) Search(ctx context.Context, query string, depth Depth) (any, error) {
	if c.apiKey == "" {
		return nil, core.ErrToolUnavailable
	}

	searchDepth := "basic"
	if depth == DepthDeep {
		searchDepth = "advanced"
	}

	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   searchDepth,
		MaxResults:    c.maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, snippet)
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return raw, nil
}
