package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// DefaultTavilyURL is the Tavily API base URL
const DefaultTavilyURL = "https://api.tavily.com"

type tavilyRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		Content    string  `json:"content"`
		RawContent string  `json:"raw_content"`
		Score      float64 `json:"score"`
	} `json:"results"`
}

// TavilySearch queries the Tavily search API
type TavilySearch struct {
	client     *resty.Client
	normalizer *Normalizer
	logger     arbor.ILogger
}

var _ interfaces.SearchService = (*TavilySearch)(nil)

// NewTavilySearch creates a Tavily backend. An empty baseURL uses DefaultTavilyURL.
func NewTavilySearch(apiKey, baseURL string, timeout time.Duration, normalizer *Normalizer, logger arbor.ILogger) *TavilySearch {
	if baseURL == "" {
		baseURL = DefaultTavilyURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &TavilySearch{client: client, normalizer: normalizer, logger: logger}
}

// Search implements interfaces.SearchService
func (s *TavilySearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	var out tavilyResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{
			Query:       query,
			SearchDepth: "advanced",
			MaxResults:  maxResults,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tavily API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	results := make([]models.SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		content := r.Content
		if content == "" {
			content = r.RawContent
		}
		results = append(results, models.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: s.normalizer.Content(content),
		})
	}

	s.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Tavily search complete")
	return results, nil
}
