package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// DefaultDuckDuckGoURL serves the JavaScript-free results page
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com"

const duckDuckGoUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// DuckDuckGoSearch scrapes the DuckDuckGo HTML results page
type DuckDuckGoSearch struct {
	client     *resty.Client
	normalizer *Normalizer
	logger     arbor.ILogger
}

var _ interfaces.SearchService = (*DuckDuckGoSearch)(nil)

// NewDuckDuckGoSearch creates a DuckDuckGo backend. An empty baseURL uses DefaultDuckDuckGoURL.
func NewDuckDuckGoSearch(baseURL string, timeout time.Duration, normalizer *Normalizer, logger arbor.ILogger) *DuckDuckGoSearch {
	if baseURL == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", duckDuckGoUserAgent)

	return &DuckDuckGoSearch{client: client, normalizer: normalizer, logger: logger}
}

// Search implements interfaces.SearchService
func (s *DuckDuckGoSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		Get("/html/")
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []models.SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if maxResults > 0 && len(results) >= maxResults {
			return false
		}
		if sel.HasClass("result--ad") {
			return true
		}

		link := sel.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		snippet, _ := sel.Find(".result__snippet").Html()

		results = append(results, models.SearchResult{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Content: s.normalizer.Content(snippet),
		})
		return true
	})

	s.logger.Debug().Str("query", query).Int("results", len(results)).Msg("DuckDuckGo search complete")
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
