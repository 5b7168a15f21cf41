package search

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/llm"
)

const groundedSystemPrompt = "You are a financial research assistant. Use Google Search to answer with recent, factual, sourced information. Quote figures exactly as reported."

// GeminiSearch answers queries with Gemini grounded on Google Search.
// The answer is the first result; grounding sources follow as titled URLs.
type GeminiSearch struct {
	generator  llm.Generator
	model      string
	normalizer *Normalizer
	logger     arbor.ILogger
}

var _ interfaces.SearchService = (*GeminiSearch)(nil)

// NewGeminiSearch creates a grounded search backend
func NewGeminiSearch(generator llm.Generator, model string, normalizer *Normalizer, logger arbor.ILogger) *GeminiSearch {
	return &GeminiSearch{generator: generator, model: model, normalizer: normalizer, logger: logger}
}

// Search implements interfaces.SearchService
func (s *GeminiSearch) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	resp, err := s.generator.GenerateContent(ctx, &llm.ContentRequest{
		Messages: []interfaces.Message{{
			Role:    "user",
			Content: fmt.Sprintf("Search the web and summarise the most relevant findings for: %s", query),
		}},
		Model:             s.model,
		SystemInstruction: groundedSystemPrompt,
		GoogleSearch:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("grounded search failed: %w", err)
	}

	answer := models.SearchResult{
		Title:   "Search summary: " + query,
		Content: s.normalizer.Content(resp.Text),
	}
	if len(resp.Citations) > 0 {
		answer.URL = resp.Citations[0].URL
	}
	results := []models.SearchResult{answer}

	for _, c := range resp.Citations {
		if maxResults > 0 && len(results) >= maxResults {
			break
		}
		results = append(results, models.SearchResult{Title: c.Title, URL: c.URL})
	}

	s.logger.Debug().
		Str("query", query).
		Int("citations", len(resp.Citations)).
		Msg("Grounded search complete")
	return results, nil
}
