// Package search provides the web search backends used by the intelligence stage.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/services/llm"
)

// ErrMissingAPIKey is returned when a keyed backend has no API key
var ErrMissingAPIKey = errors.New("search API key is not set")

// NewSearchService creates a search service based on configuration
// Supported providers:
//   - "gemini": Gemini with Google Search grounding (default)
//   - "tavily": Tavily search API
//   - "duckduckgo": DuckDuckGo HTML results, no key required
//   - "disabled": every search fails with ErrSearchDisabled
func NewSearchService(cfg *common.Config, generator llm.Generator, logger arbor.ILogger) (interfaces.SearchService, error) {
	normalizer := NewNormalizer(cfg.Search.MaxContentChars)
	timeout := common.ParseDuration(cfg.Search.Timeout, 30*time.Second)

	provider := strings.ToLower(strings.TrimSpace(cfg.Search.Provider))
	switch provider {
	case "gemini", "":
		logger.Debug().Str("provider", "gemini").Msg("Initializing grounded search")
		return NewGeminiSearch(generator, cfg.Gemini.Model, normalizer, logger), nil

	case "tavily":
		apiKey, err := common.ResolveAPIKey("tavily", cfg.Search.APIKey)
		if err != nil {
			return nil, fmt.Errorf("tavily search: %w", ErrMissingAPIKey)
		}
		logger.Debug().Str("provider", "tavily").Msg("Initializing Tavily search")
		return NewTavilySearch(apiKey, cfg.Search.BaseURL, timeout, normalizer, logger), nil

	case "duckduckgo":
		logger.Debug().Str("provider", "duckduckgo").Msg("Initializing DuckDuckGo search")
		return NewDuckDuckGoSearch(cfg.Search.BaseURL, timeout, normalizer, logger), nil

	case "disabled":
		logger.Warn().Msg("Web search disabled via configuration")
		return NewDisabledSearchService(logger), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s", provider)
	}
}
