package search

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/models"
)

// ErrSearchDisabled is returned when search functionality is unavailable
var ErrSearchDisabled = errors.New("web search is disabled in configuration")

// DisabledSearchService fails every search so stages fall back to empty context
type DisabledSearchService struct {
	logger arbor.ILogger
}

// NewDisabledSearchService creates a disabled search service
func NewDisabledSearchService(logger arbor.ILogger) *DisabledSearchService {
	return &DisabledSearchService{logger: logger}
}

// Search implements interfaces.SearchService
func (s *DisabledSearchService) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	s.logger.Debug().Str("query", query).Msg("Search skipped: disabled")
	return nil, ErrSearchDisabled
}
