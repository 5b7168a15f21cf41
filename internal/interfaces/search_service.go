package interfaces

import (
	"context"

	"github.com/ternarybob/mgp/internal/models"
)

// SearchService runs web searches for the intelligence stage.
type SearchService interface {
	// Search returns at most maxResults results. Content is normalised to
	// plain text or markdown.
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)
}
