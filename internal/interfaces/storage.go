package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/mgp/internal/models"
)

// ErrNotFound is returned when a record or key is not in the store
var ErrNotFound = errors.New("not found")

// RunStorage persists per-ticker analysis results
type RunStorage interface {
	SaveRun(ctx context.Context, record *models.RunRecord) error

	// GetLatestRun returns the newest record for ticker, or ErrNotFound
	GetLatestRun(ctx context.Context, ticker string) (*models.RunRecord, error)

	// ListRuns returns records for ticker newest first; limit <= 0 means all
	ListRuns(ctx context.Context, ticker string, limit int) ([]*models.RunRecord, error)

	ListByRunID(ctx context.Context, runID string) ([]*models.RunRecord, error)
}

// CacheStorage is a byte cache with per-entry expiry
type CacheStorage interface {
	// Get returns ErrNotFound for missing or expired keys
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StorageManager groups the stores sharing one database
type StorageManager interface {
	RunStorage() RunStorage
	CacheStorage() CacheStorage
	Close() error
}
