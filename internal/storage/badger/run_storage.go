package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// RunStorage implements interfaces.RunStorage for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun upserts a run record, assigning an ID and timestamp when missing
func (s *RunStorage) SaveRun(ctx context.Context, record *models.RunRecord) error {
	if record == nil {
		return errors.New("run record is nil")
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.Ticker = strings.ToUpper(record.Ticker)

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("ticker", record.Ticker).
		Msg("Run record saved")
	return nil
}

// GetLatestRun returns the newest record for ticker
func (s *RunStorage) GetLatestRun(ctx context.Context, ticker string) (*models.RunRecord, error) {
	runs, err := s.ListRuns(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs for %s: %w", ticker, interfaces.ErrNotFound)
	}
	return runs[0], nil
}

// ListRuns returns records for ticker ordered newest first
func (s *RunStorage) ListRuns(ctx context.Context, ticker string, limit int) ([]*models.RunRecord, error) {
	query := badgerhold.Where("Ticker").Eq(strings.ToUpper(ticker)).Index("Ticker").
		SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.RunRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list runs for %s: %w", ticker, err)
	}
	return toPointers(records), nil
}

// ListByRunID returns every record written by one batch run
func (s *RunStorage) ListByRunID(ctx context.Context, runID string) ([]*models.RunRecord, error) {
	var records []models.RunRecord
	query := badgerhold.Where("RunID").Eq(runID).Index("RunID").SortBy("CreatedAt")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list run %s: %w", runID, err)
	}
	return toPointers(records), nil
}

func toPointers(records []models.RunRecord) []*models.RunRecord {
	out := make([]*models.RunRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}
