package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/workers"
)

// BatchResult is the outcome of RunBatch. Results follow input order.
type BatchResult struct {
	RunID   string               `json:"run_id"`
	Results []models.CompanyData `json:"results"`
	Changes []Change             `json:"changes,omitempty"`
}

// Change records a ticker whose status differs from its previous stored run
type Change struct {
	Ticker   string `json:"ticker"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// Status summarises a result as a comparable label
func Status(data models.CompanyData) string {
	switch {
	case data.Error != nil:
		return "ERROR"
	case data.Tribunal != nil:
		return string(data.Tribunal.Decision)
	case data.IronGate == nil:
		return "UNKNOWN"
	case data.IronGate.Passed:
		return "GATE PASSED"
	default:
		return "GATE FAILED"
	}
}

// RunBatch analyses tickers on a bounded pool. One ticker's failure or panic
// is recorded in its CompanyData.Error and never stops the others.
// Cancelling ctx stops scheduling; unscheduled tickers carry the context error.
func (a *Analyzer) RunBatch(ctx context.Context, tickers []string, opts Options) BatchResult {
	tickers = common.DedupeTickers(tickers)
	batch := BatchResult{
		RunID:   uuid.New().String(),
		Results: make([]models.CompanyData, len(tickers)),
	}
	changes := make([]*Change, len(tickers))

	workerCount := a.workers
	if opts.Workers > 0 {
		workerCount = opts.Workers
	}
	if workerCount > len(tickers) && len(tickers) > 0 {
		workerCount = len(tickers)
	}

	a.logger.Info().
		Str("run_id", batch.RunID).
		Int("tickers", len(tickers)).
		Int("workers", workerCount).
		Msg("Starting batch")

	pool := workers.NewPool(ctx, workerCount, a.logger)
	pool.Start()

	for i, ticker := range tickers {
		err := pool.Submit(workers.Job{
			Name: ticker,
			Run: func(ctx context.Context) error {
				data, err := a.runOne(ctx, ticker, opts)
				batch.Results[i] = data
				if isCancelled(err) {
					// Interrupted results never replace the stored latest run.
					return nil
				}
				changes[i] = a.persist(ctx, batch.RunID, data)
				return nil
			},
		})
		if err != nil {
			for j := i; j < len(tickers); j++ {
				batch.Results[j] = failed(tickers[j], fmt.Errorf("not analysed: %w", ctx.Err()))
			}
			a.logger.Warn().Str("run_id", batch.RunID).Int("skipped", len(tickers)-i).Msg("Batch cancelled")
			break
		}
	}
	pool.Wait()

	for _, c := range changes {
		if c != nil {
			batch.Changes = append(batch.Changes, *c)
		}
	}

	a.logger.Info().Str("run_id", batch.RunID).Int("changes", len(batch.Changes)).Msg("Batch complete")
	return batch
}

// runOne converts a panic inside the chain into CompanyData.Error. A context
// cancelled during the chain discards the partial result, since the gateways
// return empty data once ctx is done.
func (a *Analyzer) runOne(ctx context.Context, ticker string, opts Options) (models.CompanyData, error) {
	var data models.CompanyData
	err := common.SafeRun(a.logger, ticker, func() error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("not analysed: %w", err)
		}
		data = a.AnalyzeTicker(ctx, ticker, opts)
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("interrupted: %w", err)
		}
		return nil
	})
	if err != nil {
		if isCancelled(err) {
			a.logger.Warn().Err(err).Str("ticker", ticker).Msg("Ticker analysis cancelled")
		} else {
			a.logger.Error().Err(err).Str("ticker", ticker).Msg("Ticker analysis failed")
		}
		return failed(ticker, err), err
	}
	return data, nil
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// persist writes the report and run record and returns a status change, if any
func (a *Analyzer) persist(ctx context.Context, runID string, data models.CompanyData) *Change {
	record := &models.RunRecord{RunID: runID, Ticker: data.Ticker, Data: data}

	if a.reports != nil {
		paths, err := a.reports.Save(ctx, data)
		if err != nil {
			a.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Failed to write report")
		}
		record.ReportPath = paths.Markdown
	}

	if a.runs == nil {
		return nil
	}

	var change *Change
	previous, err := a.runs.GetLatestRun(ctx, data.Ticker)
	switch {
	case err == nil:
		if prev, cur := Status(previous.Data), Status(data); prev != cur {
			change = &Change{Ticker: data.Ticker, Previous: prev, Current: cur}
			a.logger.Info().
				Str("ticker", data.Ticker).
				Str("previous", prev).
				Str("current", cur).
				Msg("Status changed since last run")
		}
	case !errors.Is(err, interfaces.ErrNotFound):
		a.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Failed to read previous run")
	}

	if err := a.runs.SaveRun(ctx, record); err != nil {
		a.logger.Warn().Err(err).Str("ticker", data.Ticker).Msg("Failed to persist run record")
	}
	return change
}

func failed(ticker string, err error) models.CompanyData {
	msg := err.Error()
	return models.CompanyData{Ticker: ticker, Error: &msg}
}
