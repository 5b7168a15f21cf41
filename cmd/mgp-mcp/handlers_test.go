package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
)

type fakeScreener struct {
	tickers []string
	panics  bool
}

func (f *fakeScreener) ScreenOnly(ctx context.Context, ticker string) models.CompanyData {
	f.tickers = append(f.tickers, ticker)
	if f.panics {
		panic("gateway exploded")
	}
	return models.CompanyData{
		Ticker: ticker,
		IronGate: &models.IronGateMetrics{
			RevenueCAGR: models.Ptr(0.3),
			PEGRatio:    models.Ptr(1.2),
			Passed:      true,
		},
	}
}

func (f *fakeScreener) Thresholds() irongate.Thresholds { return irongate.DefaultThresholds() }

type fakeRuns struct {
	latest map[string]*models.RunRecord
	err    error
}

func (f *fakeRuns) SaveRun(ctx context.Context, record *models.RunRecord) error { return nil }

func (f *fakeRuns) GetLatestRun(ctx context.Context, ticker string) (*models.RunRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.latest[ticker]; ok {
		return r, nil
	}
	return nil, interfaces.ErrNotFound
}

func (f *fakeRuns) ListRuns(ctx context.Context, ticker string, limit int) ([]*models.RunRecord, error) {
	return nil, nil
}

func (f *fakeRuns) ListByRunID(ctx context.Context, runID string) ([]*models.RunRecord, error) {
	return nil, nil
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) string {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleIronGate(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("renders gate markdown for normalized ticker", func(t *testing.T) {
		s := &fakeScreener{}
		out := call(t, handleIronGate(s, logger), map[string]any{"ticker": " duol "})

		assert.Equal(t, []string{"DUOL"}, s.tickers)
		assert.Contains(t, out, "# Iron Gate: DUOL")
		assert.Contains(t, out, "30.0%")
	})

	t.Run("missing ticker", func(t *testing.T) {
		s := &fakeScreener{}
		out := call(t, handleIronGate(s, logger), map[string]any{})

		assert.Contains(t, out, "ticker parameter is required")
		assert.Empty(t, s.tickers)
	})

	t.Run("panic becomes an error message", func(t *testing.T) {
		out := call(t, handleIronGate(&fakeScreener{panics: true}, logger), map[string]any{"ticker": "BOOM"})

		assert.Contains(t, out, "Iron Gate error for BOOM")
	})
}

func TestHandleGetLatestResult(t *testing.T) {
	logger := arbor.NewLogger()
	record := &models.RunRecord{
		RunID:      "run-1",
		Ticker:     "DUOL",
		CreatedAt:  time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC),
		ReportPath: "REPORT_DUOL_2026-03-01.md",
		Data: models.CompanyData{
			Ticker: "DUOL",
			Tribunal: &models.TribunalDecision{
				Decision:   models.DecisionConvictionBuy,
				Confidence: models.ConfidenceHigh,
				Rationale:  "Growth intact at a fair price.",
			},
		},
	}
	runs := &fakeRuns{latest: map[string]*models.RunRecord{"DUOL": record}}

	t.Run("formats the stored record", func(t *testing.T) {
		out := call(t, handleGetLatestResult(runs, logger), map[string]any{"ticker": "duol"})

		assert.Contains(t, out, "# Latest result: DUOL")
		assert.Contains(t, out, "**Status**: CONVICTION BUY")
		assert.Contains(t, out, "**Date**: 2026-03-01 21:00 UTC")
		assert.Contains(t, out, "REPORT_DUOL_2026-03-01.md")
		assert.Contains(t, out, "Growth intact at a fair price.")
		assert.Contains(t, out, `"decision": "CONVICTION BUY"`)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		out := call(t, handleGetLatestResult(runs, logger), map[string]any{"ticker": "NVDA"})
		assert.Equal(t, "No stored result for NVDA", out)
	})

	t.Run("storage error", func(t *testing.T) {
		out := call(t, handleGetLatestResult(&fakeRuns{err: fmt.Errorf("disk gone")}, logger), map[string]any{"ticker": "DUOL"})
		assert.Contains(t, out, "disk gone")
	})

	t.Run("storage disabled", func(t *testing.T) {
		out := call(t, handleGetLatestResult(nil, logger), map[string]any{"ticker": "DUOL"})
		assert.Contains(t, out, "storage is disabled")
	})
}
