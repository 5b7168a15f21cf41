package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
	"github.com/ternarybob/mgp/internal/services/report"
)

// screener is the gate-only part of the analyzer
type screener interface {
	ScreenOnly(ctx context.Context, ticker string) models.CompanyData
	Thresholds() irongate.Thresholds
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// requireTicker reads and normalizes the ticker argument
func requireTicker(request mcp.CallToolRequest) (string, bool) {
	raw, err := request.RequireString("ticker")
	if err != nil {
		return "", false
	}
	ticker := common.NormalizeTicker(raw)
	return ticker, ticker != ""
}

// handleIronGate implements the iron_gate tool
func handleIronGate(analyzer screener, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, ok := requireTicker(request)
		if !ok {
			return textResult("Error: ticker parameter is required"), nil
		}

		var data models.CompanyData
		err := common.SafeRun(logger, ticker, func() error {
			data = analyzer.ScreenOnly(ctx, ticker)
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Iron Gate failed")
			return textResult(fmt.Sprintf("Iron Gate error for %s: %v", ticker, err)), nil
		}

		return textResult(formatGate(data, analyzer.Thresholds())), nil
	}
}

// handleGetLatestResult implements the get_latest_result tool
func handleGetLatestResult(runs interfaces.RunStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker, ok := requireTicker(request)
		if !ok {
			return textResult("Error: ticker parameter is required"), nil
		}
		if runs == nil {
			return textResult("Run history is unavailable: storage is disabled"), nil
		}

		record, err := runs.GetLatestRun(ctx, ticker)
		if errors.Is(err, interfaces.ErrNotFound) {
			return textResult(fmt.Sprintf("No stored result for %s", ticker)), nil
		}
		if err != nil {
			logger.Error().Err(err).Str("ticker", ticker).Msg("Failed to read latest run")
			return textResult(fmt.Sprintf("Error reading result for %s: %v", ticker, err)), nil
		}

		markdown, err := formatRunRecord(record)
		if err != nil {
			return textResult(fmt.Sprintf("Error formatting result: %v", err)), nil
		}
		return textResult(markdown), nil
	}
}

func formatGate(data models.CompanyData, cfg irongate.Thresholds) string {
	if data.Error != nil {
		return fmt.Sprintf("# Iron Gate: %s\n\n**Error**: %s\n", data.Ticker, *data.Error)
	}
	return report.RenderGate(data.Ticker, data.IronGate, cfg)
}
