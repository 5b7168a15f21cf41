package main

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/pipeline"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	passStyle   = cellStyle.Foreground(lipgloss.Color("#04B575"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("#FF4672"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

var gateHeaders = []string{"Ticker", "Status", "CAGR", "Growth Q", "Growth Q-1yr", "PEG", "GM Slope", "Op Leverage", "Reason"}

// renderGateTable prints the gate metrics of each ticker
func renderGateTable(results []models.CompanyData) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		m := r.IronGate
		if m == nil {
			reason := "no data"
			if r.Error != nil {
				reason = *r.Error
			}
			rows = append(rows, []string{r.Ticker, pipeline.Status(r), "-", "-", "-", "-", "-", "-", reason})
			continue
		}
		rows = append(rows, []string{
			r.Ticker,
			pipeline.Status(r),
			pct(m.RevenueCAGR),
			pct(m.RevenueGrowthCurrentQ),
			pct(m.RevenueGrowthPrevYearQ),
			num(m.PEGRatio, 2),
			num(m.GrossMarginSlope, 4),
			flag(m.OperatingLeverage),
			m.Reason(),
		})
	}
	return styledTable(gateHeaders, rows, 1)
}

var batchHeaders = []string{"Ticker", "Status", "Confidence", "Detail"}

// renderBatchTable prints one line per analysed ticker
func renderBatchTable(results []models.CompanyData) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		report := models.NewAnalysisReport(r, time.Time{})
		confidence := "-"
		if r.Tribunal != nil {
			confidence = string(r.Tribunal.Confidence)
		}
		rows = append(rows, []string{r.Ticker, pipeline.Status(r), confidence, truncate(report.Summary, 80)})
	}
	return styledTable(batchHeaders, rows, 1)
}

var historyHeaders = []string{"Date", "Run", "Status", "Report"}

// renderHistoryTable prints stored runs newest first
func renderHistoryTable(records []*models.RunRecord) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		report := rec.ReportPath
		if report == "" {
			report = "-"
		}
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			shortID(rec.RunID),
			pipeline.Status(rec.Data),
			report,
		})
	}
	return styledTable(historyHeaders, rows, 2)
}

// styledTable colours the status column green for passes and buys, red for failures
func styledTable(headers []string, rows [][]string, statusCol int) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != statusCol || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch rows[row][col] {
			case "GATE PASSED", string(models.DecisionConvictionBuy), string(models.DecisionAccumulate), string(models.DecisionSpeculativeBuy):
				return passStyle
			case "GATE FAILED", "ERROR", string(models.DecisionValueTrap):
				return failStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}

func pct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return decimal.NewFromFloat(*v).Shift(2).StringFixed(1) + "%"
}

func num(v *float64, places int32) string {
	if v == nil {
		return "N/A"
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func flag(v *bool) string {
	switch {
	case v == nil:
		return "N/A"
	case *v:
		return "Yes"
	default:
		return "No"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
