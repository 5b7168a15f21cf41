package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/mgp/internal/models"
)

const workbookSheet = "Screen"

var workbookHeader = []interface{}{
	"Ticker", "Company", "Price", "Market Cap", "Gate", "Fail Reason",
	"Revenue CAGR", "Current Q Growth", "Prior-Year Q Growth", "PEG", "Gross Margin Slope",
	"SBC/Revenue", "Share Count Growth", "Business Model", "Verdict", "Confidence", "Error",
}

// WriteWorkbook writes results as a single-sheet XLSX screen, one row per ticker.
// Absent numbers are left blank so the sheet can be sorted and filtered.
func WriteWorkbook(path string, results []models.CompanyData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(workbookSheet, "A1", &workbookHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetRowStyle(workbookSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := workbookRow(r)
		if err := f.SetSheetRow(workbookSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.Ticker, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create workbook directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func workbookRow(r models.CompanyData) []interface{} {
	row := []interface{}{r.Ticker, deref(r.CompanyName), num(r.CurrentPrice), num(r.MarketCap)}

	gate, reason := "", ""
	var cagr, growth, prior, peg, slope, sbc, shares interface{}
	if m := r.IronGate; m != nil {
		gate = "Failed"
		if m.Passed {
			gate = "Passed"
		}
		reason = m.Reason()
		cagr, growth, prior = num(m.RevenueCAGR), num(m.RevenueGrowthCurrentQ), num(m.RevenueGrowthPrevYearQ)
		peg, slope = num(m.PEGRatio), num(m.GrossMarginSlope)
		if h := m.Hygiene; h != nil {
			sbc, shares = num(h.SBCRevenueRatio), num(h.ShareCountGrowth)
		}
	}
	row = append(row, gate, reason, cagr, growth, prior, peg, slope, sbc, shares)

	model := ""
	if r.Identifier != nil {
		model = string(r.Identifier.BusinessModel)
	}
	verdict, confidence := "", ""
	if r.Tribunal != nil {
		verdict, confidence = string(r.Tribunal.Decision), string(r.Tribunal.Confidence)
	}
	return append(row, model, verdict, confidence, deref(r.Error))
}

// num returns nil for absent values so the cell stays empty
func num(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
