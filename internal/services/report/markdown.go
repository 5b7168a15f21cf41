// Package report renders analysis results as Markdown, translated Markdown,
// PDF and JSON.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
)

const (
	na         = "N/A"
	dateLayout = "2006-01-02"
)

// RenderMarkdown renders the full per-ticker report
func RenderMarkdown(data models.CompanyData, date time.Time, cfg irongate.Thresholds) string {
	var b strings.Builder

	verdict := na
	summary := na
	if data.Tribunal != nil {
		verdict = fmt.Sprintf("%s (%s Confidence)", data.Tribunal.Decision, data.Tribunal.Confidence)
		summary = orNA(data.Tribunal.Rationale)
	}

	title := data.Ticker
	if data.CompanyName != nil && *data.CompanyName != "" {
		title = fmt.Sprintf("%s (%s)", data.Ticker, *data.CompanyName)
	}

	b.WriteString(fmt.Sprintf("# MGP Analysis: %s\n", title))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", date.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("**Verdict:** %s\n", verdict))
	b.WriteString(fmt.Sprintf("**Price:** %s | **Market Cap:** %s\n\n", money(data.CurrentPrice), billions(data.MarketCap)))

	b.WriteString("## Executive Summary\n")
	b.WriteString(summary + "\n\n---\n\n")

	writeGateSection(&b, data.IronGate, cfg)
	writeIdentifierSection(&b, data.Identifier)
	writeIntelligenceSection(&b, data.Intelligence)
	writeTribunalSection(&b, data.Tribunal)

	b.WriteString("---\n*Generated by MGP Auto-Analyst*\n")
	return b.String()
}

// RenderGate renders only the Iron Gate metrics
func RenderGate(ticker string, m *models.IronGateMetrics, cfg irongate.Thresholds) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Iron Gate: %s\n\n", ticker))
	writeGateSection(&b, m, cfg)
	return b.String()
}

func writeGateSection(b *strings.Builder, m *models.IronGateMetrics, cfg irongate.Thresholds) {
	b.WriteString("## Phase 1: The Iron Gate & Hygiene\n")
	if m == nil {
		b.WriteString("* **Status**: N/A\n\n")
		return
	}

	status := "Passed"
	if !m.Passed {
		status = "Failed: " + m.Reason()
	}
	b.WriteString(fmt.Sprintf("* **Status**: %s\n", status))
	b.WriteString(fmt.Sprintf("* **Revenue CAGR**: %s\n", percent(m.RevenueCAGR)))
	b.WriteString(fmt.Sprintf("* **Current Q Growth**: %s\n", percent(m.RevenueGrowthCurrentQ)))
	b.WriteString(fmt.Sprintf("* **Prior-Year Q Growth**: %s\n", percent(m.RevenueGrowthPrevYearQ)))
	b.WriteString(fmt.Sprintf("* **Profitable**: %s\n", yesNo(m.IsProfitable)))
	b.WriteString(fmt.Sprintf("* **PEG Ratio**: %s (%s)\n", fixed(m.PEGRatio, 2), irongate.ValuationBand(m.PEGRatio, cfg)))
	b.WriteString(fmt.Sprintf("* **Gross Margin Slope**: %s\n", fixed(m.GrossMarginSlope, 4)))
	b.WriteString(fmt.Sprintf("* **Opex Growth**: %s\n", percent(m.OpexGrowth)))
	b.WriteString(fmt.Sprintf("* **Operating Leverage**: %s\n", passFail(m.OperatingLeverage)))

	var sbc, shares *float64
	var shield *bool
	if h := m.Hygiene; h != nil {
		sbc, shares, shield = h.SBCRevenueRatio, h.ShareCountGrowth, h.DilutionShieldPassed
	}
	b.WriteString(fmt.Sprintf("* **SBC/Rev Ratio**: %s (Threshold: <%.0f%%)\n", percent(sbc), cfg.MaxSBCRevenueRatio*100))
	b.WriteString(fmt.Sprintf("* **Share Count Growth**: %s\n", percent(shares)))
	b.WriteString(fmt.Sprintf("* **Dilution Shield**: %s\n\n", passFail(shield)))
}

func writeIdentifierSection(b *strings.Builder, id *models.IdentifierData) {
	b.WriteString("## Phase 2: DNA & KPIs\n")
	if id == nil {
		b.WriteString("* **Business Model**: N/A\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("* **Business Model**: %s\n", id.BusinessModel))
	b.WriteString(fmt.Sprintf("* **Key KPIs**: %s\n", joinOrNA(id.SpecificKPIs)))
	b.WriteString(fmt.Sprintf("* **Bear Case Hook**: %s\n\n", orNA(id.BearCaseHook)))
}

func writeIntelligenceSection(b *strings.Builder, in *models.IntelligenceData) {
	b.WriteString("## Phase 3: Blue Sky & Intelligence\n")
	if in == nil {
		b.WriteString("N/A\n\n")
		return
	}

	b.WriteString("### Blue Sky (Option Value)\n")
	if in.BlueSky != nil {
		b.WriteString(fmt.Sprintf("* **R&D Effectiveness**: %s\n", orNA(in.BlueSky.RnDEffectiveness)))
		b.WriteString(fmt.Sprintf("* **TAM Expansion**: %s\n\n", orNA(in.BlueSky.TAMExpansion)))
	} else {
		b.WriteString("* **R&D Effectiveness**: N/A\n* **TAM Expansion**: N/A\n\n")
	}

	b.WriteString("### Catalyst Calendar\n")
	if in.Catalysts != nil {
		b.WriteString(fmt.Sprintf("* **Upcoming Events**: %s\n", joinOrNA(in.Catalysts.UpcomingEvents)))
		b.WriteString(fmt.Sprintf("* **Variant Perception**: %s\n\n", orNA(in.Catalysts.VariantPerception)))
	} else {
		b.WriteString("* **Upcoming Events**: N/A\n* **Variant Perception**: N/A\n\n")
	}

	b.WriteString("### Core Intelligence\n")
	if len(in.KPIValues) > 0 {
		b.WriteString("| KPI | Latest Value |\n|-----|--------------|\n")
		kpis := make([]string, 0, len(in.KPIValues))
		for k := range in.KPIValues {
			kpis = append(kpis, k)
		}
		sort.Strings(kpis)
		for _, k := range kpis {
			b.WriteString(fmt.Sprintf("| %s | %s |\n", cell(k), cell(in.KPIValues[k])))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("* **Management**: %s\n", orNA(in.ManagementIntegrity)))
	b.WriteString(fmt.Sprintf("* **Moat**: %s\n", orNA(in.ProductMoat)))
	b.WriteString(fmt.Sprintf("* **Insider Activity**: %s\n", orNA(in.InsiderActivity)))
	b.WriteString(fmt.Sprintf("* **Dislocation**: %s\n\n", orNA(in.DislocationContext)))

	if len(in.Sources) > 0 {
		b.WriteString("### Sources\n")
		for _, s := range in.Sources {
			title := s.Title
			if title == "" {
				title = s.URL
			}
			b.WriteString(fmt.Sprintf("- [%s](%s)\n", strings.ReplaceAll(title, "]", ")"), s.URL))
		}
		b.WriteString("\n")
	}
}

func writeTribunalSection(b *strings.Builder, t *models.TribunalDecision) {
	b.WriteString("## Phase 4: Tribunal Logic\n")
	if t == nil {
		b.WriteString("N/A\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("* **Growth Thesis Intact**: %s\n", yesNo(&t.GrowthThesisIntact)))
	b.WriteString(fmt.Sprintf("* **Valuation Fit**: %s\n", yesNo(&t.ValuationFit)))
	b.WriteString(fmt.Sprintf("* **True Discount**: %s\n\n", yesNo(&t.IsTrueDiscount)))
}

// RenderSummary renders the batch overview table
func RenderSummary(runID string, date time.Time, results []models.CompanyData) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# MGP Batch Summary: %s\n", date.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("**Run:** %s | **Tickers:** %d\n\n", runID, len(results)))
	b.WriteString("| Ticker | Iron Gate | Fail Reason | Verdict | Confidence |\n")
	b.WriteString("|--------|-----------|-------------|---------|------------|\n")

	for _, r := range results {
		gate, reason := na, ""
		switch {
		case r.Error != nil:
			gate, reason = "Error", *r.Error
		case r.IronGate != nil && r.IronGate.Passed:
			gate = "Passed"
		case r.IronGate != nil:
			gate, reason = "Failed", r.IronGate.Reason()
		}

		verdict, confidence := string(models.DecisionSkip), ""
		if r.Tribunal != nil {
			verdict, confidence = string(r.Tribunal.Decision), string(r.Tribunal.Confidence)
		}
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n", r.Ticker, gate, cell(reason), verdict, confidence))
	}
	return b.String()
}

// percent renders a ratio with one decimal place, half away from zero
func percent(v *float64) string {
	if v == nil {
		return na
	}
	return decimal.NewFromFloat(*v).Shift(2).StringFixed(1) + "%"
}

func fixed(v *float64, places int32) string {
	if v == nil {
		return na
	}
	return decimal.NewFromFloat(*v).StringFixed(places)
}

func money(v *float64) string {
	if v == nil {
		return na
	}
	return "$" + decimal.NewFromFloat(*v).StringFixed(2)
}

func billions(v *float64) string {
	if v == nil {
		return na
	}
	return "$" + decimal.NewFromFloat(*v).Shift(-9).StringFixed(2) + "B"
}

func yesNo(v *bool) string {
	switch {
	case v == nil:
		return na
	case *v:
		return "Yes"
	default:
		return "No"
	}
}

func passFail(v *bool) string {
	switch {
	case v == nil:
		return na
	case *v:
		return "Passed"
	default:
		return "Failed"
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return na
	}
	return strings.Join(items, ", ")
}

// cell makes s safe inside a single-line table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}
