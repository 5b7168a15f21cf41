package irongate

import (
	"fmt"
	"math"

	"github.com/ternarybob/mgp/internal/models"
)

// verdict is the outcome of a single gate step. An empty reason means pass.
type verdict struct {
	reason string
}

func passed() verdict { return verdict{} }

func failf(format string, args ...interface{}) verdict {
	return verdict{reason: fmt.Sprintf(format, args...)}
}

func (v verdict) failed() bool { return v.reason != "" }

// finite fails on NaN or infinite values.
func finite(name string, v float64) verdict {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return failf("Data Error: non-finite %s", name)
	}
	return passed()
}

// pct formats a ratio as a one-decimal percentage (0.253 -> "25.3%").
func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Evaluate runs the gate for one ticker over a complete input snapshot.
//
// Series are most-recent-first. Missing or malformed data never panics: it
// produces Passed=false with a descriptive FailReason. Steps short-circuit in
// order: quarterly sufficiency, growth gate, deceleration, then either the
// PEG gate (profitable) or the margin-slope and operating-leverage gates.
// The ticker labels the evaluation and does not influence the result.
func Evaluate(ticker string, annual, quarterly []models.FinancialPeriod, valuation *models.ValuationSnapshot, quote *models.Quote, cfg Thresholds) models.IronGateMetrics {
	var m models.IronGateMetrics

	v := evaluate(&m, annual, quarterly, valuation, quote, cfg)
	if v.failed() {
		m.Passed = false
		m.FailReason = &v.reason
		return m
	}

	m.Passed = true
	m.FailReason = nil
	return m
}

func evaluate(m *models.IronGateMetrics, annual, quarterly []models.FinancialPeriod, valuation *models.ValuationSnapshot, quote *models.Quote, cfg Thresholds) verdict {
	if err := cfg.Validate(); err != nil {
		return failf("Configuration Error: %v", err)
	}

	// Step 1: long-run growth. Absent for new listings, which is not a failure.
	if cagr, ok := revenueCAGR(annual); ok {
		if v := finite("revenue CAGR", cagr); v.failed() {
			return v
		}
		m.RevenueCAGR = &cagr
	}

	// Step 2: current-quarter momentum. Insufficient history is a hard fail.
	growth, v := quarterlyGrowth(quarterly, cfg)
	if v.failed() {
		return v
	}
	m.RevenueGrowthCurrentQ = &growth

	prev := priorYearGrowth(quarterly, growth, cfg)
	m.RevenueGrowthPrevYearQ = &prev

	if v := growthGate(m.RevenueCAGR, growth, cfg); v.failed() {
		return v
	}

	// Deceleration is evaluated only once the growth gate has passed.
	if v := decelerationCheck(prev, growth, cfg); v.failed() {
		return v
	}

	if valuation != nil && valuation.NetProfitMarginTTM != nil {
		if v := finite("net profit margin", *valuation.NetProfitMarginTTM); v.failed() {
			return v
		}
	}
	profitable := isProfitable(valuation, cfg)
	m.IsProfitable = &profitable
	if profitable {
		return valuationGate(m, quarterly, growth, valuation, quote, cfg)
	}
	return efficiencyGate(m, quarterly, growth, cfg)
}

// revenueCAGR uses the full annual span. Fewer than two periods means absent;
// a non-positive oldest revenue yields the neutral value 0.
func revenueCAGR(annual []models.FinancialPeriod) (float64, bool) {
	if len(annual) < 2 {
		return 0, false
	}
	years := len(annual) - 1
	latest := annual[0].Revenue
	oldest := annual[years].Revenue
	return CAGR(oldest, latest, float64(years)), true
}

func quarterlyGrowth(quarterly []models.FinancialPeriod, cfg Thresholds) (float64, verdict) {
	if len(quarterly) < cfg.QuartersForYoY {
		return 0, failf("Insufficient quarterly data (need %d)", cfg.QuartersForYoY)
	}

	prior := quarterly[cfg.QuartersForYoY-1].Revenue
	growth, ok := GrowthRate(quarterly[0].Revenue, prior)
	if !ok {
		return 0, failf("Data Error: non-positive prior-year quarter revenue (%.2f)", prior)
	}
	return growth, passed()
}

// priorYearGrowth is Q-4 vs Q-8 growth. Without enough history it assumes
// growth was stable, which cannot arm the deceleration alarm.
func priorYearGrowth(quarterly []models.FinancialPeriod, current float64, cfg Thresholds) float64 {
	idx := cfg.QuartersForDecelCheck - 1
	if len(quarterly) <= idx {
		return current
	}
	prev, ok := GrowthRate(quarterly[cfg.QuartersForYoY-1].Revenue, quarterly[idx].Revenue)
	if !ok {
		return current
	}
	return prev
}

// growthGate is disjunctive when CAGR is known: durability or momentum suffices.
func growthGate(cagr *float64, growth float64, cfg Thresholds) verdict {
	if cagr == nil {
		if growth >= cfg.GrowthThresholdQuarter {
			return passed()
		}
		return failf("Low Growth (New IPO): Q_Growth %s < %s", pct(growth), pct(cfg.GrowthThresholdQuarter))
	}

	if *cagr >= cfg.GrowthThresholdCAGR || growth >= cfg.GrowthThresholdQuarter {
		return passed()
	}
	return failf("Low Growth: CAGR %s, Q_Growth %s", pct(*cagr), pct(growth))
}

// decelerationCheck only applies to previously hyper-growing companies.
func decelerationCheck(prev, growth float64, cfg Thresholds) verdict {
	if prev <= cfg.DecelPrevGrowthThreshold {
		return passed()
	}
	if growth < prev*cfg.DecelDropRatio {
		return failf("Deceleration Alarm: %s -> %s", pct(prev), pct(growth))
	}
	return passed()
}

// isProfitable requires a margin strictly above the floor; absent means no.
func isProfitable(valuation *models.ValuationSnapshot, cfg Thresholds) bool {
	if valuation == nil || valuation.NetProfitMarginTTM == nil {
		return false
	}
	return *valuation.NetProfitMarginTTM > cfg.MinNetMarginForPEG
}

func valuationGate(m *models.IronGateMetrics, quarterly []models.FinancialPeriod, growth float64, valuation *models.ValuationSnapshot, quote *models.Quote, cfg Thresholds) verdict {
	pe, v := trailingPE(quarterly, valuation, quote, cfg)
	if v.failed() {
		return v
	}
	peg, v := pegRatio(pe, valuation, growth)
	if v.failed() {
		return v
	}
	m.PEGRatio = peg
	return pegGate(peg, cfg)
}

// pegGate fails only on a confirmed PEG above the bubble threshold.
func pegGate(peg *float64, cfg Thresholds) verdict {
	if peg != nil && *peg > cfg.PEGThresholdBubble {
		return failf("PEG too high: %.2f (threshold: %.1f)", *peg, cfg.PEGThresholdBubble)
	}
	return passed()
}

// trailingPE prefers the upstream ratio, else price over the trailing EPS sum.
func trailingPE(quarterly []models.FinancialPeriod, valuation *models.ValuationSnapshot, quote *models.Quote, cfg Thresholds) (*float64, verdict) {
	if valuation != nil && valuation.PERatioTTM != nil {
		pe := *valuation.PERatioTTM
		if v := finite("P/E ratio", pe); v.failed() {
			return nil, v
		}
		return &pe, passed()
	}

	if quote == nil || quote.Price == nil {
		return nil, passed()
	}
	price := *quote.Price
	if v := finite("price", price); v.failed() {
		return nil, v
	}
	eps := SumEPS(quarterly, cfg.QuartersForNISum)
	if v := finite("trailing EPS sum", eps); v.failed() {
		return nil, v
	}
	if eps > 0 && price > 0 {
		pe := price / eps
		if v := finite("P/E ratio", pe); v.failed() {
			return nil, v
		}
		return &pe, passed()
	}
	return nil, passed()
}

// pegRatio prefers a non-zero upstream PEG, else derives P/E over revenue
// growth expressed as a percentage number. An upstream zero is kept when
// nothing can be derived.
func pegRatio(pe *float64, valuation *models.ValuationSnapshot, growth float64) (*float64, verdict) {
	var upstream *float64
	if valuation != nil && valuation.PEGRatioTTM != nil {
		peg := *valuation.PEGRatioTTM
		if v := finite("PEG ratio", peg); v.failed() {
			return nil, v
		}
		upstream = &peg
		if peg != 0 {
			return upstream, passed()
		}
	}

	growthPct := growth * 100
	if pe != nil && *pe != 0 && growthPct > 0 {
		peg := *pe / growthPct
		if v := finite("PEG ratio", peg); v.failed() {
			return nil, v
		}
		return &peg, passed()
	}
	return upstream, passed()
}

// efficiencyGate requires both a non-eroding gross margin and operating leverage.
func efficiencyGate(m *models.IronGateMetrics, quarterly []models.FinancialPeriod, growth float64, cfg Thresholds) verdict {
	slope := LinearSlope(GrossMargins(quarterly, cfg.QuartersForMarginSlope))
	if v := finite("gross margin slope", slope); v.failed() {
		return v
	}
	m.GrossMarginSlope = &slope
	if v := marginSlopeGate(slope, cfg); v.failed() {
		return v
	}

	opex := OpexGrowth(quarterly, cfg.QuartersForYoY)
	leverage := growth > opex
	m.OpexGrowth = &opex
	m.OperatingLeverage = &leverage
	if !leverage {
		return failf("No Operating Leverage: Rev %s < OpEx %s", pct(growth), pct(opex))
	}
	return passed()
}

func marginSlopeGate(slope float64, cfg Thresholds) verdict {
	if slope < cfg.GrossMarginSlopeTolerance {
		return failf("Gross Margin Declining (Slope: %.4f)", slope)
	}
	return passed()
}
