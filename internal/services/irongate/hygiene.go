package irongate

import (
	"math"

	"github.com/ternarybob/mgp/internal/models"
)

// Hygiene measures dilution: stock-based compensation relative to revenue
// and growth in diluted share count. It never affects the gate verdict.
// Returns nil when neither signal can be computed.
func Hygiene(quarterly []models.FinancialPeriod, cashflow []models.CashFlowPeriod, cfg Thresholds) *models.HygieneMetrics {
	h := &models.HygieneMetrics{}

	if ratio, ok := sbcRevenueRatio(quarterly, cashflow, cfg.QuartersForNISum); ok {
		h.SBCRevenueRatio = &ratio
	}
	if growth, ok := shareCountGrowth(quarterly, cfg.QuartersForYoY); ok {
		h.ShareCountGrowth = &growth
	}

	if h.SBCRevenueRatio == nil && h.ShareCountGrowth == nil {
		return nil
	}

	shield := true
	if h.SBCRevenueRatio != nil && *h.SBCRevenueRatio >= cfg.MaxSBCRevenueRatio {
		shield = false
	}
	if h.ShareCountGrowth != nil && *h.ShareCountGrowth >= cfg.MaxShareCountGrowth {
		shield = false
	}
	h.DilutionShieldPassed = &shield
	return h
}

func sbcRevenueRatio(quarterly []models.FinancialPeriod, cashflow []models.CashFlowPeriod, n int) (float64, bool) {
	if n < 1 || len(quarterly) < n || len(cashflow) < n {
		return 0, false
	}
	var sbc, revenue float64
	for i := 0; i < n; i++ {
		sbc += cashflow[i].StockBasedCompensation
		revenue += quarterly[i].Revenue
	}
	if revenue <= 0 {
		return 0, false
	}
	ratio := sbc / revenue
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, false
	}
	return ratio, true
}

func shareCountGrowth(quarterly []models.FinancialPeriod, yoy int) (float64, bool) {
	if yoy < 2 || len(quarterly) < yoy {
		return 0, false
	}
	current := quarterly[0].WeightedShares
	prior := quarterly[yoy-1].WeightedShares
	if current == nil || prior == nil || *current <= 0 {
		return 0, false
	}
	return GrowthRate(*current, *prior)
}
