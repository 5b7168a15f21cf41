package irongate

import (
	"math"

	"github.com/ternarybob/mgp/internal/models"
)

// CAGR calculates Compound Annual Growth Rate.
// Non-positive start or years, or a negative end, yield the neutral 0.
func CAGR(start, end float64, years float64) float64 {
	if start <= 0 || years <= 0 || end < 0 {
		return 0
	}
	return math.Pow(end/start, 1/years) - 1
}

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// LinearSlope fits an ordinary least-squares line against the sequence
// index (0..n-1) and returns its slope. Fewer than two points yield 0.
func LinearSlope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	xMean := float64(n-1) / 2
	yMean := Mean(values)

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// GrowthRate returns (current-prior)/prior and false when prior is not
// strictly positive or the result is not finite.
func GrowthRate(current, prior float64) (float64, bool) {
	if prior <= 0 {
		return 0, false
	}
	g := (current - prior) / prior
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0, false
	}
	return g, true
}

// GrossMargins returns gross margins of the most recent window quarters
// ordered oldest-first. Quarters with non-positive revenue are skipped.
func GrossMargins(quarterly []models.FinancialPeriod, window int) []float64 {
	if window > len(quarterly) {
		window = len(quarterly)
	}
	margins := make([]float64, 0, window)
	for i := window - 1; i >= 0; i-- {
		q := quarterly[i]
		if q.Revenue > 0 {
			margins = append(margins, q.GrossProfit/q.Revenue)
		}
	}
	return margins
}

// OpexGrowth compares operating expenses of quarter 0 with quarter yoy-1.
// A non-positive prior value yields 0.
func OpexGrowth(quarterly []models.FinancialPeriod, yoy int) float64 {
	if yoy < 1 || len(quarterly) < yoy {
		return 0
	}
	g, ok := GrowthRate(quarterly[0].OperatingExpenses, quarterly[yoy-1].OperatingExpenses)
	if !ok {
		return 0
	}
	return g
}

// SumEPS sums EPS over the most recent n quarters.
func SumEPS(quarterly []models.FinancialPeriod, n int) float64 {
	if n > len(quarterly) {
		n = len(quarterly)
	}
	sum := 0.0
	for _, q := range quarterly[:n] {
		sum += q.EPS
	}
	return sum
}
