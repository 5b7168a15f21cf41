package irongate

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/mgp/internal/models"
)

// quarters builds a most-recent-first series with a flat 60% gross margin,
// constant opex and unit EPS.
func quarters(revenues ...float64) []models.FinancialPeriod {
	out := make([]models.FinancialPeriod, len(revenues))
	for i, r := range revenues {
		out[i] = models.FinancialPeriod{
			Date:              fmt.Sprintf("Q-%d", i),
			Revenue:           r,
			GrossProfit:       r * 0.6,
			OperatingExpenses: 50,
			NetIncome:         r * 0.1,
			EPS:               1.0,
		}
	}
	return out
}

// annuals builds a most-recent-first annual series from oldest-first revenues.
func annuals(oldestFirst ...float64) []models.FinancialPeriod {
	out := make([]models.FinancialPeriod, len(oldestFirst))
	for i, r := range oldestFirst {
		out[len(oldestFirst)-1-i] = models.FinancialPeriod{Date: fmt.Sprintf("FY-%d", i), Revenue: r}
	}
	return out
}

func profitable(peg float64) *models.ValuationSnapshot {
	return &models.ValuationSnapshot{
		NetProfitMarginTTM: models.Ptr(0.10),
		PERatioTTM:         models.Ptr(30.0),
		PEGRatioTTM:        models.Ptr(peg),
	}
}

func unprofitable() *models.ValuationSnapshot {
	return &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(-0.05)}
}

func requireFail(t *testing.T, m models.IronGateMetrics, reason string) {
	t.Helper()
	assert.False(t, m.Passed)
	require.NotNil(t, m.FailReason)
	assert.Equal(t, reason, *m.FailReason)
}

func requirePass(t *testing.T, m models.IronGateMetrics) {
	t.Helper()
	assert.True(t, m.Passed, "unexpected fail: %s", m.Reason())
	assert.Nil(t, m.FailReason)
}

func TestEvaluate_PassesViaQuarterlyMomentum(t *testing.T) {
	annual := annuals(100, 115, 132, 152)
	// growth = 137.5/110 - 1 = 0.25, prior = 110/100 - 1 = 0.10
	quarterly := quarters(137.5, 130, 125, 120, 110, 108, 105, 102, 100)

	m := Evaluate("ACME", annual, quarterly, profitable(1.2), nil, DefaultThresholds())

	requirePass(t, m)
	require.NotNil(t, m.RevenueCAGR)
	assert.InDelta(t, 0.1497, *m.RevenueCAGR, 0.0005)
	assert.InDelta(t, 0.25, *m.RevenueGrowthCurrentQ, 1e-12)
	assert.InDelta(t, 0.10, *m.RevenueGrowthPrevYearQ, 1e-12)
	assert.Equal(t, 1.2, *m.PEGRatio)
	assert.True(t, *m.IsProfitable)
}

func TestEvaluate_InsufficientQuarterlyData(t *testing.T) {
	m := Evaluate("NEWCO", nil, quarters(140, 130, 120, 110), nil, nil, DefaultThresholds())

	requireFail(t, m, "Insufficient quarterly data (need 5)")
	assert.Nil(t, m.RevenueCAGR, "no annual data means CAGR is absent")
	assert.Nil(t, m.RevenueGrowthCurrentQ)
}

func TestEvaluate_DecelerationAfterGrowthGate(t *testing.T) {
	annual := annuals(100, 130, 169, 219.7) // CAGR 30%
	// growth = 192/160 - 1 = 0.20, prior = 160/100 - 1 = 0.60
	quarterly := quarters(192, 185, 175, 170, 160, 140, 120, 110, 100)

	m := Evaluate("HOT", annual, quarterly, profitable(1.0), nil, DefaultThresholds())

	requireFail(t, m, "Deceleration Alarm: 60.0% -> 20.0%")
	assert.Nil(t, m.PEGRatio, "valuation is not reached after a deceleration failure")
	assert.Nil(t, m.IsProfitable)
}

func TestEvaluate_NewListingBranch(t *testing.T) {
	t.Run("passes on quarterly momentum", func(t *testing.T) {
		m := Evaluate("IPO", annuals(100), quarters(130, 120, 115, 110, 100), profitable(1.0), nil, DefaultThresholds())
		requirePass(t, m)
		assert.Nil(t, m.RevenueCAGR)
	})

	t.Run("fails below quarterly threshold", func(t *testing.T) {
		m := Evaluate("IPO", nil, quarters(110, 108, 105, 102, 100), profitable(1.0), nil, DefaultThresholds())
		requireFail(t, m, "Low Growth (New IPO): Q_Growth 10.0% < 20.0%")
	})
}

func TestEvaluate_GrowthGateIsDisjunctive(t *testing.T) {
	tests := []struct {
		name       string
		annual     []models.FinancialPeriod
		quarterly  []models.FinancialPeriod
		wantPass   bool
		wantReason string
	}{
		{
			name:      "strong CAGR weak quarter",
			annual:    annuals(100, 130, 169, 219.7),     // 30%
			quarterly: quarters(105, 104, 103, 102, 100), // 5%
			wantPass:  true,
		},
		{
			name:      "weak CAGR strong quarter",
			annual:    annuals(100, 105, 110.25, 115.7625), // 5%
			quarterly: quarters(125, 115, 110, 105, 100),   // 25%
			wantPass:  true,
		},
		{
			name:       "both weak",
			annual:     annuals(100, 105, 110.25, 115.7625), // 5%
			quarterly:  quarters(110, 108, 105, 102, 100),   // 10%
			wantPass:   false,
			wantReason: "Low Growth: CAGR 5.0%, Q_Growth 10.0%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Evaluate("T", tt.annual, tt.quarterly, profitable(1.0), nil, DefaultThresholds())
			if tt.wantPass {
				requirePass(t, m)
				return
			}
			requireFail(t, m, tt.wantReason)
		})
	}
}

func TestGrowthGate(t *testing.T) {
	cfg := DefaultThresholds()

	assert.False(t, growthGate(models.Ptr(0.30), 0.05, cfg).failed())
	assert.False(t, growthGate(models.Ptr(0.05), 0.25, cfg).failed())
	assert.False(t, growthGate(models.Ptr(0.15), 0.0, cfg).failed(), "CAGR at threshold passes")
	assert.False(t, growthGate(nil, 0.20, cfg).failed(), "quarter at threshold passes")

	v := growthGate(models.Ptr(0.05), 0.10, cfg)
	assert.True(t, v.failed())
	assert.Equal(t, "Low Growth: CAGR 5.0%, Q_Growth 10.0%", v.reason)
}

func TestDecelerationCheck_Boundaries(t *testing.T) {
	cfg := DefaultThresholds()

	tests := []struct {
		name     string
		prev     float64
		growth   float64
		wantFail bool
	}{
		{name: "prior exactly at threshold never fires", prev: 0.40, growth: 0.01, wantFail: false},
		{name: "prior just below threshold never fires", prev: 0.3999, growth: 0.01, wantFail: false},
		{name: "prior above threshold with steep drop fires", prev: 0.41, growth: 0.20, wantFail: true},
		{name: "prior above threshold with mild drop", prev: 0.50, growth: 0.36, wantFail: false},
		{name: "exactly at drop ratio does not fire", prev: 0.50, growth: 0.35, wantFail: false},
		{name: "negative current growth after hypergrowth", prev: 0.80, growth: -0.05, wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := decelerationCheck(tt.prev, tt.growth, cfg)
			assert.Equal(t, tt.wantFail, v.failed(), v.reason)
		})
	}
}

func TestEvaluate_DecelerationNotArmedAtThreshold(t *testing.T) {
	// prior = 140/100 - 1 = 0.40 exactly, current = 168/140 - 1 = 0.20
	quarterly := quarters(168, 160, 150, 145, 140, 130, 120, 110, 100)

	m := Evaluate("EDGE", nil, quarterly, profitable(1.0), nil, DefaultThresholds())

	requirePass(t, m)
	assert.InDelta(t, 0.40, *m.RevenueGrowthPrevYearQ, 1e-12)
}

func TestEvaluate_PriorGrowthDefaultsToCurrentWithoutHistory(t *testing.T) {
	m := Evaluate("SHORT", nil, quarters(150, 140, 130, 120, 100), profitable(1.0), nil, DefaultThresholds())

	requirePass(t, m)
	assert.Equal(t, *m.RevenueGrowthCurrentQ, *m.RevenueGrowthPrevYearQ)
}

func TestEvaluate_ProfitabilityBoundary(t *testing.T) {
	quarterly := quarters(125, 120, 115, 110, 100)

	t.Run("margin exactly at floor is not profitable", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.03), PEGRatioTTM: models.Ptr(5.0)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		require.NotNil(t, m.IsProfitable)
		assert.False(t, *m.IsProfitable)
		assert.Nil(t, m.PEGRatio)
		assert.NotNil(t, m.GrossMarginSlope)
	})

	t.Run("margin above floor is profitable", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.031), PEGRatioTTM: models.Ptr(1.5)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		require.NotNil(t, m.IsProfitable)
		assert.True(t, *m.IsProfitable)
		assert.Equal(t, 1.5, *m.PEGRatio)
		assert.Nil(t, m.GrossMarginSlope)
	})

	t.Run("missing margin is not profitable", func(t *testing.T) {
		m := Evaluate("T", nil, quarterly, nil, nil, DefaultThresholds())
		require.NotNil(t, m.IsProfitable)
		assert.False(t, *m.IsProfitable)
	})
}

func TestEvaluate_PEGBoundary(t *testing.T) {
	quarterly := quarters(125, 120, 115, 110, 100)

	requirePass(t, Evaluate("T", nil, quarterly, profitable(2.0), nil, DefaultThresholds()))
	requireFail(t, Evaluate("T", nil, quarterly, profitable(2.01), nil, DefaultThresholds()), "PEG too high: 2.01 (threshold: 2.0)")
}

func TestEvaluate_PEGSources(t *testing.T) {
	quarterly := quarters(125, 120, 115, 110, 100) // growth 25%

	t.Run("derived from upstream PE", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1), PERatioTTM: models.Ptr(50.0)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		requirePass(t, m)
		assert.InDelta(t, 2.0, *m.PEGRatio, 1e-12)
	})

	t.Run("upstream zero PEG falls back to derived", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1), PERatioTTM: models.Ptr(75.0), PEGRatioTTM: models.Ptr(0.0)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		requireFail(t, m, "PEG too high: 3.00 (threshold: 2.0)")
	})

	t.Run("PE derived from price over trailing EPS", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1)}
		quote := &models.Quote{Price: models.Ptr(100.0)}
		m := Evaluate("T", nil, quarterly, val, quote, DefaultThresholds())
		requirePass(t, m)
		// PE = 100 / (4 x 1.0) = 25, PEG = 25 / 25 = 1.0
		assert.InDelta(t, 1.0, *m.PEGRatio, 1e-12)
	})

	t.Run("unknown PEG never fails", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		requirePass(t, m)
		assert.Nil(t, m.PEGRatio)
	})

	t.Run("upstream zero PEG with nothing to derive is kept as zero", func(t *testing.T) {
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1), PEGRatioTTM: models.Ptr(0.0)}
		m := Evaluate("T", nil, quarterly, val, nil, DefaultThresholds())
		requirePass(t, m)
		require.NotNil(t, m.PEGRatio)
		assert.Equal(t, 0.0, *m.PEGRatio)
	})

	t.Run("non-positive EPS sum leaves PE unknown", func(t *testing.T) {
		q := quarters(125, 120, 115, 110, 100)
		for i := range q {
			q[i].EPS = -0.5
		}
		val := &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1)}
		m := Evaluate("T", nil, q, val, &models.Quote{Price: models.Ptr(100.0)}, DefaultThresholds())
		requirePass(t, m)
		assert.Nil(t, m.PEGRatio)
	})
}

func TestMarginSlopeGate_Boundary(t *testing.T) {
	cfg := DefaultThresholds()

	assert.False(t, marginSlopeGate(-0.005, cfg).failed())
	assert.False(t, marginSlopeGate(0.01, cfg).failed())

	v := marginSlopeGate(-0.0051, cfg)
	assert.True(t, v.failed())
	assert.Equal(t, "Gross Margin Declining (Slope: -0.0051)", v.reason)
}

func TestEvaluate_UnprofitablePath(t *testing.T) {
	t.Run("passes with expanding margin and leverage", func(t *testing.T) {
		q := quarters(125, 120, 115, 110, 100, 95)
		m := Evaluate("BURN", nil, q, unprofitable(), nil, DefaultThresholds())
		requirePass(t, m)
		assert.InDelta(t, 0.0, *m.GrossMarginSlope, 1e-9)
		assert.Equal(t, 0.0, *m.OpexGrowth)
		assert.True(t, *m.OperatingLeverage)
	})

	t.Run("declining gross margin fails", func(t *testing.T) {
		q := quarters(125, 120, 115, 110, 100, 95)
		for i := range q {
			q[i].GrossProfit = q[i].Revenue * (0.50 + 0.02*float64(i))
		}
		m := Evaluate("BURN", nil, q, unprofitable(), nil, DefaultThresholds())
		requireFail(t, m, "Gross Margin Declining (Slope: -0.0200)")
		assert.Nil(t, m.OperatingLeverage, "leverage is not evaluated after a slope failure")
	})

	t.Run("passing slope but no operating leverage fails", func(t *testing.T) {
		q := quarters(125, 120, 115, 110, 100, 95)
		q[0].OperatingExpenses = 75 // 50% growth vs 25% revenue growth
		m := Evaluate("BURN", nil, q, unprofitable(), nil, DefaultThresholds())
		requireFail(t, m, "No Operating Leverage: Rev 25.0% < OpEx 50.0%")
		assert.GreaterOrEqual(t, *m.GrossMarginSlope, DefaultThresholds().GrossMarginSlopeTolerance)
		assert.False(t, *m.OperatingLeverage)
	})

	t.Run("equal growth is not leverage", func(t *testing.T) {
		q := quarters(125, 120, 115, 110, 100, 95)
		q[0].OperatingExpenses = 62.5
		m := Evaluate("BURN", nil, q, unprofitable(), nil, DefaultThresholds())
		assert.False(t, m.Passed)
		assert.False(t, *m.OperatingLeverage)
	})
}

func TestEvaluate_GuardsNonPositivePriorRevenue(t *testing.T) {
	m := Evaluate("BAD", nil, quarters(125, 120, 115, 110, 0), nil, nil, DefaultThresholds())
	requireFail(t, m, "Data Error: non-positive prior-year quarter revenue (0.00)")
}

func TestEvaluate_NonFiniteInputsFail(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	growing := func() []models.FinancialPeriod { return quarters(125, 120, 115, 110, 100, 95) }

	tests := []struct {
		name      string
		annual    []models.FinancialPeriod
		quarterly []models.FinancialPeriod
		valuation *models.ValuationSnapshot
		quote     *models.Quote
		reason    string
	}{
		{
			name:      "nan P/E",
			quarterly: growing(),
			valuation: &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1), PERatioTTM: models.Ptr(nan)},
			reason:    "Data Error: non-finite P/E ratio",
		},
		{
			name:      "infinite upstream PEG",
			quarterly: growing(),
			valuation: &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1), PEGRatioTTM: models.Ptr(inf)},
			reason:    "Data Error: non-finite PEG ratio",
		},
		{
			name:      "nan net margin",
			quarterly: growing(),
			valuation: &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(nan)},
			reason:    "Data Error: non-finite net profit margin",
		},
		{
			name:      "nan price",
			quarterly: growing(),
			valuation: &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1)},
			quote:     &models.Quote{Price: models.Ptr(nan)},
			reason:    "Data Error: non-finite price",
		},
		{
			name: "nan EPS",
			quarterly: func() []models.FinancialPeriod {
				q := growing()
				q[1].EPS = nan
				return q
			}(),
			valuation: &models.ValuationSnapshot{NetProfitMarginTTM: models.Ptr(0.1)},
			quote:     &models.Quote{Price: models.Ptr(100.0)},
			reason:    "Data Error: non-finite trailing EPS sum",
		},
		{
			name: "nan gross profit on the unprofitable path",
			quarterly: func() []models.FinancialPeriod {
				q := growing()
				q[2].GrossProfit = nan
				return q
			}(),
			valuation: unprofitable(),
			reason:    "Data Error: non-finite gross margin slope",
		},
		{
			name:      "infinite annual revenue",
			annual:    annuals(100, 120, inf),
			quarterly: growing(),
			valuation: profitable(1.0),
			reason:    "Data Error: non-finite revenue CAGR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Evaluate("T", tt.annual, tt.quarterly, tt.valuation, tt.quote, DefaultThresholds())
			requireFail(t, m, tt.reason)

			_, err := json.Marshal(m)
			assert.NoError(t, err)
		})
	}
}

func TestHygiene_NonFiniteSBCIsAbsent(t *testing.T) {
	h := Hygiene(quarters(100, 100, 100, 100, 100), sbc(math.NaN(), 1, 1, 1), DefaultThresholds())
	assert.Nil(t, h)
}

func TestEvaluate_InvalidThresholds(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.QuartersForYoY = 0

	m := Evaluate("T", nil, quarters(125, 120, 115, 110, 100), nil, nil, cfg)

	assert.False(t, m.Passed)
	require.NotNil(t, m.FailReason)
	assert.Contains(t, *m.FailReason, "Configuration Error")
}

func TestEvaluate_CustomThresholds(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.GrowthThresholdQuarter = 0.30

	m := Evaluate("T", nil, quarters(125, 120, 115, 110, 100), profitable(1.0), nil, cfg)
	requireFail(t, m, "Low Growth (New IPO): Q_Growth 25.0% < 30.0%")
}

func TestEvaluate_BubbleLineTunableAlone(t *testing.T) {
	cfg := DefaultThresholds()
	cfg.PEGThresholdBubble = 1.2

	q := quarters(125, 120, 115, 110, 100)
	requirePass(t, Evaluate("T", nil, q, profitable(1.1), nil, cfg))
	requireFail(t, Evaluate("T", nil, q, profitable(1.3), nil, cfg), "PEG too high: 1.30 (threshold: 1.2)")
}

func TestEvaluate_PassedIffNoFailReasonAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := DefaultThresholds()

	for i := 0; i < 500; i++ {
		annual := make([]models.FinancialPeriod, rng.Intn(5))
		for j := range annual {
			annual[j] = models.FinancialPeriod{Revenue: rng.Float64()*400 - 50}
		}
		quarterly := make([]models.FinancialPeriod, rng.Intn(11))
		for j := range quarterly {
			rev := rng.Float64()*200 - 20
			quarterly[j] = models.FinancialPeriod{
				Revenue:           rev,
				GrossProfit:       rev * rng.Float64(),
				OperatingExpenses: rng.Float64()*100 - 10,
				EPS:               rng.Float64()*2 - 0.5,
			}
		}
		var val *models.ValuationSnapshot
		if rng.Intn(3) > 0 {
			val = &models.ValuationSnapshot{}
			if rng.Intn(2) == 0 {
				val.NetProfitMarginTTM = models.Ptr(rng.Float64()*0.2 - 0.1)
			}
			if rng.Intn(2) == 0 {
				val.PERatioTTM = models.Ptr(rng.Float64() * 80)
			}
			if rng.Intn(2) == 0 {
				val.PEGRatioTTM = models.Ptr(rng.Float64() * 4)
			}
		}
		var quote *models.Quote
		if rng.Intn(2) == 0 {
			quote = &models.Quote{Price: models.Ptr(rng.Float64() * 300)}
		}

		first := Evaluate("RND", annual, quarterly, val, quote, cfg)
		second := Evaluate("RND", annual, quarterly, val, quote, cfg)

		assert.Equal(t, first, second, "case %d not deterministic", i)
		if first.Passed {
			assert.Nil(t, first.FailReason, "case %d", i)
		} else {
			require.NotNil(t, first.FailReason, "case %d", i)
			assert.NotEmpty(t, *first.FailReason, "case %d", i)
		}
	}
}
