// Package irongate implements the quantitative growth gate: CAGR and
// quarterly momentum, deceleration detection, and the profitability split
// between PEG valuation and margin/operating-leverage efficiency.
// All functions are pure: no I/O, no clock, no shared mutable state.
package irongate

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// Thresholds are the tunable parameters of the gate.
// They are passed by value into Evaluate and never read from globals.
type Thresholds struct {
	// Lookback windows
	CAGRYears              int `toml:"cagr_years" validate:"gte=1"`                                 // annual periods fetched = CAGRYears+1
	QuartersForYoY         int `toml:"quarters_for_yoy" validate:"gte=2"`                           // Q0 vs Q-(n-1)
	QuartersForDecelCheck  int `toml:"quarters_for_decel_check" validate:"gtefield=QuartersForYoY"` // supports the Q-8 comparison
	QuartersForMarginSlope int `toml:"quarters_for_margin_slope" validate:"gte=2"`                  // gross margin regression window
	QuartersForNISum       int `toml:"quarters_for_ni_sum" validate:"gte=1"`                        // TTM EPS and SBC sums

	// Growth
	GrowthThresholdCAGR      float64 `toml:"growth_threshold_cagr"`
	GrowthThresholdQuarter   float64 `toml:"growth_threshold_quarter"`
	DecelPrevGrowthThreshold float64 `toml:"decel_prev_growth_threshold"` // alarm only armed above this prior growth
	DecelDropRatio           float64 `toml:"decel_drop_ratio" validate:"gt=0,lte=1"`

	// Profitability and valuation
	MinNetMarginForPEG    float64 `toml:"min_net_margin_for_peg"`
	PEGThresholdStrongBuy float64 `toml:"peg_threshold_strong_buy"` // display band, see ValidateBands
	PEGThresholdBuy       float64 `toml:"peg_threshold_buy"`        // display band
	PEGThresholdBubble    float64 `toml:"peg_threshold_bubble" validate:"gt=0"`
	PEGThresholdSell      float64 `toml:"peg_threshold_sell"` // display band
	HighGrowthExemption   float64 `toml:"high_growth_exemption"`

	// Unprofitable path
	GrossMarginSlopeTolerance float64 `toml:"gross_margin_slope_tolerance" validate:"lte=0"`

	// Hygiene (informational)
	MaxSBCRevenueRatio  float64 `toml:"max_sbc_revenue_ratio" validate:"gt=0"`
	MaxShareCountGrowth float64 `toml:"max_share_count_growth"`
}

// DefaultThresholds returns the protocol defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CAGRYears:              3,
		QuartersForYoY:         5,
		QuartersForDecelCheck:  9,
		QuartersForMarginSlope: 6,
		QuartersForNISum:       4,

		GrowthThresholdCAGR:      0.15,
		GrowthThresholdQuarter:   0.20,
		DecelPrevGrowthThreshold: 0.40,
		DecelDropRatio:           0.7,

		MinNetMarginForPEG:    0.03,
		PEGThresholdStrongBuy: 1.0,
		PEGThresholdBuy:       1.5,
		PEGThresholdBubble:    2.0,
		PEGThresholdSell:      2.5,
		HighGrowthExemption:   0.40,

		GrossMarginSlopeTolerance: -0.005,

		MaxSBCRevenueRatio:  0.20,
		MaxShareCountGrowth: 0.05,
	}
}

// Validate checks the fields Evaluate and Hygiene consume. Display bands are
// checked separately so the bubble line can be tuned on its own.
func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid gate thresholds: %w", err)
	}
	return nil
}

// ValidateBands checks the valuation bands used for reporting:
// 0 < strong_buy <= buy <= sell, and a positive high-growth exemption.
// The bubble line may sit anywhere; ValuationBand resolves bands in order.
func (t Thresholds) ValidateBands() error {
	switch {
	case !(t.PEGThresholdStrongBuy > 0):
		return fmt.Errorf("invalid valuation bands: peg_threshold_strong_buy must be positive, got %v", t.PEGThresholdStrongBuy)
	case !(t.PEGThresholdStrongBuy <= t.PEGThresholdBuy):
		return fmt.Errorf("invalid valuation bands: peg_threshold_strong_buy %v above peg_threshold_buy %v", t.PEGThresholdStrongBuy, t.PEGThresholdBuy)
	case !(t.PEGThresholdBuy <= t.PEGThresholdSell):
		return fmt.Errorf("invalid valuation bands: peg_threshold_buy %v above peg_threshold_sell %v", t.PEGThresholdBuy, t.PEGThresholdSell)
	case !(t.HighGrowthExemption > 0):
		return fmt.Errorf("invalid valuation bands: high_growth_exemption must be positive, got %v", t.HighGrowthExemption)
	}
	return nil
}

// AnnualLimit is the number of annual periods the gate consumes.
func (t Thresholds) AnnualLimit() int {
	return t.CAGRYears + 1
}

// QuarterlyLimit is the number of quarterly periods the gate consumes.
func (t Thresholds) QuarterlyLimit() int {
	n := t.QuartersForDecelCheck
	if t.QuartersForMarginSlope > n {
		n = t.QuartersForMarginSlope
	}
	return n
}
