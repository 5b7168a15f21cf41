package models

// IronGateMetrics is the output record of the quantitative gate.
// Passed is true iff FailReason is nil. Nil numerics mean "not computed",
// which is distinct from zero.
type IronGateMetrics struct {
	RevenueCAGR            *float64        `json:"revenue_cagr"`
	RevenueGrowthCurrentQ  *float64        `json:"revenue_growth_current_q"`
	RevenueGrowthPrevYearQ *float64        `json:"revenue_growth_prev_y_q"`
	PEGRatio               *float64        `json:"peg_ratio"`
	GrossMarginSlope       *float64        `json:"gross_margin_slope"` // positive means expanding
	OpexGrowth             *float64        `json:"opex_growth"`
	OperatingLeverage      *bool           `json:"operating_leverage"` // revenue growth > opex growth
	IsProfitable           *bool           `json:"is_profitable"`
	Passed                 bool            `json:"passed"`
	FailReason             *string         `json:"fail_reason"`
	Hygiene                *HygieneMetrics `json:"hygiene,omitempty"`
}

// HygieneMetrics captures dilution signals. Informational only.
type HygieneMetrics struct {
	SBCRevenueRatio      *float64 `json:"sbc_revenue_ratio"`
	ShareCountGrowth     *float64 `json:"share_count_growth"`
	DilutionShieldPassed *bool    `json:"dilution_shield_passed"`
}

// Reason returns the fail reason or an empty string.
func (m *IronGateMetrics) Reason() string {
	if m == nil || m.FailReason == nil {
		return ""
	}
	return *m.FailReason
}
