package models

// Period selects the reporting frequency of a statement series.
type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodQuarter Period = "quarter"
)

// FinancialPeriod is one income-statement record.
// Series of periods are always ordered most-recent-first (index 0 = latest).
// A missing period shortens the series; it is never zero-filled.
type FinancialPeriod struct {
	Date              string   `json:"date"`
	Revenue           float64  `json:"revenue"`
	GrossProfit       float64  `json:"gross_profit"`
	OperatingExpenses float64  `json:"operating_expenses"`
	NetIncome         float64  `json:"net_income"`
	EPS               float64  `json:"eps"`
	WeightedShares    *float64 `json:"weighted_shares,omitempty"` // diluted weighted average shares
}

// CashFlowPeriod carries the cash-flow fields used by the hygiene check.
type CashFlowPeriod struct {
	Date                   string  `json:"date"`
	StockBasedCompensation float64 `json:"stock_based_compensation"`
}

// ValuationSnapshot holds trailing-twelve-month ratios. Any field may be absent.
type ValuationSnapshot struct {
	NetProfitMarginTTM *float64 `json:"net_profit_margin_ttm,omitempty"`
	PERatioTTM         *float64 `json:"pe_ratio_ttm,omitempty"`
	PEGRatioTTM        *float64 `json:"peg_ratio_ttm,omitempty"`
}

// Quote is a live price snapshot, used for display and as a P/E fallback input.
type Quote struct {
	Price     *float64 `json:"price,omitempty"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// CompanyProfile is descriptive company metadata.
type CompanyProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Sector      string `json:"sector,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Website     string `json:"website,omitempty"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
