// Package fmp provides a client for the Financial Modeling Prep /stable API.
package fmp

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned when the client has no API key configured.
var ErrMissingAPIKey = errors.New("FMP API key is not set")

// APIError represents an error from the FMP API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// Period selects annual or quarterly statements.
type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodQuarter Period = "quarter"
)

// IncomeStatement is one row of /income-statement.
type IncomeStatement struct {
	Date                   string   `json:"date"`
	Symbol                 string   `json:"symbol"`
	Period                 string   `json:"period"`
	Revenue                float64  `json:"revenue"`
	GrossProfit            float64  `json:"grossProfit"`
	OperatingExpenses      float64  `json:"operatingExpenses"`
	NetIncome              float64  `json:"netIncome"`
	EPS                    float64  `json:"eps"`
	EPSDiluted             float64  `json:"epsDiluted"`
	WeightedAverageShsOut  *float64 `json:"weightedAverageShsOut"`
	WeightedAverageShsDilu *float64 `json:"weightedAverageShsOutDil"`
}

// CashFlowStatement is one row of /cash-flow-statement.
type CashFlowStatement struct {
	Date                   string  `json:"date"`
	StockBasedCompensation float64 `json:"stockBasedCompensation"`
	FreeCashFlow           float64 `json:"freeCashFlow"`
}

// RatiosTTM is the single row of /ratios-ttm. FMP renamed the PE and PEG
// fields; both spellings are decoded.
type RatiosTTM struct {
	NetProfitMarginTTM            *float64 `json:"netProfitMarginTTM"`
	PERatioTTM                    *float64 `json:"peRatioTTM"`
	PEGRatioTTM                   *float64 `json:"pegRatioTTM"`
	PriceToEarningsRatioTTM       *float64 `json:"priceToEarningsRatioTTM"`
	PriceToEarningsGrowthRatioTTM *float64 `json:"priceToEarningsGrowthRatioTTM"`
}

// PE returns the trailing PE under whichever name FMP sent.
func (r *RatiosTTM) PE() *float64 {
	if r.PERatioTTM != nil {
		return r.PERatioTTM
	}
	return r.PriceToEarningsRatioTTM
}

// PEG returns the trailing PEG under whichever name FMP sent.
func (r *RatiosTTM) PEG() *float64 {
	if r.PEGRatioTTM != nil {
		return r.PEGRatioTTM
	}
	return r.PriceToEarningsGrowthRatioTTM
}

// Quote is the single row of /quote.
type Quote struct {
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"marketCap"`
}

// Profile is the single row of /profile.
type Profile struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	Description string `json:"description"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
}
