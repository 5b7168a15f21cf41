package eodhd

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// RealTimeQuote is the /real-time response. EODHD returns "NA" for
// missing numbers, so values are decoded leniently.
type RealTimeQuote struct {
	Code      string     `json:"code"`
	Timestamp int64      `json:"timestamp"`
	Close     FlexNumber `json:"close"`
	Previous  FlexNumber `json:"previousClose"`
}

// FundamentalsResponse represents the fundamentals data for a symbol.
type FundamentalsResponse struct {
	General           *GeneralInfo       `json:"General"`
	Highlights        *Highlights        `json:"Highlights"`
	Valuation         *Valuation         `json:"Valuation"`
	OutstandingShares *OutstandingShares `json:"outstandingShares"`
	Financials        *Financials        `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code        string `json:"Code"`
	Name        string `json:"Name"`
	Exchange    string `json:"Exchange"`
	Sector      string `json:"Sector"`
	Industry    string `json:"Industry"`
	Description string `json:"Description"`
	WebURL      string `json:"WebURL"`
	IPODate     string `json:"IPODate"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization FlexNumber `json:"MarketCapitalization"`
	PERatio              FlexNumber `json:"PERatio"`
	PEGRatio             FlexNumber `json:"PEGRatio"`
	ProfitMargin         FlexNumber `json:"ProfitMargin"`
	RevenueTTM           FlexNumber `json:"RevenueTTM"`
	DilutedEpsTTM        FlexNumber `json:"DilutedEpsTTM"`
	MostRecentQuarter    string     `json:"MostRecentQuarter"`
}

// Valuation contains valuation metrics.
type Valuation struct {
	TrailingPE FlexNumber `json:"TrailingPE"`
	ForwardPE  FlexNumber `json:"ForwardPE"`
}

// OutstandingShares contains shares outstanding history.
type OutstandingShares struct {
	Annual    map[string]SharesEntry `json:"annual"`
	Quarterly map[string]SharesEntry `json:"quarterly"`
}

// SharesEntry represents a single entry in outstanding shares.
type SharesEntry struct {
	Date          string     `json:"date"`
	DateFormatted string     `json:"dateFormatted"`
	Shares        FlexNumber `json:"shares"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement represents a financial statement with quarterly and yearly data.
type FinancialStatement struct {
	Currency  string                            `json:"currency"`
	Quarterly map[string]map[string]interface{} `json:"quarterly"`
	Yearly    map[string]map[string]interface{} `json:"yearly"`
}

// StatementRow is one dated column of a statement.
type StatementRow struct {
	Date   string
	Values map[string]interface{}
}

// Number extracts a numeric field. EODHD encodes numbers as strings,
// numbers or null; anything unparseable yields (0, false).
func (r StatementRow) Number(field string) (float64, bool) {
	return toFloat(r.Values[field])
}

// Rows returns statement columns ordered newest first.
func (s *FinancialStatement) Rows(yearly bool) []StatementRow {
	if s == nil {
		return nil
	}
	src := s.Quarterly
	if yearly {
		src = s.Yearly
	}

	rows := make([]StatementRow, 0, len(src))
	for key, values := range src {
		date := key
		if d, ok := values["date"].(string); ok && d != "" {
			date = d
		}
		rows = append(rows, StatementRow{Date: date, Values: values})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows
}

// FlexNumber decodes JSON numbers, numeric strings, null and "NA".
type FlexNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Value, f.Valid = toFloat(raw)
	return nil
}

// Ptr returns the value as a pointer, or nil when it was missing.
func (f FlexNumber) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// toFloat rejects NaN and infinities, which ParseFloat accepts.
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
