package common

import (
	"strings"
)

// NormalizeTicker trims and upper-cases a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ParseTickerList splits a comma or whitespace separated list into
// normalized, de-duplicated tickers preserving first-seen order.
func ParseTickerList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';'
	})
	return DedupeTickers(fields)
}

// DedupeTickers normalizes tickers and drops blanks and repeats
func DedupeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// EODHDSymbol converts a bare ticker to EODHD CODE.EXCHANGE format.
// Tickers that already carry a suffix are returned unchanged.
func EODHDSymbol(ticker, exchange string) string {
	ticker = NormalizeTicker(ticker)
	if strings.Contains(ticker, ".") || exchange == "" {
		return ticker
	}
	return ticker + "." + strings.ToUpper(exchange)
}
