package models

import "time"

// RunRecord is one persisted ticker result from a batch run.
type RunRecord struct {
	ID         string      `json:"id"`
	RunID      string      `json:"run_id" badgerhold:"index"`
	Ticker     string      `json:"ticker" badgerhold:"index"`
	CreatedAt  time.Time   `json:"created_at"`
	Data       CompanyData `json:"data"`
	ReportPath string      `json:"report_path,omitempty"`
}

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}
