package models

import (
	"strings"
	"time"
)

// BusinessModel classifies how a company makes money.
type BusinessModel string

const (
	BusinessModelSaaS        BusinessModel = "SaaS"
	BusinessModelConsumption BusinessModel = "Consumption"
	BusinessModelMarketplace BusinessModel = "Marketplace"
	BusinessModelAdvertising BusinessModel = "Advertising"
	BusinessModelHardware    BusinessModel = "Hardware"
	BusinessModelOther       BusinessModel = "Other"
)

// BusinessModels lists every classification in prompt order.
var BusinessModels = []BusinessModel{
	BusinessModelSaaS,
	BusinessModelConsumption,
	BusinessModelMarketplace,
	BusinessModelAdvertising,
	BusinessModelHardware,
	BusinessModelOther,
}

// ParseBusinessModel matches case-insensitively and falls back to Other.
func ParseBusinessModel(s string) BusinessModel {
	for _, bm := range BusinessModels {
		if strings.EqualFold(strings.TrimSpace(s), string(bm)) {
			return bm
		}
	}
	return BusinessModelOther
}

// Decision is the final verdict of the tribunal.
type Decision string

const (
	DecisionConvictionBuy  Decision = "CONVICTION BUY"
	DecisionAccumulate     Decision = "ACCUMULATE"
	DecisionSpeculativeBuy Decision = "SPECULATIVE BUY"
	DecisionValueTrap      Decision = "VALUE TRAP"
	DecisionWatch          Decision = "WATCH"
	DecisionSkip           Decision = "SKIP" // gate failure
)

// Decisions lists every verdict.
var Decisions = []Decision{
	DecisionConvictionBuy,
	DecisionAccumulate,
	DecisionSpeculativeBuy,
	DecisionValueTrap,
	DecisionWatch,
	DecisionSkip,
}

// ParseDecision returns the matching decision and whether it was recognised.
func ParseDecision(s string) (Decision, bool) {
	norm := strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(s, "_", " ")), " "))
	for _, d := range Decisions {
		if norm == string(d) {
			return d, true
		}
	}
	return DecisionWatch, false
}

// Confidence grades a verdict.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence matches case-insensitively and falls back to Low.
func ParseConfidence(s string) Confidence {
	for _, c := range []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c
		}
	}
	return ConfidenceLow
}

// IdentifierData is the business-model classification of a company.
type IdentifierData struct {
	BusinessModel BusinessModel `json:"business_model"`
	SpecificKPIs  []string      `json:"specific_kpis"`
	BearCaseHook  string        `json:"bear_case_hook"`
}

// BlueSkyData describes option value beyond the core business.
type BlueSkyData struct {
	RnDEffectiveness string `json:"rnd_effectiveness"`
	TAMExpansion     string `json:"tam_expansion"`
}

// CatalystData lists near-term events and the non-consensus view.
type CatalystData struct {
	UpcomingEvents    []string `json:"upcoming_events"`
	VariantPerception string   `json:"variant_perception"`
}

// SourceRef is a cited web source.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IntelligenceData aggregates web-sourced qualitative research.
type IntelligenceData struct {
	KPIValues           map[string]string `json:"kpi_values"`
	ManagementIntegrity string            `json:"management_integrity"`
	ProductMoat         string            `json:"product_moat"`
	InsiderActivity     string            `json:"insider_activity"`
	DislocationContext  string            `json:"dislocation_context"`
	BlueSky             *BlueSkyData      `json:"blue_sky,omitempty"`
	Catalysts           *CatalystData     `json:"catalysts,omitempty"`
	Sources             []SourceRef       `json:"sources,omitempty"`
}

// TribunalDecision is the synthesized investment verdict.
type TribunalDecision struct {
	Decision           Decision   `json:"decision"`
	Confidence         Confidence `json:"confidence"`
	Rationale          string     `json:"rationale"`
	GrowthThesisIntact bool       `json:"growth_thesis_intact"`
	ValuationFit       bool       `json:"valuation_fit"`
	IsTrueDiscount     bool       `json:"is_true_discount"`
}

// CompanyData is the full per-ticker pipeline result.
type CompanyData struct {
	Ticker       string            `json:"ticker"`
	CompanyName  *string           `json:"company_name"`
	CurrentPrice *float64          `json:"current_price"`
	MarketCap    *float64          `json:"market_cap"`
	IronGate     *IronGateMetrics  `json:"iron_gate"`
	Identifier   *IdentifierData   `json:"identifier"`
	Intelligence *IntelligenceData `json:"intelligence"`
	Tribunal     *TribunalDecision `json:"tribunal"`
	Error        *string           `json:"error"`
}

// AnalysisReport wraps a company result with its headline verdict.
type AnalysisReport struct {
	Ticker        string      `json:"ticker"`
	Timestamp     time.Time   `json:"timestamp"`
	FinalDecision Decision    `json:"final_decision"`
	Summary       string      `json:"summary"`
	Details       CompanyData `json:"details"`
}

// NewAnalysisReport builds a report envelope. Tickers without a verdict are SKIP.
func NewAnalysisReport(data CompanyData, at time.Time) AnalysisReport {
	report := AnalysisReport{
		Ticker:        data.Ticker,
		Timestamp:     at,
		FinalDecision: DecisionSkip,
		Details:       data,
	}
	switch {
	case data.Tribunal != nil:
		report.FinalDecision = data.Tribunal.Decision
		report.Summary = data.Tribunal.Rationale
	case data.Error != nil:
		report.Summary = *data.Error
	case data.IronGate != nil:
		report.Summary = data.IronGate.Reason()
	}
	return report
}
