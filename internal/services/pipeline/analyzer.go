// Package pipeline chains the Iron Gate and the LLM stages for a ticker and
// runs batches of tickers on a bounded worker pool.
package pipeline

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
	"github.com/ternarybob/mgp/internal/services/irongate"
	"github.com/ternarybob/mgp/internal/services/report"
)

// Identifier classifies a company's business model
type Identifier interface {
	Identify(ctx context.Context, ticker, description string) models.IdentifierData
}

// Researcher gathers qualitative intelligence
type Researcher interface {
	Gather(ctx context.Context, ticker string, identifier models.IdentifierData) models.IntelligenceData
}

// Judge renders the final verdict
type Judge interface {
	Judge(ctx context.Context, data models.CompanyData, cfg irongate.Thresholds) models.TribunalDecision
}

// ReportSaver writes per-ticker reports
type ReportSaver interface {
	Save(ctx context.Context, data models.CompanyData) (report.Paths, error)
}

// Options control a single analysis
type Options struct {
	Force    bool // run the LLM stages even when the gate fails
	GateOnly bool // stop after the gate, no LLM calls
	Workers  int  // batch concurrency; <= 0 uses the analyzer default
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithStages attaches the LLM stages
func WithStages(identifier Identifier, researcher Researcher, judge Judge) Option {
	return func(a *Analyzer) {
		a.identifier, a.researcher, a.judge = identifier, researcher, judge
	}
}

// WithRunStorage persists batch results
func WithRunStorage(runs interfaces.RunStorage) Option {
	return func(a *Analyzer) { a.runs = runs }
}

// WithReports writes a report for each batch result
func WithReports(saver ReportSaver) Option {
	return func(a *Analyzer) { a.reports = saver }
}

// WithWorkers sets the default batch concurrency
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// Analyzer runs the protocol for one or many tickers
type Analyzer struct {
	gateway    interfaces.FinancialDataGateway
	thresholds irongate.Thresholds
	identifier Identifier
	researcher Researcher
	judge      Judge
	runs       interfaces.RunStorage
	reports    ReportSaver
	workers    int
	logger     arbor.ILogger
}

// NewAnalyzer creates an analyzer over gateway
func NewAnalyzer(gateway interfaces.FinancialDataGateway, thresholds irongate.Thresholds, logger arbor.ILogger, opts ...Option) *Analyzer {
	a := &Analyzer{
		gateway:    gateway,
		thresholds: thresholds,
		workers:    1,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Thresholds returns the gate configuration in use
func (a *Analyzer) Thresholds() irongate.Thresholds {
	return a.thresholds
}

// companyState carries lazily fetched data through one ticker's chain
type companyState struct {
	data        models.CompanyData
	profile     *models.CompanyProfile
	profileRead bool
}

func (a *Analyzer) profile(ctx context.Context, st *companyState) *models.CompanyProfile {
	if !st.profileRead {
		st.profile = a.gateway.GetProfile(ctx, st.data.Ticker)
		st.profileRead = true
	}
	return st.profile
}

// ScreenOnly fetches fundamentals and evaluates the gate. It makes no LLM calls.
func (a *Analyzer) ScreenOnly(ctx context.Context, ticker string) models.CompanyData {
	return a.screen(ctx, &companyState{data: models.CompanyData{Ticker: ticker}}).data
}

func (a *Analyzer) screen(ctx context.Context, st *companyState) *companyState {
	ticker := st.data.Ticker
	cfg := a.thresholds

	annual := a.gateway.GetIncomeStatement(ctx, ticker, models.PeriodAnnual, cfg.AnnualLimit())
	quarterly := a.gateway.GetIncomeStatement(ctx, ticker, models.PeriodQuarter, cfg.QuarterlyLimit())
	ratios := a.gateway.GetRatiosTTM(ctx, ticker)
	quote := a.gateway.GetQuote(ctx, ticker)
	cashflow := a.gateway.GetCashFlowStatement(ctx, ticker, models.PeriodQuarter, cfg.QuartersForNISum)

	metrics := irongate.Evaluate(ticker, annual, quarterly, ratios, quote, cfg)
	metrics.Hygiene = irongate.Hygiene(quarterly, cashflow, cfg)
	st.data.IronGate = &metrics

	if quote != nil {
		st.data.CurrentPrice = quote.Price
		st.data.MarketCap = quote.MarketCap
		if quote.Name != "" {
			st.data.CompanyName = &quote.Name
		}
	}
	if st.data.CompanyName == nil {
		if p := a.profile(ctx, st); p != nil && p.Name != "" {
			st.data.CompanyName = &p.Name
		}
	}

	if metrics.Passed {
		a.logger.Info().Str("ticker", ticker).Msg("Iron Gate passed")
	} else {
		a.logger.Info().Str("ticker", ticker).Str("reason", metrics.Reason()).Msg("Iron Gate failed")
	}
	return st
}

// AnalyzeTicker runs the gate and, when it passes or Force is set, the
// identifier, intelligence and tribunal stages in order.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, ticker string, opts Options) models.CompanyData {
	st := a.screen(ctx, &companyState{data: models.CompanyData{Ticker: ticker}})

	if opts.GateOnly {
		return st.data
	}
	if !st.data.IronGate.Passed {
		if !opts.Force {
			return st.data
		}
		a.logger.Info().Str("ticker", ticker).Msg("Proceeding despite Iron Gate failure (force)")
	}
	if a.identifier == nil || a.researcher == nil || a.judge == nil {
		a.logger.Warn().Str("ticker", ticker).Msg("LLM stages not configured, stopping after Iron Gate")
		return st.data
	}
	if err := ctx.Err(); err != nil {
		return st.data
	}

	description := ""
	if p := a.profile(ctx, st); p != nil {
		description = strings.TrimSpace(p.Description)
	}

	identifier := a.identifier.Identify(ctx, ticker, description)
	st.data.Identifier = &identifier

	intelligence := a.researcher.Gather(ctx, ticker, identifier)
	st.data.Intelligence = &intelligence

	verdict := a.judge.Judge(ctx, st.data, a.thresholds)
	st.data.Tribunal = &verdict

	return st.data
}
