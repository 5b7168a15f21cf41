// Package gateway adapts financial data providers to interfaces.FinancialDataGateway.
// Adapters swallow transport errors: they log at warn level and return
// empty results so the Iron Gate sees missing data, never an error.
package gateway

import (
	"context"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/fmp"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// FMPGateway serves fundamentals from Financial Modeling Prep
type FMPGateway struct {
	client *fmp.Client
	logger arbor.ILogger
}

// NewFMPGateway creates an FMP-backed gateway
func NewFMPGateway(client *fmp.Client, logger arbor.ILogger) *FMPGateway {
	return &FMPGateway{client: client, logger: logger}
}

var _ interfaces.FinancialDataGateway = (*FMPGateway)(nil)

// Name implements interfaces.FinancialDataGateway
func (g *FMPGateway) Name() string { return "fmp" }

// GetIncomeStatement implements interfaces.FinancialDataGateway
func (g *FMPGateway) GetIncomeStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.FinancialPeriod {
	rows, err := g.client.GetIncomeStatement(ctx, ticker, fmp.Period(period), limit)
	if err != nil {
		g.warn(err, ticker, "income-statement")
		return nil
	}

	out := make([]models.FinancialPeriod, 0, len(rows))
	for _, r := range rows {
		fp := models.FinancialPeriod{
			Date:              r.Date,
			Revenue:           r.Revenue,
			GrossProfit:       r.GrossProfit,
			OperatingExpenses: r.OperatingExpenses,
			NetIncome:         r.NetIncome,
			EPS:               r.EPS,
			WeightedShares:    r.WeightedAverageShsDilu,
		}
		if fp.WeightedShares == nil {
			fp.WeightedShares = r.WeightedAverageShsOut
		}
		out = append(out, fp)
	}
	sortPeriodsDesc(out)
	return limitPeriods(out, limit)
}

// GetCashFlowStatement implements interfaces.FinancialDataGateway
func (g *FMPGateway) GetCashFlowStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.CashFlowPeriod {
	rows, err := g.client.GetCashFlowStatement(ctx, ticker, fmp.Period(period), limit)
	if err != nil {
		g.warn(err, ticker, "cash-flow-statement")
		return nil
	}

	out := make([]models.CashFlowPeriod, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.CashFlowPeriod{Date: r.Date, StockBasedCompensation: r.StockBasedCompensation})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetRatiosTTM implements interfaces.FinancialDataGateway
func (g *FMPGateway) GetRatiosTTM(ctx context.Context, ticker string) *models.ValuationSnapshot {
	ratios, err := g.client.GetRatiosTTM(ctx, ticker)
	if err != nil {
		g.warn(err, ticker, "ratios-ttm")
		return nil
	}
	if ratios == nil {
		return nil
	}
	return &models.ValuationSnapshot{
		NetProfitMarginTTM: ratios.NetProfitMarginTTM,
		PERatioTTM:         ratios.PE(),
		PEGRatioTTM:        ratios.PEG(),
	}
}

// GetQuote implements interfaces.FinancialDataGateway
func (g *FMPGateway) GetQuote(ctx context.Context, ticker string) *models.Quote {
	quote, err := g.client.GetQuote(ctx, ticker)
	if err != nil {
		g.warn(err, ticker, "quote")
		return nil
	}
	if quote == nil {
		return nil
	}
	return &models.Quote{Price: quote.Price, MarketCap: quote.MarketCap, Name: quote.Name}
}

// GetProfile implements interfaces.FinancialDataGateway
func (g *FMPGateway) GetProfile(ctx context.Context, ticker string) *models.CompanyProfile {
	profile, err := g.client.GetProfile(ctx, ticker)
	if err != nil {
		g.warn(err, ticker, "profile")
		return nil
	}
	if profile == nil {
		return nil
	}
	return &models.CompanyProfile{
		Name:        profile.CompanyName,
		Description: profile.Description,
		Sector:      profile.Sector,
		Industry:    profile.Industry,
		Website:     profile.Website,
	}
}

func (g *FMPGateway) warn(err error, ticker, endpoint string) {
	g.logger.Warn().
		Err(err).
		Str("ticker", ticker).
		Str("endpoint", endpoint).
		Msg("FMP request failed, continuing without data")
}

// limitPeriods trims a newest-first series to limit entries
// sortPeriodsDesc orders ISO-dated periods most recent first.
func sortPeriodsDesc(periods []models.FinancialPeriod) {
	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Date > periods[j].Date })
}

func limitPeriods(periods []models.FinancialPeriod, limit int) []models.FinancialPeriod {
	if limit > 0 && len(periods) > limit {
		return periods[:limit]
	}
	return periods
}
