package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/eodhd"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// fundamentalsTTL bounds how long one fundamentals document is reused
// across the statement methods of a single ticker run.
const fundamentalsTTL = 2 * time.Minute

type fundamentalsEntry struct {
	fetched time.Time
	data    *eodhd.FundamentalsResponse
}

// EODHDGateway serves fundamentals from the EODHD fundamentals endpoint.
// One fundamentals document backs every statement method.
type EODHDGateway struct {
	client   *eodhd.Client
	exchange string
	logger   arbor.ILogger

	mu   sync.Mutex
	memo map[string]fundamentalsEntry
	now  func() time.Time
}

// NewEODHDGateway creates an EODHD-backed gateway. exchange is appended to bare tickers.
func NewEODHDGateway(client *eodhd.Client, exchange string, logger arbor.ILogger) *EODHDGateway {
	return &EODHDGateway{
		client:   client,
		exchange: exchange,
		logger:   logger,
		memo:     make(map[string]fundamentalsEntry),
		now:      time.Now,
	}
}

var _ interfaces.FinancialDataGateway = (*EODHDGateway)(nil)

// Name implements interfaces.FinancialDataGateway
func (g *EODHDGateway) Name() string { return "eodhd" }

func (g *EODHDGateway) fundamentals(ctx context.Context, ticker string) *eodhd.FundamentalsResponse {
	symbol := common.EODHDSymbol(ticker, g.exchange)

	g.mu.Lock()
	g.evictExpired()
	if entry, ok := g.memo[symbol]; ok {
		g.mu.Unlock()
		return entry.data
	}
	g.mu.Unlock()

	f, err := g.client.GetFundamentals(ctx, symbol)
	if err != nil {
		g.logger.Warn().Err(err).Str("ticker", ticker).Msg("EODHD fundamentals request failed, continuing without data")
		return nil
	}

	g.mu.Lock()
	g.memo[symbol] = fundamentalsEntry{fetched: g.now(), data: f}
	g.mu.Unlock()
	return f
}

// evictExpired drops stale documents; callers hold g.mu.
func (g *EODHDGateway) evictExpired() {
	now := g.now()
	for symbol, entry := range g.memo {
		if now.Sub(entry.fetched) >= fundamentalsTTL {
			delete(g.memo, symbol)
		}
	}
}

// GetIncomeStatement implements interfaces.FinancialDataGateway
func (g *EODHDGateway) GetIncomeStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.FinancialPeriod {
	f := g.fundamentals(ctx, ticker)
	if f == nil || f.Financials == nil {
		return nil
	}

	shares := sharesByDate(f.OutstandingShares, period)
	rows := f.Financials.IncomeStatement.Rows(period == models.PeriodAnnual)

	out := make([]models.FinancialPeriod, 0, len(rows))
	for _, row := range rows {
		revenue, ok := row.Number("totalRevenue")
		if !ok {
			// an unreported column is a missing period, not a zero one
			continue
		}
		fp := models.FinancialPeriod{Date: row.Date, Revenue: revenue}
		fp.GrossProfit, _ = row.Number("grossProfit")
		fp.OperatingExpenses, _ = row.Number("totalOperatingExpenses")
		fp.NetIncome, _ = row.Number("netIncome")

		if s, ok := shares[row.Date]; ok && s > 0 {
			fp.WeightedShares = models.Ptr(s)
			fp.EPS = fp.NetIncome / s
		}
		out = append(out, fp)
	}
	return limitPeriods(out, limit)
}

// GetCashFlowStatement implements interfaces.FinancialDataGateway
func (g *EODHDGateway) GetCashFlowStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.CashFlowPeriod {
	f := g.fundamentals(ctx, ticker)
	if f == nil || f.Financials == nil {
		return nil
	}

	rows := f.Financials.CashFlow.Rows(period == models.PeriodAnnual)
	out := make([]models.CashFlowPeriod, 0, len(rows))
	for _, row := range rows {
		sbc, ok := row.Number("stockBasedCompensation")
		if !ok {
			continue
		}
		out = append(out, models.CashFlowPeriod{Date: row.Date, StockBasedCompensation: sbc})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetRatiosTTM implements interfaces.FinancialDataGateway
func (g *EODHDGateway) GetRatiosTTM(ctx context.Context, ticker string) *models.ValuationSnapshot {
	f := g.fundamentals(ctx, ticker)
	if f == nil || f.Highlights == nil {
		return nil
	}

	snapshot := &models.ValuationSnapshot{
		NetProfitMarginTTM: f.Highlights.ProfitMargin.Ptr(),
		PERatioTTM:         f.Highlights.PERatio.Ptr(),
		PEGRatioTTM:        f.Highlights.PEGRatio.Ptr(),
	}
	if snapshot.PERatioTTM == nil && f.Valuation != nil {
		snapshot.PERatioTTM = f.Valuation.TrailingPE.Ptr()
	}
	return snapshot
}

// GetQuote implements interfaces.FinancialDataGateway
func (g *EODHDGateway) GetQuote(ctx context.Context, ticker string) *models.Quote {
	rt, err := g.client.GetRealTimeQuote(ctx, common.EODHDSymbol(ticker, g.exchange))
	if err != nil {
		g.logger.Warn().Err(err).Str("ticker", ticker).Msg("EODHD quote request failed, continuing without data")
		return nil
	}

	quote := &models.Quote{Price: rt.Close.Ptr()}
	if f := g.fundamentals(ctx, ticker); f != nil {
		if f.General != nil {
			quote.Name = f.General.Name
		}
		if f.Highlights != nil {
			quote.MarketCap = f.Highlights.MarketCapitalization.Ptr()
		}
	}
	return quote
}

// GetProfile implements interfaces.FinancialDataGateway
func (g *EODHDGateway) GetProfile(ctx context.Context, ticker string) *models.CompanyProfile {
	f := g.fundamentals(ctx, ticker)
	if f == nil || f.General == nil {
		return nil
	}
	return &models.CompanyProfile{
		Name:        f.General.Name,
		Description: f.General.Description,
		Sector:      f.General.Sector,
		Industry:    f.General.Industry,
		Website:     f.General.WebURL,
	}
}

func sharesByDate(shares *eodhd.OutstandingShares, period models.Period) map[string]float64 {
	out := map[string]float64{}
	if shares == nil {
		return out
	}
	src := shares.Quarterly
	if period == models.PeriodAnnual {
		src = shares.Annual
	}
	for _, entry := range src {
		if entry.Shares.Valid {
			out[entry.DateFormatted] = entry.Shares.Value
		}
	}
	return out
}
