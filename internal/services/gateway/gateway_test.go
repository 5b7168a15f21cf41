package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/eodhd"
	"github.com/ternarybob/mgp/internal/fmp"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

func fmpServer(t *testing.T, handler http.HandlerFunc) *FMPGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := fmp.NewClient("k", fmp.WithBaseURL(srv.URL), fmp.WithRateLimit(100))
	return NewFMPGateway(client, arbor.NewLogger())
}

func TestFMPGateway_MapsStatements(t *testing.T) {
	gw := fmpServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/income-statement":
			w.Write([]byte(`[
				{"date":"2025-06-30","revenue":125,"grossProfit":80,"operatingExpenses":50,"netIncome":10,"eps":0.5,"weightedAverageShsOut":100,"weightedAverageShsOutDil":104},
				{"date":"2025-03-31","revenue":120,"grossProfit":78,"operatingExpenses":49,"netIncome":9,"eps":0.45}
			]`))
		case "/ratios-ttm":
			w.Write([]byte(`[{"netProfitMarginTTM":0.08,"peRatioTTM":40,"pegRatioTTM":0}]`))
		case "/quote":
			w.Write([]byte(`[{"symbol":"DUOL","name":"Duolingo","price":310.5,"marketCap":14000000000}]`))
		default:
			w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	periods := gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 1)
	require.Len(t, periods, 1, "trimmed to limit")
	assert.Equal(t, 125.0, periods[0].Revenue)
	assert.Equal(t, 104.0, *periods[0].WeightedShares, "diluted shares preferred")

	ratios := gw.GetRatiosTTM(ctx, "DUOL")
	require.NotNil(t, ratios)
	assert.Equal(t, 0.08, *ratios.NetProfitMarginTTM)
	assert.Equal(t, 0.0, *ratios.PEGRatioTTM, "upstream zero is preserved")

	quote := gw.GetQuote(ctx, "DUOL")
	require.NotNil(t, quote)
	assert.Equal(t, "Duolingo", quote.Name)

	assert.Nil(t, gw.GetProfile(ctx, "DUOL"), "empty array is nil")
}

func TestFMPGateway_ServerErrorDegradesToEmpty(t *testing.T) {
	gw := fmpServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	})
	ctx := context.Background()

	assert.Empty(t, gw.GetIncomeStatement(ctx, "DUOL", models.PeriodAnnual, 4))
	assert.Empty(t, gw.GetCashFlowStatement(ctx, "DUOL", models.PeriodQuarter, 4))
	assert.Nil(t, gw.GetRatiosTTM(ctx, "DUOL"))
	assert.Nil(t, gw.GetQuote(ctx, "DUOL"))
	assert.Nil(t, gw.GetProfile(ctx, "DUOL"))
}

const eodhdFixture = `{
  "General": {"Name":"Duolingo Inc","Description":"Language app","Sector":"Technology"},
  "Highlights": {"MarketCapitalization": 14000000000, "ProfitMargin": "0.08", "PERatio": null, "PEGRatio": 1.2},
  "Valuation": {"TrailingPE": 95},
  "outstandingShares": {"quarterly": {"0": {"dateFormatted":"2025-06-30","shares":50}}},
  "Financials": {
    "Income_Statement": {"quarterly": {
      "2025-03-31": {"date":"2025-03-31","totalRevenue":"120","grossProfit":"78","totalOperatingExpenses":"49","netIncome":"9"},
      "2025-06-30": {"date":"2025-06-30","totalRevenue":"125","grossProfit":"80","totalOperatingExpenses":"50","netIncome":"10"},
      "2024-12-31": {"date":"2024-12-31","totalRevenue":null}
    }},
    "Cash_Flow": {"quarterly": {
      "2025-06-30": {"date":"2025-06-30","stockBasedCompensation":"20"}
    }}
  }
}`

func TestEODHDGateway_MapsFundamentals(t *testing.T) {
	var mu sync.Mutex
	calls := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls[r.URL.Path]++
		mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/real-time/") {
			w.Write([]byte(`{"code":"DUOL.US","close":"310.5"}`))
			return
		}
		w.Write([]byte(eodhdFixture))
	}))
	defer srv.Close()

	client := eodhd.NewClient("k", eodhd.WithBaseURL(srv.URL), eodhd.WithRateLimit(100))
	gw := NewEODHDGateway(client, "US", arbor.NewLogger())
	ctx := context.Background()

	periods := gw.GetIncomeStatement(ctx, "duol", models.PeriodQuarter, 9)
	require.Len(t, periods, 2, "columns without revenue are skipped")
	assert.Equal(t, "2025-06-30", periods[0].Date)
	assert.Equal(t, 80.0, periods[0].GrossProfit)
	assert.InDelta(t, 0.2, periods[0].EPS, 1e-12, "EPS derived from net income and shares")
	assert.Nil(t, periods[1].WeightedShares)

	cash := gw.GetCashFlowStatement(ctx, "DUOL", models.PeriodQuarter, 4)
	require.Len(t, cash, 1)
	assert.Equal(t, 20.0, cash[0].StockBasedCompensation)

	ratios := gw.GetRatiosTTM(ctx, "DUOL")
	assert.Equal(t, 0.08, *ratios.NetProfitMarginTTM)
	assert.Equal(t, 95.0, *ratios.PERatioTTM, "falls back to Valuation.TrailingPE")
	assert.Equal(t, 1.2, *ratios.PEGRatioTTM)

	quote := gw.GetQuote(ctx, "DUOL")
	require.NotNil(t, quote)
	assert.Equal(t, 310.5, *quote.Price)
	assert.Equal(t, "Duolingo Inc", quote.Name)

	assert.Equal(t, "Language app", gw.GetProfile(ctx, "DUOL").Description)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls["/fundamentals/DUOL.US"], "fundamentals document is reused")
}

func TestFMPGateway_SortsMostRecentFirst(t *testing.T) {
	gw := fmpServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/income-statement":
			w.Write([]byte(`[
				{"date":"2024-12-31","revenue":115},
				{"date":"2025-06-30","revenue":125},
				{"date":"2025-03-31","revenue":120}
			]`))
		case "/cash-flow-statement":
			w.Write([]byte(`[
				{"date":"2025-03-31","stockBasedCompensation":4},
				{"date":"2025-06-30","stockBasedCompensation":5}
			]`))
		default:
			w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	periods := gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 2)
	require.Len(t, periods, 2)
	assert.Equal(t, "2025-06-30", periods[0].Date)
	assert.Equal(t, "2025-03-31", periods[1].Date)

	cash := gw.GetCashFlowStatement(ctx, "DUOL", models.PeriodQuarter, 1)
	require.Len(t, cash, 1)
	assert.Equal(t, 5.0, cash[0].StockBasedCompensation)
}

func TestEODHDGateway_EvictsExpiredFundamentals(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.Write([]byte(eodhdFixture))
	}))
	defer srv.Close()

	client := eodhd.NewClient("k", eodhd.WithBaseURL(srv.URL), eodhd.WithRateLimit(100))
	gw := NewEODHDGateway(client, "US", arbor.NewLogger())
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return clock }
	ctx := context.Background()

	gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 9)
	gw.GetIncomeStatement(ctx, "NVDA", models.PeriodQuarter, 9)
	assert.Len(t, gw.memo, 2)

	clock = clock.Add(fundamentalsTTL)
	gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 9)

	assert.Len(t, gw.memo, 1, "expired NVDA document is dropped")
	_, ok := gw.memo["NVDA.US"]
	assert.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
}

// fakeGateway counts upstream calls
type fakeGateway struct {
	incomeCalls int
	quoteCalls  int
	income      []models.FinancialPeriod
}

func (f *fakeGateway) Name() string { return "fake" }
func (f *fakeGateway) GetIncomeStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.FinancialPeriod {
	f.incomeCalls++
	return f.income
}
func (f *fakeGateway) GetCashFlowStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.CashFlowPeriod {
	return nil
}
func (f *fakeGateway) GetRatiosTTM(ctx context.Context, ticker string) *models.ValuationSnapshot {
	return &models.ValuationSnapshot{PEGRatioTTM: models.Ptr(1.1)}
}
func (f *fakeGateway) GetQuote(ctx context.Context, ticker string) *models.Quote {
	f.quoteCalls++
	return &models.Quote{Price: models.Ptr(10.0)}
}
func (f *fakeGateway) GetProfile(ctx context.Context, ticker string) *models.CompanyProfile {
	return nil
}

// memoryCache is an in-memory interfaces.CacheStorage
type memoryCache struct {
	data map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return v, nil
}
func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}
func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestCached_SecondCallServedFromStore(t *testing.T) {
	upstream := &fakeGateway{income: []models.FinancialPeriod{{Date: "2025-06-30", Revenue: 125}}}
	cache := &memoryCache{data: map[string][]byte{}}
	gw := NewCached(upstream, cache, time.Hour, arbor.NewLogger())
	ctx := context.Background()

	first := gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 9)
	second := gw.GetIncomeStatement(ctx, "DUOL", models.PeriodQuarter, 9)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.incomeCalls)
	assert.Contains(t, cache.data, "gateway:fake:income:DUOL:quarter:9")

	gw.GetQuote(ctx, "DUOL")
	gw.GetQuote(ctx, "DUOL")
	assert.Equal(t, 2, upstream.quoteCalls, "quotes are never cached")

	assert.Equal(t, 1.1, *gw.GetRatiosTTM(ctx, "DUOL").PEGRatioTTM)
	assert.Equal(t, 1.1, *gw.GetRatiosTTM(ctx, "DUOL").PEGRatioTTM)
}

func TestCached_EmptyResultsNotCached(t *testing.T) {
	upstream := &fakeGateway{}
	cache := &memoryCache{data: map[string][]byte{}}
	gw := NewCached(upstream, cache, time.Hour, arbor.NewLogger())

	gw.GetIncomeStatement(context.Background(), "NEW", models.PeriodAnnual, 4)
	gw.GetIncomeStatement(context.Background(), "NEW", models.PeriodAnnual, 4)

	assert.Equal(t, 2, upstream.incomeCalls)
	assert.Empty(t, cache.data)
	assert.Nil(t, gw.GetProfile(context.Background(), "NEW"))
}

func TestNewCached_DisabledReturnsUpstream(t *testing.T) {
	upstream := &fakeGateway{}
	assert.Same(t, upstream, NewCached(upstream, nil, time.Hour, arbor.NewLogger()))
	assert.Same(t, upstream, NewCached(upstream, &memoryCache{}, 0, arbor.NewLogger()))
}
