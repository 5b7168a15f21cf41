package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/models"
)

// Cached decorates a gateway with a byte cache. Statements, ratios and
// profiles are cached; quotes always go upstream. Cache failures are logged
// and never surface.
type Cached struct {
	upstream interfaces.FinancialDataGateway
	cache    interfaces.CacheStorage
	ttl      time.Duration
	logger   arbor.ILogger
}

// NewCached wraps upstream. A nil cache or non-positive ttl returns upstream unchanged.
func NewCached(upstream interfaces.FinancialDataGateway, cache interfaces.CacheStorage, ttl time.Duration, logger arbor.ILogger) interfaces.FinancialDataGateway {
	if cache == nil || ttl <= 0 {
		return upstream
	}
	return &Cached{upstream: upstream, cache: cache, ttl: ttl, logger: logger}
}

// Name implements interfaces.FinancialDataGateway
func (c *Cached) Name() string { return c.upstream.Name() }

func (c *Cached) key(method, ticker string, period models.Period, limit int) string {
	return fmt.Sprintf("gateway:%s:%s:%s:%s:%d", c.upstream.Name(), method, ticker, period, limit)
}

// load decodes a cached payload into out and reports a hit
func (c *Cached) load(ctx context.Context, key string, out interface{}) bool {
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Gateway cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Gateway cache entry unreadable, refetching")
		return false
	}
	c.logger.Trace().Str("key", key).Msg("Gateway cache hit")
	return true
}

func (c *Cached) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Gateway cache encode failed")
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Gateway cache write failed")
	}
}

// GetIncomeStatement implements interfaces.FinancialDataGateway
func (c *Cached) GetIncomeStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.FinancialPeriod {
	key := c.key("income", ticker, period, limit)
	var cached []models.FinancialPeriod
	if c.load(ctx, key, &cached) {
		return cached
	}

	fresh := c.upstream.GetIncomeStatement(ctx, ticker, period, limit)
	if len(fresh) > 0 {
		c.store(ctx, key, fresh)
	}
	return fresh
}

// GetCashFlowStatement implements interfaces.FinancialDataGateway
func (c *Cached) GetCashFlowStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.CashFlowPeriod {
	key := c.key("cashflow", ticker, period, limit)
	var cached []models.CashFlowPeriod
	if c.load(ctx, key, &cached) {
		return cached
	}

	fresh := c.upstream.GetCashFlowStatement(ctx, ticker, period, limit)
	if len(fresh) > 0 {
		c.store(ctx, key, fresh)
	}
	return fresh
}

// GetRatiosTTM implements interfaces.FinancialDataGateway
func (c *Cached) GetRatiosTTM(ctx context.Context, ticker string) *models.ValuationSnapshot {
	key := c.key("ratios", ticker, "", 0)
	var cached models.ValuationSnapshot
	if c.load(ctx, key, &cached) {
		return &cached
	}

	fresh := c.upstream.GetRatiosTTM(ctx, ticker)
	if fresh != nil {
		c.store(ctx, key, fresh)
	}
	return fresh
}

// GetQuote implements interfaces.FinancialDataGateway
func (c *Cached) GetQuote(ctx context.Context, ticker string) *models.Quote {
	return c.upstream.GetQuote(ctx, ticker)
}

// GetProfile implements interfaces.FinancialDataGateway
func (c *Cached) GetProfile(ctx context.Context, ticker string) *models.CompanyProfile {
	key := c.key("profile", ticker, "", 0)
	var cached models.CompanyProfile
	if c.load(ctx, key, &cached) {
		return &cached
	}

	fresh := c.upstream.GetProfile(ctx, ticker)
	if fresh != nil {
		c.store(ctx, key, fresh)
	}
	return fresh
}
