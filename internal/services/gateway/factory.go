package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/eodhd"
	"github.com/ternarybob/mgp/internal/fmp"
	"github.com/ternarybob/mgp/internal/interfaces"
)

// New builds the configured provider and wraps it with the cache when one is given
func New(cfg *common.Config, cache interfaces.CacheStorage, logger arbor.ILogger) (interfaces.FinancialDataGateway, error) {
	httpClient := &http.Client{Timeout: common.ParseDuration(cfg.Gateway.Timeout, 30*time.Second)}

	var upstream interfaces.FinancialDataGateway
	switch cfg.Gateway.Provider {
	case "", "fmp":
		apiKey, err := common.ResolveAPIKey("fmp", cfg.FMP.APIKey)
		if err != nil {
			return nil, fmt.Errorf("fmp gateway: %w", err)
		}
		client := fmp.NewClient(apiKey,
			fmp.WithBaseURL(cfg.FMP.BaseURL),
			fmp.WithHTTPClient(httpClient),
			fmp.WithRateLimit(cfg.FMP.RateLimit),
			fmp.WithLogger(logger),
		)
		upstream = NewFMPGateway(client, logger)
	case "eodhd":
		apiKey, err := common.ResolveAPIKey("eodhd", cfg.EODHD.APIKey)
		if err != nil {
			return nil, fmt.Errorf("eodhd gateway: %w", err)
		}
		client := eodhd.NewClient(apiKey,
			eodhd.WithBaseURL(cfg.EODHD.BaseURL),
			eodhd.WithHTTPClient(httpClient),
			eodhd.WithRateLimit(cfg.EODHD.RateLimit),
			eodhd.WithLogger(logger),
		)
		upstream = NewEODHDGateway(client, cfg.EODHD.Exchange, logger)
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Gateway.Provider)
	}

	logger.Debug().Str("provider", upstream.Name()).Msg("Financial data gateway ready")

	return NewCached(upstream, cache, common.ParseDuration(cfg.Gateway.CacheTTL, 0), logger), nil
}
