package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the FMP stable API.
	DefaultBaseURL = "https://financialmodelingprep.com/stable"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// Client is an FMP API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Non-positive values are ignored.
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// NewClient creates a new FMP API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request against an endpoint that returns a JSON array.
// An empty array decodes to an empty result without error.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("symbol", params.Get("symbol")).
			Msg("FMP API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   endpoint,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	return nil
}

func symbolParams(symbol string) url.Values {
	params := url.Values{}
	params.Set("symbol", symbol)
	return params
}

func statementParams(symbol string, period Period, limit int) url.Values {
	params := symbolParams(symbol)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if period == PeriodQuarter {
		params.Set("period", string(PeriodQuarter))
	}
	return params
}

// GetIncomeStatement returns income statements, most recent first.
func (c *Client) GetIncomeStatement(ctx context.Context, symbol string, period Period, limit int) ([]IncomeStatement, error) {
	var result []IncomeStatement
	if err := c.get(ctx, "income-statement", statementParams(symbol, period, limit), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetCashFlowStatement returns cash flow statements, most recent first.
func (c *Client) GetCashFlowStatement(ctx context.Context, symbol string, period Period, limit int) ([]CashFlowStatement, error) {
	var result []CashFlowStatement
	if err := c.get(ctx, "cash-flow-statement", statementParams(symbol, period, limit), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRatiosTTM returns trailing ratios, or nil when FMP has none.
func (c *Client) GetRatiosTTM(ctx context.Context, symbol string) (*RatiosTTM, error) {
	var result []RatiosTTM
	if err := c.get(ctx, "ratios-ttm", symbolParams(symbol), &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// GetQuote returns the latest quote, or nil when the symbol is unknown.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	var result []Quote
	if err := c.get(ctx, "quote", symbolParams(symbol), &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}

// GetProfile returns the company profile, or nil when the symbol is unknown.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var result []Profile
	if err := c.get(ctx, "profile", symbolParams(symbol), &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return &result[0], nil
}
