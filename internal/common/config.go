package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/mgp/internal/services/irongate"
)

// Config represents the application configuration
type Config struct {
	Gate      irongate.Thresholds `toml:"gate"`
	Gateway   GatewayConfig       `toml:"gateway"`
	FMP       FMPConfig           `toml:"fmp"`
	EODHD     EODHDConfig         `toml:"eodhd"`
	LLM       LLMConfig           `toml:"llm"`
	Gemini    GeminiConfig        `toml:"gemini"`
	Claude    ClaudeConfig        `toml:"claude"`
	Search    SearchConfig        `toml:"search"`
	Pipeline  PipelineConfig      `toml:"pipeline"`
	Output    OutputConfig        `toml:"output"`
	Storage   StorageConfig       `toml:"storage"`
	Scheduler SchedulerConfig     `toml:"scheduler"`
	Logging   LoggingConfig       `toml:"logging"`
}

// GatewayConfig selects the financial data provider
type GatewayConfig struct {
	Provider string `toml:"provider" validate:"oneof=fmp eodhd"` // "fmp" (default) or "eodhd"
	CacheTTL string `toml:"cache_ttl"`                           // Cache lifetime for statements, e.g. "12h"; "0" disables
	Timeout  string `toml:"timeout"`                             // HTTP timeout, e.g. "30s"
}

// FMPConfig contains Financial Modeling Prep API configuration
type FMPConfig struct {
	APIKey    string  `toml:"api_key"`    // FMP API key (FMP_API_KEY)
	BaseURL   string  `toml:"base_url"`   // Default: https://financialmodelingprep.com/stable
	RateLimit float64 `toml:"rate_limit"` // Requests per second
}

// EODHDConfig contains EODHD API configuration
type EODHDConfig struct {
	APIKey    string  `toml:"api_key"`    // EODHD API key (EODHD_API_KEY)
	BaseURL   string  `toml:"base_url"`   // Default: https://eodhd.com/api
	Exchange  string  `toml:"exchange"`   // Exchange suffix appended to bare tickers (default: "US")
	RateLimit float64 `toml:"rate_limit"` // Requests per second
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // GEMINI_API_KEY / GOOGLE_API_KEY
	Model       string  `toml:"model"`       // Default: "gemini-3-flash-preview"
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // ANTHROPIC_API_KEY
	Model       string  `toml:"model"`       // Default: "claude-sonnet-4-5"
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// SearchConfig contains web search configuration
type SearchConfig struct {
	Provider        string `toml:"provider" validate:"oneof=gemini tavily duckduckgo disabled"` // Search backend
	APIKey          string `toml:"api_key"`                                            // Tavily key (TAVILY_API_KEY)
	BaseURL         string `toml:"base_url"`                                           // Backend endpoint override
	MaxResults      int    `toml:"max_results" validate:"gte=1"`                       // Results per query
	MaxContentChars int    `toml:"max_content_chars" validate:"gte=0"`                 // Truncate each result; 0 = unlimited
	Timeout         string `toml:"timeout"`                                            // HTTP timeout
}

// PipelineConfig controls per-ticker orchestration
type PipelineConfig struct {
	Workers int  `toml:"workers" validate:"gte=1"` // Concurrent tickers (default: 1, sequential)
	Force   bool `toml:"force"`                    // Run deep dive even when the gate fails
}

// OutputConfig controls report files
type OutputConfig struct {
	Dir               string `toml:"dir"`                // Directory for reports and results
	ResultsFile       string `toml:"results_file"`       // Default: results.json
	Translate         bool   `toml:"translate"`          // Also write a translated report
	TranslateLanguage string `toml:"translate_language"` // Default: Chinese
	PDF               bool   `toml:"pdf"`                // Also render reports as PDF
	Summary           bool   `toml:"summary"`            // Write SUMMARY_<date>.md for batches
	Workbook          bool   `toml:"workbook"`           // Also write results.xlsx
}

// StorageConfig contains BadgerDB configuration
type StorageConfig struct {
	Enabled bool   `toml:"enabled"` // Persist run records and gateway cache
	Path    string `toml:"path"`    // Database directory path
}

// SchedulerConfig controls the watch command
type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // Cron expression with seconds field
}

// LoggingConfig contains log output configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	Dir        string   `toml:"dir"`         // Log file directory
	TimeFormat string   `toml:"time_format"` // Default: "15:04:05"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Gate: irongate.DefaultThresholds(),
		Gateway: GatewayConfig{
			Provider: "fmp",
			CacheTTL: "12h", // Statements change quarterly; quotes are never cached
			Timeout:  "30s",
		},
		FMP: FMPConfig{
			BaseURL:   "https://financialmodelingprep.com/stable",
			RateLimit: 5,
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			Exchange:  "US",
			RateLimit: 10,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-5",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.2,
		},
		Search: SearchConfig{
			Provider:        "gemini",
			MaxResults:      3,
			MaxContentChars: 4000,
			Timeout:         "30s",
		},
		Pipeline: PipelineConfig{
			Workers: 1,
		},
		Output: OutputConfig{
			Dir:               ".",
			ResultsFile:       "results.json",
			TranslateLanguage: "Chinese",
			Summary:           true,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "./data/mgp",
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 30 16 * * 1-5", // Weekdays after the US close
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			Dir:        "./logs",
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> .env -> env
// Later files override earlier files. CLI flags are applied by the caller afterwards.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// .env never overrides variables already set in the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Gate thresholds
	ints := map[string]*int{
		"MGP_GATE_CAGR_YEARS":                &config.Gate.CAGRYears,
		"MGP_GATE_QUARTERS_FOR_YOY":          &config.Gate.QuartersForYoY,
		"MGP_GATE_QUARTERS_FOR_DECEL_CHECK":  &config.Gate.QuartersForDecelCheck,
		"MGP_GATE_QUARTERS_FOR_MARGIN_SLOPE": &config.Gate.QuartersForMarginSlope,
		"MGP_GATE_QUARTERS_FOR_NI_SUM":       &config.Gate.QuartersForNISum,
		"MGP_PIPELINE_WORKERS":               &config.Pipeline.Workers,
		"MGP_SEARCH_MAX_RESULTS":             &config.Search.MaxResults,
	}
	for name, target := range ints {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	floats := map[string]*float64{
		"MGP_GATE_GROWTH_THRESHOLD_CAGR":        &config.Gate.GrowthThresholdCAGR,
		"MGP_GATE_GROWTH_THRESHOLD_QUARTER":     &config.Gate.GrowthThresholdQuarter,
		"MGP_GATE_DECEL_PREV_GROWTH_THRESHOLD":  &config.Gate.DecelPrevGrowthThreshold,
		"MGP_GATE_DECEL_DROP_RATIO":             &config.Gate.DecelDropRatio,
		"MGP_GATE_MIN_NET_MARGIN_FOR_PEG":       &config.Gate.MinNetMarginForPEG,
		"MGP_GATE_PEG_THRESHOLD_STRONG_BUY":     &config.Gate.PEGThresholdStrongBuy,
		"MGP_GATE_PEG_THRESHOLD_BUY":            &config.Gate.PEGThresholdBuy,
		"MGP_GATE_PEG_THRESHOLD_BUBBLE":         &config.Gate.PEGThresholdBubble,
		"MGP_GATE_PEG_THRESHOLD_SELL":           &config.Gate.PEGThresholdSell,
		"MGP_GATE_HIGH_GROWTH_EXEMPTION":        &config.Gate.HighGrowthExemption,
		"MGP_GATE_GROSS_MARGIN_SLOPE_TOLERANCE": &config.Gate.GrossMarginSlopeTolerance,
	}
	for name, target := range floats {
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*target = f
			}
		}
	}

	// Providers
	if provider := os.Getenv("MGP_GATEWAY_PROVIDER"); provider != "" {
		config.Gateway.Provider = strings.ToLower(provider)
	}
	if provider := os.Getenv("MGP_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if provider := os.Getenv("MGP_SEARCH_PROVIDER"); provider != "" {
		config.Search.Provider = strings.ToLower(provider)
	}
	if model := os.Getenv("MGP_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("MGP_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Output and storage
	if dir := os.Getenv("MGP_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}
	if path := os.Getenv("MGP_STORAGE_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Logging
	if level := os.Getenv("MGP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MGP_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// apiKeyEnv maps API key names to environment variables, in priority order
var apiKeyEnv = map[string][]string{
	"fmp":    {"MGP_FMP_API_KEY", "FMP_API_KEY"},
	"eodhd":  {"MGP_EODHD_API_KEY", "EODHD_API_KEY"},
	"gemini": {"MGP_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"claude": {"MGP_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	"tavily": {"MGP_TAVILY_API_KEY", "TAVILY_API_KEY"},
}

// ResolveAPIKey resolves an API key by name.
// Resolution order: environment variables -> config fallback -> error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	for _, envName := range apiKeyEnv[name] {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Validate checks thresholds and enumerated settings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Gate.ValidateBands(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
