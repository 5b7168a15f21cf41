// Package app wires configuration into the screening services shared by the
// CLI and the MCP server.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/interfaces"
	"github.com/ternarybob/mgp/internal/services/gateway"
	"github.com/ternarybob/mgp/internal/services/identifier"
	"github.com/ternarybob/mgp/internal/services/intelligence"
	"github.com/ternarybob/mgp/internal/services/llm"
	"github.com/ternarybob/mgp/internal/services/pipeline"
	"github.com/ternarybob/mgp/internal/services/report"
	"github.com/ternarybob/mgp/internal/services/search"
	"github.com/ternarybob/mgp/internal/services/tribunal"
	"github.com/ternarybob/mgp/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Gateway interfaces.FinancialDataGateway

	// LLM stack, nil in gate-only mode
	LLMService    interfaces.LLMService
	llmFactory    *llm.ProviderFactory
	SearchService interfaces.SearchService

	Analyzer *pipeline.Analyzer
	Reports  *report.Writer
}

// Option tunes New
type Option func(*options)

type options struct {
	gateOnly bool
}

// GateOnly skips the LLM and search stack. The analyzer can still screen.
func GateOnly() Option {
	return func(o *options) { o.gateOnly = true }
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(o); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("gateway", app.Gateway.Name()).
		Bool("storage", app.StorageManager != nil).
		Bool("gate_only", o.gateOnly).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	if manager == nil {
		return nil
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Path).
		Msg("Storage layer initialized")
	return nil
}

// RunStorage returns the run history store, or nil when storage is disabled
func (a *App) RunStorage() interfaces.RunStorage {
	if a.StorageManager == nil {
		return nil
	}
	return a.StorageManager.RunStorage()
}

// initServices builds services in dependency order:
// gateway -> llm -> search -> stages -> reports -> analyzer
func (a *App) initServices(o options) error {
	var cache interfaces.CacheStorage
	if a.StorageManager != nil {
		cache = a.StorageManager.CacheStorage()
	}

	gw, err := gateway.New(a.Config, cache, a.Logger)
	if err != nil {
		return err
	}
	a.Gateway = gw

	analyzerOpts := []pipeline.Option{
		pipeline.WithWorkers(a.Config.Pipeline.Workers),
	}
	if runs := a.RunStorage(); runs != nil {
		analyzerOpts = append(analyzerOpts, pipeline.WithRunStorage(runs))
	}

	if o.gateOnly {
		a.Analyzer = pipeline.NewAnalyzer(a.Gateway, a.Config.Gate, a.Logger, analyzerOpts...)
		return nil
	}

	llmService, factory := llm.NewServiceFromConfig(a.Config, a.Logger)
	a.LLMService = llmService
	a.llmFactory = factory

	a.SearchService, err = search.NewSearchService(a.Config, factory, a.Logger)
	if err != nil {
		return err
	}

	var translator *report.Translator
	if a.Config.Output.Translate {
		translator = report.NewTranslator(a.LLMService, a.Logger)
	}
	a.Reports = report.NewWriter(a.Config.Output, a.Config.Gate, translator, a.Logger)

	analyzerOpts = append(analyzerOpts,
		pipeline.WithStages(
			identifier.NewService(a.LLMService, a.Logger),
			intelligence.NewService(a.LLMService, a.SearchService, a.Logger,
				intelligence.WithMaxResults(a.Config.Search.MaxResults)),
			tribunal.NewService(a.LLMService, a.Logger),
		),
		pipeline.WithReports(a.Reports),
	)
	a.Analyzer = pipeline.NewAnalyzer(a.Gateway, a.Config.Gate, a.Logger, analyzerOpts...)
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.llmFactory != nil {
		if err := a.llmFactory.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM clients")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}
	return nil
}
