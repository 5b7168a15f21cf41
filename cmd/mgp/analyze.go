package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mgp/internal/app"
	"github.com/ternarybob/mgp/internal/services/pipeline"
)

type analyzeFlags struct {
	tickers     string
	tickersFile string
	force       bool
	translate   bool
	pdf         bool
	workbook    bool
	out         string
	workers     int
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full protocol for one or more tickers",
		Long: `Runs the Iron Gate for each ticker and, for those that pass (or all of
them with --force), the business model identifier, intelligence gathering and
the tribunal. Writes per-ticker reports, the results file and a summary.

Example: mgp analyze --tickers DUOL,NVDA --pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.tickers, "tickers", "DUOL", "Comma-separated tickers")
	cmd.Flags().StringVar(&f.tickersFile, "tickers-file", "", "YAML watchlist (tickers: [...]), overrides --tickers")
	cmd.Flags().BoolVar(&f.force, "force", false, "Run the deep dive even when the gate fails")
	cmd.Flags().BoolVar(&f.translate, "cn", false, "Also write a translated report")
	cmd.Flags().BoolVar(&f.pdf, "pdf", false, "Also render reports as PDF")
	cmd.Flags().BoolVar(&f.workbook, "xlsx", false, "Also write the results as an XLSX workbook")
	cmd.Flags().StringVar(&f.out, "out", "", "Output directory (overrides config)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent tickers (overrides config)")

	return cmd
}

// apply copies explicitly set flags onto the loaded configuration
func (f *analyzeFlags) apply(cmd *cobra.Command, c *cli) {
	cfg := c.config
	if cmd.Flags().Changed("force") {
		cfg.Pipeline.Force = f.force
	}
	if cmd.Flags().Changed("cn") {
		cfg.Output.Translate = f.translate
	}
	if cmd.Flags().Changed("pdf") {
		cfg.Output.PDF = f.pdf
	}
	if cmd.Flags().Changed("xlsx") {
		cfg.Output.Workbook = f.workbook
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	if f.workers > 0 {
		cfg.Pipeline.Workers = f.workers
	}
}

func (c *cli) runAnalyze(cmd *cobra.Command, f *analyzeFlags) error {
	f.apply(cmd, c)
	if err := c.validate(); err != nil {
		return err
	}

	tickers, err := resolveTickers(f.tickers, f.tickersFile)
	if err != nil {
		return err
	}

	application, err := app.New(c.config, c.logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	c.logger.Info().Strs("tickers", tickers).Bool("force", c.config.Pipeline.Force).Msg("Starting analysis")

	batch := application.Analyzer.RunBatch(ctx, tickers, pipeline.Options{
		Force:   c.config.Pipeline.Force,
		Workers: c.config.Pipeline.Workers,
	})

	resultsPath, err := application.Reports.SaveResults(batch.Results)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	c.logger.Info().Str("path", resultsPath).Int("tickers", len(batch.Results)).Msg("Results saved")

	if c.config.Output.Summary {
		summaryPath, err := application.Reports.SaveSummary(batch.RunID, batch.Results)
		if err != nil {
			return fmt.Errorf("failed to save summary: %w", err)
		}
		c.logger.Info().Str("path", summaryPath).Msg("Summary saved")
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderBatchTable(batch.Results))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analysis interrupted: %w", err)
	}
	return nil
}
