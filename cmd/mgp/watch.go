package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mgp/internal/app"
	"github.com/ternarybob/mgp/internal/services/pipeline"
	"github.com/ternarybob/mgp/internal/services/scheduler"
)

func newWatchCmd(c *cli) *cobra.Command {
	var schedule, tickers, tickersFile string
	var full, now bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-screen a watchlist on a cron schedule",
		Long: `Runs the watchlist on a six-field cron schedule (seconds first) until
interrupted. Without --full only the Iron Gate runs. Tickers whose status
changed since their previous stored run are logged.

Example: mgp watch --schedule "0 30 16 * * 1-5" --tickers-file watchlist.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule != "" {
				c.config.Scheduler.Schedule = schedule
			}
			if err := c.validate(); err != nil {
				return err
			}
			list, err := resolveTickers(tickers, tickersFile)
			if err != nil {
				return err
			}
			if !c.config.Storage.Enabled {
				c.logger.Warn().Msg("Storage disabled, status changes cannot be detected")
			}

			var appOpts []app.Option
			if !full {
				appOpts = append(appOpts, app.GateOnly())
			}
			application, err := app.New(c.config, c.logger, appOpts...)
			if err != nil {
				return err
			}
			defer application.Close()

			job := func(ctx context.Context) error {
				batch := application.Analyzer.RunBatch(ctx, list, pipeline.Options{
					GateOnly: !full,
					Force:    c.config.Pipeline.Force,
					Workers:  c.config.Pipeline.Workers,
				})
				for _, change := range batch.Changes {
					c.logger.Warn().
						Str("ticker", change.Ticker).
						Str("previous", change.Previous).
						Str("current", change.Current).
						Msg("Watchlist status changed")
				}
				if full && application.Reports != nil {
					if _, err := application.Reports.SaveResults(batch.Results); err != nil {
						return fmt.Errorf("failed to save results: %w", err)
					}
				}
				return nil
			}

			sched := scheduler.NewService(c.logger)
			if err := sched.Start(cmd.Context(), c.config.Scheduler.Schedule, job); err != nil {
				return err
			}
			defer sched.Stop()

			if now {
				if err := sched.TriggerNow(); err != nil {
					c.logger.Warn().Err(err).Msg("Immediate run failed")
				}
			}

			c.logger.Info().
				Str("schedule", c.config.Scheduler.Schedule).
				Int("tickers", len(list)).
				Bool("full", full).
				Msg("Watching, press Ctrl+C to stop")

			<-cmd.Context().Done()
			c.logger.Info().Msg("Watch stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression with seconds field (overrides config)")
	cmd.Flags().StringVar(&tickers, "tickers", "DUOL", "Comma-separated tickers")
	cmd.Flags().StringVar(&tickersFile, "tickers-file", "", "YAML watchlist (tickers: [...]), overrides --tickers")
	cmd.Flags().BoolVar(&full, "full", false, "Run the full protocol instead of the gate only")
	cmd.Flags().BoolVar(&now, "now", false, "Also run once immediately")

	return cmd
}
