package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mgp/internal/app"
	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/models"
)

func newGateCmd(c *cli) *cobra.Command {
	var tickers, tickersFile string

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Run only the Iron Gate and print a table",
		Long: `Fetches fundamentals and evaluates the Iron Gate for each ticker. No LLM
or search calls are made and nothing is persisted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.validate(); err != nil {
				return err
			}
			list, err := resolveTickers(tickers, tickersFile)
			if err != nil {
				return err
			}

			application, err := app.New(c.config, c.logger, app.GateOnly())
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			results := make([]models.CompanyData, 0, len(list))
			for _, ticker := range list {
				if ctx.Err() != nil {
					break
				}
				var data models.CompanyData
				err := common.SafeRun(c.logger, ticker, func() error {
					data = application.Analyzer.ScreenOnly(ctx, ticker)
					return nil
				})
				if err != nil {
					msg := err.Error()
					data = models.CompanyData{Ticker: ticker, Error: &msg}
				}
				results = append(results, data)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderGateTable(results))
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&tickers, "tickers", "DUOL", "Comma-separated tickers")
	cmd.Flags().StringVar(&tickersFile, "tickers-file", "", "YAML watchlist (tickers: [...]), overrides --tickers")

	return cmd
}
