package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mgp/internal/common"
	"github.com/ternarybob/mgp/internal/storage"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <TICKER>",
		Short: "List stored runs for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.config.Storage.Enabled {
				return fmt.Errorf("storage is disabled, enable [storage] to keep run history")
			}

			manager, err := storage.NewStorageManager(c.logger, c.config)
			if err != nil {
				return err
			}
			defer manager.Close()

			ticker := common.NormalizeTicker(args[0])
			records, err := manager.RunStorage().ListRuns(cmd.Context(), ticker, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs for %s: %w", ticker, err)
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs stored for %s\n", ticker)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderHistoryTable(records))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum records to show (0 for all)")

	return cmd
}
