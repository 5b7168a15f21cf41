package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ternarybob/mgp/internal/common"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MGP version %s\n", common.GetFullVersion())
		},
	}
}
