package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptconduit/dashctx/internal/dashctx"
)

var embeddedCmd = &cobra.Command{
	Use:   "embedded",
	Short: "Print the bootstrap script for embedding dashboards in other pages",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), dashctx.EmbeddedContext())
	},
}
