package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/session"
)

func newHistoryCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently downloaded entries",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path, err := historyPath()
			if err != nil {
				output.PrintError(fmt.Sprintf("Error locating history: %v", err))
				os.Exit(1)
			}
			records, err := session.ReadHistory(path, count)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			fmt.Print(output.RenderHistory(records))
		},
	}

	cmd.Flags().IntVarP(&count, "number", "n", 20, "Number of records to show (0 for all)")
	return cmd
}
