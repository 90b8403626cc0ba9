package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/results"
	"github.com/tanq16/tubegrab/internal/session"
)

func newSummaryCmd() *cobra.Command {
	var showEntries bool

	cmd := &cobra.Command{
		Use:   "summary [DIR]",
		Short: "Show the results of the session saved in a directory",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sess, err := session.Load(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			if showEntries {
				fmt.Print(output.RenderEntries(sess.Title, sess.Entries, sess))
				fmt.Println()
			}
			fmt.Print(output.RenderSummary(results.Summarize(sess)))
			output.PrintDetail(fmt.Sprintf("Session %s is %s, last updated %s", sess.ID, sess.State, sess.UpdatedAt.Format("2006-01-02 15:04:05")))
		},
	}

	cmd.Flags().BoolVar(&showEntries, "entries", false, "Also list every entry with its status")
	return cmd
}
