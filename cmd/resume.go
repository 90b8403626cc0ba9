package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

func newResumeCmd() *cobra.Command {
	var itemSpec string

	cmd := &cobra.Command{
		Use:   "resume [DIR]",
		Short: "Continue a saved session without resolving the playlist again",
		Long: `Continue the session saved in DIR using its stored entry list. Entries that
already succeeded are skipped unless --no-skip is given.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			items, err := utils.ParseItems(itemSpec)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			sess, err := session.Load(args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			tool, err := ytdlp.FindTool(cfg.ToolPath)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			output.PrintInfo("Resuming session " + sess.ID)
			if err := runSession(ctx, cfg, ytdlp.NewExecInvoker(tool), sess, currentDelivery(items)); err != nil {
				stop()
				exitOnError(err)
			}
		},
	}

	cmd.Flags().StringVar(&itemSpec, "items", "", "Only download these positions (e.g. 1,3,5-7)")
	return cmd
}
