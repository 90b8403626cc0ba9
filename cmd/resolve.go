package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/resolver"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "resolve [URL]",
		Short:   "List the entries of a playlist without downloading",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			tool, err := ytdlp.FindTool(cfg.ToolPath)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			playlist, err := resolver.New(cfg, ytdlp.NewExecInvoker(tool)).Resolve(context.Background(), args[0])
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			dir := utils.SessionDir(cfg.OutputDir, playlist.Title, cfg.PlaylistSubdir && playlist.IsPlaylist)
			var sess *session.Session
			if saved, err := session.Load(dir); err == nil && sameEntries(saved.Entries, playlist.Entries) {
				sess = saved
			} else if err != nil && !errors.Is(err, session.ErrNoState) {
				output.PrintWarning(fmt.Sprintf("Ignoring saved session: %v", err))
			}
			fmt.Print(output.RenderEntries(playlist.Title, playlist.Entries, sess))
			output.PrintDetail("Output directory: " + dir)
		},
	}
}
