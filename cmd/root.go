package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/utils"
)

var (
	configPath string
	debug      bool
	logFile    string
	logCloser  io.Closer
	cfg        utils.Config

	outputDir        string
	subtitles        bool
	thumbnail        bool
	metadata         bool
	sponsorBlock     bool
	subLangs         string
	cookieFile       string
	format           string
	audioOnly        bool
	embed            bool
	sponsorBlockMode string
	proxyURL         string
	workers          int
	retries          int
	entryTimeout     time.Duration
	mode             string
	noSkip           bool
	flat             bool
	toolPath         string

	bundleZip  bool
	uploadURL  string
	awsProfile string
)

var TubegrabVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "tubegrab [URL...]",
	Short: "tubegrab downloads YouTube playlists and videos through yt-dlp",
	Long: `tubegrab resolves a playlist (or single video) URL into its entries and downloads
each one with yt-dlp, keeping a per-entry record so interrupted runs can resume.

Examples:
  tubegrab https://www.youtube.com/playlist?list=PL123
  tubegrab dQw4w9WgXcQ --format 720p --audio-only
  tubegrab https://www.youtube.com/playlist?list=PL123 --items 1-5 --workers 3 --zip`,
	Version: TubegrabVersion,
	Args:    cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		closer, err := utils.InitLogger(debug, logFile)
		logCloser = closer
		if err != nil {
			output.PrintWarning(err.Error())
		}
		loaded, err := utils.LoadConfig(configPath)
		if err != nil {
			output.PrintError(fmt.Sprintf("Error loading config: %v", err))
			os.Exit(1)
		}
		if err := applyFlags(cmd, &loaded); err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		cfg = loaded
		log.Debug().Str("op", "cmd/root").Msgf("effective config: mode=%s workers=%d retries=%d output=%s", cfg.Mode, cfg.Workers, cfg.Retries, cfg.OutputDir)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		itemSpec, _ := cmd.Flags().GetString("items")
		items, err := utils.ParseItems(itemSpec)
		if err != nil {
			output.PrintError(err.Error())
			os.Exit(1)
		}
		if err := downloadAll(cfg, utils.UniqueURLs(args), items); err != nil {
			exitOnError(err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaults := utils.DefaultConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&outputDir, "output", "o", defaults.OutputDir, "Output directory")
	pf.BoolVar(&subtitles, "subs", defaults.Flags.Subtitles, "Download subtitles")
	pf.StringVar(&subLangs, "sub-langs", defaults.Options.SubLangs, "Subtitle languages (comma separated, e.g. en,de)")
	pf.BoolVar(&thumbnail, "thumbnail", defaults.Flags.Thumbnail, "Download the thumbnail")
	pf.BoolVar(&metadata, "metadata", defaults.Flags.Metadata, "Write the info JSON metadata sidecar")
	pf.BoolVar(&sponsorBlock, "sponsorblock", defaults.Flags.SponsorBlock, "Apply SponsorBlock segments")
	pf.StringVar(&sponsorBlockMode, "sponsorblock-mode", defaults.Options.SponsorBlockMode, "SponsorBlock handling (mark, remove)")
	pf.StringVarP(&cookieFile, "cookies", "c", "", "Path to a Netscape cookie file")
	pf.StringVarP(&format, "format", "f", defaults.Options.Format, "Quality preset (best, best60, bestmp4, decent, decent60, cheap, 1080p, 1080p60, 720p, 480p, audio)")
	pf.BoolVar(&audioOnly, "audio-only", false, "Extract audio as mp3")
	pf.BoolVar(&embed, "embed", false, "Embed subtitles, thumbnail and metadata into the media file")
	pf.StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL passed to yt-dlp")
	pf.IntVarP(&workers, "workers", "w", defaults.Workers, "Number of entries to download in parallel")
	pf.IntVar(&retries, "retries", defaults.Retries, "Retries per failed entry")
	pf.DurationVarP(&entryTimeout, "timeout", "t", defaults.EntryTimeout, "Timeout per entry (eg. 10m, 1h)")
	pf.StringVar(&mode, "mode", defaults.Mode, "Invocation mode (each, bulk)")
	pf.BoolVar(&noSkip, "no-skip", false, "Download entries again even if a previous run succeeded")
	pf.BoolVar(&flat, "flat", false, "Write into the output directory instead of a per-playlist folder")
	pf.StringVar(&toolPath, "tool", "", "Path to the yt-dlp binary")
	pf.BoolVar(&bundleZip, "zip", false, "Bundle the downloaded files into a zip archive")
	pf.StringVar(&uploadURL, "upload", "", "Upload the downloaded files to s3://BUCKET/PREFIX")
	pf.StringVar(&awsProfile, "profile", "", "AWS profile used for --upload")

	// flags without shorthand
	pf.StringVar(&configPath, "config", utils.DefaultConfigPath(), "Path to the config file")
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")

	rootCmd.Flags().String("items", "", "Only download these positions (e.g. 1,3,5-7)")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// applyFlags overrides the loaded config with every flag set on the command line.
func applyFlags(cmd *cobra.Command, c *utils.Config) error {
	changed := cmd.Flags().Changed
	if changed("output") {
		c.OutputDir = outputDir
	}
	if changed("subs") {
		c.Flags.Subtitles = subtitles
	}
	if changed("sub-langs") {
		c.Options.SubLangs = subLangs
	}
	if changed("thumbnail") {
		c.Flags.Thumbnail = thumbnail
	}
	if changed("metadata") {
		c.Flags.Metadata = metadata
	}
	if changed("sponsorblock") {
		c.Flags.SponsorBlock = sponsorBlock
	}
	if changed("sponsorblock-mode") {
		c.Options.SponsorBlockMode = sponsorBlockMode
	}
	if changed("cookies") {
		c.CookieFile = cookieFile
	}
	if changed("format") {
		c.Options.Format = format
	}
	if changed("audio-only") {
		c.Options.AudioOnly = audioOnly
	}
	if changed("embed") {
		c.Options.Embed = embed
	}
	if changed("proxy") {
		c.Options.Proxy = proxyURL
	}
	if changed("workers") {
		c.Workers = workers
	}
	if changed("retries") {
		c.Retries = retries
	}
	if changed("timeout") {
		c.EntryTimeout = entryTimeout
	}
	if changed("mode") {
		c.Mode = mode
	}
	if changed("no-skip") {
		c.SkipSucceeded = !noSkip
	}
	if changed("flat") {
		c.PlaylistSubdir = !flat
	}
	if changed("tool") {
		c.ToolPath = toolPath
	}
	return c.Validate()
}
