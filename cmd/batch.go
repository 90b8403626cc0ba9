package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
	"gopkg.in/yaml.v3"
)

type BatchEntry struct {
	Link       string `yaml:"link"`
	OutputPath string `yaml:"op,omitempty"`
	Items      string `yaml:"items,omitempty"`
	Format     string `yaml:"format,omitempty"`
	AudioOnly  *bool  `yaml:"audio_only,omitempty"`
}

type BatchFile struct {
	Downloads []BatchEntry `yaml:"downloads"`
}

// batchJob is one batch entry with its effective config.
type batchJob struct {
	url   string
	cfg   utils.Config
	items []int
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Process multiple downloads from a YAML file",
		Long: `Process multiple downloads from a YAML file of the form:

downloads:
  - link: https://www.youtube.com/playlist?list=PL123
    op: ./talks
    items: 1-10
  - link: dQw4w9WgXcQ
    format: audio
    audio_only: true`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Error reading YAML file: %v", err))
				os.Exit(1)
			}
			var batchFile BatchFile
			if err := yaml.Unmarshal(data, &batchFile); err != nil {
				output.PrintError(fmt.Sprintf("Error parsing YAML file: %v", err))
				os.Exit(1)
			}
			jobs := buildJobsFromBatch(batchFile, cfg)
			if len(jobs) == 0 {
				output.PrintError("No valid jobs found in the batch file")
				os.Exit(1)
			}
			if err := runBatch(jobs); err != nil {
				exitOnError(err)
			}
		},
	}
}

// buildJobsFromBatch applies each entry's overrides to base, skipping
// entries without a link or with an unusable item list.
func buildJobsFromBatch(batchFile BatchFile, base utils.Config) []batchJob {
	var jobs []batchJob
	for i, entry := range batchFile.Downloads {
		if entry.Link == "" {
			output.PrintWarning(fmt.Sprintf("Empty link in entry %d, skipping", i+1))
			continue
		}
		items, err := utils.ParseItems(entry.Items)
		if err != nil {
			output.PrintWarning(fmt.Sprintf("Entry %d: %v, skipping", i+1, err))
			continue
		}
		c := base
		if entry.OutputPath != "" {
			c.OutputDir = entry.OutputPath
		}
		if entry.Format != "" {
			c.Options.Format = entry.Format
		}
		if entry.AudioOnly != nil {
			c.Options.AudioOnly = *entry.AudioOnly
		}
		jobs = append(jobs, batchJob{url: entry.Link, cfg: c, items: items})
	}
	return jobs
}

// runBatch runs the jobs in order with a shared invoker, stopping early on interrupt.
func runBatch(jobs []batchJob) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tool, err := ytdlp.FindTool(cfg.ToolPath)
	if err != nil {
		output.PrintError(err.Error())
		return err
	}
	invoker := ytdlp.NewExecInvoker(tool)
	var firstErr error
	for i, job := range jobs {
		log.Debug().Str("op", "cmd/batch").Msgf("job %d of %d: %s", i+1, len(jobs), job.url)
		if err := downloadURL(ctx, job.cfg, invoker, job.url, currentDelivery(job.items)); err != nil && firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
		fmt.Println()
	}
	return firstErr
}
