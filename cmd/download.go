package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/archive"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/resolver"
	"github.com/tanq16/tubegrab/internal/results"
	"github.com/tanq16/tubegrab/internal/scheduler"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

var errEntriesFailed = errors.New("some entries failed")

// delivery holds the per-run choices that are not part of the config file.
type delivery struct {
	items   []int
	zip     bool
	upload  string
	profile string
}

func currentDelivery(items []int) delivery {
	return delivery{items: items, zip: bundleZip, upload: uploadURL, profile: awsProfile}
}

// downloadAll runs one session per URL, in order. It keeps going after a
// failed URL and returns the first error once every URL was tried.
func downloadAll(c utils.Config, urls []string, items []int) error {
	jobs := make([]batchJob, 0, len(urls))
	for _, url := range urls {
		jobs = append(jobs, batchJob{url: url, cfg: c, items: items})
	}
	return runBatch(jobs)
}

func downloadURL(ctx context.Context, c utils.Config, invoker ytdlp.Invoker, url string, d delivery) error {
	req, err := c.Request(url)
	if err != nil {
		output.PrintError(err.Error())
		return err
	}
	output.PrintInfo("Resolving " + req.URL)
	playlist, err := resolver.New(c, invoker).Resolve(ctx, req.URL)
	if err != nil {
		output.PrintError(err.Error())
		return err
	}
	dir := utils.SessionDir(req.OutputDir, playlist.Title, c.PlaylistSubdir && playlist.IsPlaylist)
	sess := openSession(req, playlist, dir)
	return runSession(ctx, c, invoker, sess, d)
}

// openSession resumes the session saved in dir when it belongs to the same
// URL and entry list, and starts a new one otherwise.
func openSession(req utils.DownloadRequest, playlist *resolver.Playlist, dir string) *session.Session {
	prev, err := session.Load(dir)
	switch {
	case err == nil && prev.Request.URL == req.URL && sameEntries(prev.Entries, playlist.Entries):
		prev.Request = req
		log.Debug().Str("op", "cmd/download").Msgf("resuming session %s in %s", prev.ID, dir)
		output.PrintInfo(fmt.Sprintf("Resuming previous session %s", prev.ID))
		return prev
	case err == nil:
		log.Debug().Str("op", "cmd/download").Msgf("saved session in %s is for a different request, starting over", dir)
	case !errors.Is(err, session.ErrNoState):
		log.Warn().Str("op", "cmd/download").Err(err).Msg("ignoring unreadable session state")
	}
	return session.New(req, playlist.ID, playlist.Title, dir, playlist.Entries)
}

func sameEntries(a, b []session.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Position != b[i].Position || a[i].VideoID != b[i].VideoID {
			return false
		}
	}
	return true
}

// runSession downloads the selected entries of sess with live progress, then
// prints the summary, records history and delivers the outputs.
func runSession(ctx context.Context, c utils.Config, invoker ytdlp.Invoker, sess *session.Session, d delivery) error {
	orchestrator := scheduler.New(c, invoker, scheduler.WithItems(d.items), scheduler.WithFFmpeg(ytdlp.FindFFmpeg()))
	entries := selectEntries(sess.Entries, d.items)
	if len(entries) == 0 {
		output.PrintWarning("No entries match the selected items")
		return nil
	}

	output.PrintHeader(fmt.Sprintf("%s (%d of %d entries)", sess.Title, len(entries), len(sess.Entries)))
	manager := output.NewManager(os.Stdout)
	manager.RegisterEntries(entries)
	started := time.Now()
	manager.StartDisplay()
	runErr := orchestrator.Run(ctx, sess, manager)
	manager.StopDisplay()

	summary := results.Summarize(sess)
	manager.ShowSummary(summary)
	for _, o := range sess.Outcomes() {
		if err := scheduler.OutcomeError(o); err != nil {
			log.Debug().Str("op", "cmd/download").Err(err).Msg("entry failed")
		}
	}
	if c.History {
		recordHistory(sess, started)
	}

	var exhausted *scheduler.SessionExhaustedError
	switch {
	case errors.As(runErr, &exhausted):
		output.PrintError(fmt.Sprintf("All %d attempted entries failed", exhausted.Failed))
		return runErr
	case runErr != nil:
		output.PrintError(runErr.Error())
		return runErr
	}
	if err := deliver(ctx, summary, deliveryBase(sess), d); err != nil {
		output.PrintError(err.Error())
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", errEntriesFailed, summary.Failed, summary.Total)
	}
	return nil
}

func selectEntries(entries []session.Entry, items []int) []session.Entry {
	if len(items) == 0 {
		return entries
	}
	wanted := make(map[int]bool, len(items))
	for _, item := range items {
		wanted[item] = true
	}
	var selected []session.Entry
	for _, e := range entries {
		if wanted[e.Position] {
			selected = append(selected, e)
		}
	}
	return selected
}

// recordHistory appends the outcomes finished during this run.
func recordHistory(sess *session.Session, since time.Time) {
	var recent []session.Outcome
	for _, o := range sess.Outcomes() {
		if o.Status.Final() && !o.FinishedAt.Before(since) {
			recent = append(recent, o)
		}
	}
	path, err := historyPath()
	if err != nil {
		log.Warn().Str("op", "cmd/history").Err(err).Msg("no config directory, history not recorded")
		return
	}
	if err := session.AppendHistory(path, sess, recent); err != nil {
		log.Warn().Str("op", "cmd/history").Err(err).Msg("error recording history")
	}
}

func historyPath() (string, error) {
	dir, err := utils.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, utils.HistoryFile), nil
}

// deliveryBase is the directory bundles are written to and archive paths are
// relative to: the output directory, whether or not the session has its own folder.
func deliveryBase(sess *session.Session) string {
	if sess.Request.OutputDir != "" && filepath.Clean(sess.Dir) == filepath.Clean(sess.Request.OutputDir) {
		return sess.Dir
	}
	return filepath.Dir(sess.Dir)
}

// deliver bundles and uploads the outputs of a finished session.
func deliver(ctx context.Context, summary results.Summary, base string, d delivery) error {
	if !d.zip && d.upload == "" {
		return nil
	}
	if len(summary.Outputs) == 0 {
		output.PrintWarning("Nothing to deliver, no files were downloaded")
		return nil
	}
	files := summary.Outputs
	if d.zip {
		name := utils.SanitizeTitle(summary.Title)
		if name == "" {
			name = utils.DefaultPlaylistTitle
		}
		bundle, err := archive.ZipFiles(filepath.Join(base, name+".zip"), base, summary.Outputs)
		if err != nil {
			return err
		}
		output.PrintSuccess("Bundled into " + bundle)
		files = []string{bundle}
	}
	if d.upload == "" {
		return nil
	}
	bucket, prefix, err := archive.ParseS3URL(d.upload)
	if err != nil {
		return err
	}
	uploader, err := archive.NewS3Uploader(ctx, d.profile)
	if err != nil {
		return err
	}
	n, err := uploader.UploadFiles(ctx, bucket, prefix, base, files)
	if err != nil {
		return fmt.Errorf("uploaded %d of %d files: %w", n, len(files), err)
	}
	output.PrintSuccess(fmt.Sprintf("Uploaded %d files to s3://%s/%s", n, bucket, prefix))
	return nil
}

// exitOnError exits with status 1; details were already printed by the run.
func exitOnError(err error) {
	if errors.Is(err, errEntriesFailed) {
		output.PrintWarning("Encountered failed entries, run the same command again to retry them")
	}
	log.Debug().Str("op", "cmd/exit").Err(err).Msg("exiting with failure")
	if logCloser != nil {
		logCloser.Close()
	}
	os.Exit(1)
}
