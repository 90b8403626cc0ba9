package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

const DefaultBackoff = 2 * time.Second

type Orchestrator struct {
	invoker ytdlp.Invoker
	cfg     utils.Config
	ffmpeg  string
	items   map[int]bool
	backoff time.Duration
	persist bool
}

type Option func(*Orchestrator)

// WithItems restricts a run to the given positions.
func WithItems(items []int) Option {
	return func(o *Orchestrator) {
		if len(items) == 0 {
			return
		}
		o.items = make(map[int]bool, len(items))
		for _, item := range items {
			o.items[item] = true
		}
	}
}

func WithFFmpeg(path string) Option {
	return func(o *Orchestrator) { o.ffmpeg = path }
}

func WithBackoff(d time.Duration) Option {
	return func(o *Orchestrator) { o.backoff = d }
}

// WithPersist saves the session state file after every finished entry.
func WithPersist(persist bool) Option {
	return func(o *Orchestrator) { o.persist = persist }
}

func New(cfg utils.Config, invoker ytdlp.Invoker, opts ...Option) *Orchestrator {
	if err := cfg.Validate(); err != nil {
		log.Warn().Str("op", "scheduler/new").Err(err).Msg("invalid config, falling back to sequential mode")
		cfg.Mode = utils.ModeEach
	}
	o := &Orchestrator{
		invoker: invoker,
		cfg:     cfg,
		backoff: DefaultBackoff,
		persist: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// attemptResult carries one finished attempt from a worker to the collector.
type attemptResult struct {
	outcome session.Outcome
	final   bool
}

// Run downloads every pending entry of sess and records one outcome per
// attempt. SessionExhaustedError is returned only when every selected entry
// has failed, counting successes kept from earlier runs.
func (o *Orchestrator) Run(ctx context.Context, sess *session.Session, sink ProgressSink) error {
	if err := utils.CheckCookieFile(sess.Request.CookieFile); err != nil {
		return err
	}
	if err := os.MkdirAll(sess.Dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	out := newLockedSink(sink)
	var order, pending []int
	kept := make(map[int]bool)
	for _, entry := range sess.Entries {
		if o.items != nil && !o.items[entry.Position] {
			continue
		}
		order = append(order, entry.Position)
		if prev, ok := sess.Outcome(entry.Position); ok && o.cfg.SkipSucceeded && prev.Status == session.StatusSucceeded {
			kept[entry.Position] = true
			continue
		}
		pending = append(pending, entry.Position)
	}
	log.Debug().Str("op", "scheduler/run").Msgf("session %s: %d selected, %d pending, %d already done", sess.ID, len(order), len(pending), len(kept))

	sess.SetState(session.StateRunning)
	o.save(sess)
	reorder := newReorderBuffer(order, out)
	for position := range kept {
		reorder.Done(position, session.StatusSucceeded)
	}

	results := make(chan attemptResult)
	go func() {
		defer close(results)
		if o.cfg.Mode == utils.ModeBulk {
			o.runBulk(ctx, sess, pending, out, results)
			return
		}
		o.runEach(ctx, sess, pending, out, results)
	}()

	failed, finished := 0, 0
	for res := range results {
		if err := sess.Record(res.outcome); err != nil {
			log.Error().Str("op", "scheduler/run").Err(err).Msg("error recording outcome")
			continue
		}
		if !res.final {
			continue
		}
		finished++
		if res.outcome.Status == session.StatusFailed {
			failed++
		}
		o.save(sess)
		reorder.Done(res.outcome.Position, res.outcome.Status)
	}

	switch {
	case ctx.Err() != nil:
		sess.SetState(session.StateCancelled)
		o.save(sess)
		return fmt.Errorf("download cancelled: %w", ctx.Err())
	case finished > 0 && failed == finished && len(kept) == 0:
		sess.SetState(session.StateFailed)
		o.save(sess)
		return &SessionExhaustedError{Failed: failed}
	}
	sess.SetState(session.StateCompleted)
	o.save(sess)
	return nil
}

func (o *Orchestrator) save(sess *session.Session) {
	if !o.persist {
		return
	}
	if err := session.Save(sess); err != nil {
		log.Warn().Str("op", "scheduler/save").Err(err).Msg("error saving session state")
	}
}

// runEach feeds pending positions to a pool of workers, one invocation per entry.
func (o *Orchestrator) runEach(ctx context.Context, sess *session.Session, pending []int, out *lockedSink, results chan<- attemptResult) {
	jobCh := make(chan session.Entry, len(pending))
	for _, position := range pending {
		entry, _ := sess.Entry(position)
		jobCh <- entry
	}
	close(jobCh)

	numWorkers := min(o.cfg.Workers, len(pending))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			log.Debug().Str("op", "scheduler/worker").Msgf("worker %d started", workerID)
			o.processEntries(ctx, sess, jobCh, out, results)
		}(i)
	}
	wg.Wait()
}

func (o *Orchestrator) processEntries(ctx context.Context, sess *session.Session, jobCh <-chan session.Entry, out *lockedSink, results chan<- attemptResult) {
	for entry := range jobCh {
		for attempt := 1; ; attempt++ {
			if ctx.Err() != nil {
				results <- attemptResult{outcome: cancelledOutcome(entry.Position, attempt), final: true}
				break
			}
			out.Report(entry.Position, session.StatusRunning)
			outcome := o.attempt(ctx, sess, entry, attempt, out)
			if outcome.Status != session.StatusFailed || outcome.Reason != session.ReasonFailed || attempt > o.cfg.Retries {
				results <- attemptResult{outcome: outcome, final: true}
				break
			}
			log.Debug().Str("op", "scheduler/retry").Msgf("entry %d attempt %d failed: %s", entry.Position, attempt, outcome.Detail)
			results <- attemptResult{outcome: outcome}
			o.wait(ctx, attempt)
		}
	}
}

// wait sleeps for the linear retry backoff or until ctx ends.
func (o *Orchestrator) wait(ctx context.Context, attempt int) {
	if o.backoff <= 0 {
		return
	}
	timer := time.NewTimer(o.backoff * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (o *Orchestrator) attempt(ctx context.Context, sess *session.Session, entry session.Entry, attempt int, out *lockedSink) session.Outcome {
	stem := entry.Stem()
	template := utils.EscapeTemplate(filepath.Join(sess.Dir, stem)) + ".%(ext)s"
	args := ytdlp.EntryArgs(sess.Request, entry.Target(), template, o.ffmpeg)

	outcome := session.Outcome{
		Position:  entry.Position,
		Attempt:   attempt,
		StartedAt: time.Now(),
	}
	entryCtx, cancel := context.WithTimeout(ctx, o.cfg.EntryTimeout)
	res, err := o.invoker.Invoke(entryCtx, ytdlp.Invocation{
		Args: args,
		Stream: func(line string) {
			out.Stream(entry.Position, line)
		},
	})
	timedOut := errors.Is(entryCtx.Err(), context.DeadlineExceeded)
	cancel()
	outcome.FinishedAt = time.Now()

	switch {
	case err == nil && res.ExitCode == 0:
		outcome.Status = session.StatusSucceeded
		outcome.Outputs = collectOutputs(sess.Dir, stem)
	case ctx.Err() != nil:
		return cancelledOutcome(entry.Position, attempt)
	case errors.Is(err, ytdlp.ErrToolUnavailable):
		outcome.Status = session.StatusFailed
		outcome.Detail = "tool unavailable"
		outcome.Reason = session.ReasonToolUnavailable
	case timedOut:
		outcome.Status = session.StatusFailed
		outcome.Detail = "timed out"
		outcome.Reason = session.ReasonTimedOut
	case err != nil:
		outcome.Status = session.StatusFailed
		outcome.Detail = err.Error()
		outcome.Reason = session.ReasonFailed
	default:
		outcome.Status = session.StatusFailed
		outcome.Detail = ytdlp.LastErrorLine(res.Stderr)
		if outcome.Detail == "" {
			outcome.Detail = fmt.Sprintf("yt-dlp exited with code %d", res.ExitCode)
		}
		outcome.Reason = session.ReasonFailed
	}
	log.Debug().Str("op", "scheduler/attempt").Msgf("entry %d attempt %d: %s %s", entry.Position, attempt, outcome.Status, outcome.Detail)
	return outcome
}

func cancelledOutcome(position, attempt int) session.Outcome {
	now := time.Now()
	return session.Outcome{
		Position:   position,
		Status:     session.StatusSkipped,
		Detail:     "cancelled",
		Reason:     session.ReasonCancelled,
		Attempt:    attempt,
		StartedAt:  now,
		FinishedAt: now,
	}
}

// collectOutputs lists the finished files in dir that belong to stem.
func collectOutputs(dir, stem string) []string {
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Str("op", "scheduler/outputs").Err(err).Msg("error listing output directory")
		return nil
	}
	var outputs []string
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasPrefix(name, stem+".") || utils.IsPartialFile(name) {
			continue
		}
		outputs = append(outputs, name)
	}
	sort.Strings(outputs)
	return outputs
}
