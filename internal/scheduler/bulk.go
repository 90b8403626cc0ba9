package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

var itemRegex = regexp.MustCompile(`^\[download\] Downloading item (\d+) of \d+`)

const notProduced = "not produced by bulk download"

// runBulk hands all pending positions to a single invocation; failed
// positions are retried together.
func (o *Orchestrator) runBulk(ctx context.Context, sess *session.Session, pending []int, out *lockedSink, results chan<- attemptResult) {
	remaining := pending
	for attempt := 1; len(remaining) > 0; attempt++ {
		if ctx.Err() != nil {
			for _, position := range remaining {
				results <- attemptResult{outcome: cancelledOutcome(position, attempt), final: true}
			}
			return
		}
		var retry []int
		for _, outcome := range o.bulkAttempt(ctx, sess, remaining, attempt, out) {
			if outcome.Status == session.StatusFailed && outcome.Reason == session.ReasonFailed && attempt <= o.cfg.Retries {
				results <- attemptResult{outcome: outcome}
				retry = append(retry, outcome.Position)
				continue
			}
			results <- attemptResult{outcome: outcome, final: true}
		}
		remaining = retry
		if len(remaining) > 0 {
			log.Debug().Str("op", "scheduler/bulk").Msgf("retrying %d entries", len(remaining))
			o.wait(ctx, attempt)
		}
	}
}

func (o *Orchestrator) bulkAttempt(ctx context.Context, sess *session.Session, positions []int, attempt int, out *lockedSink) []session.Outcome {
	template := utils.EscapeTemplate(sess.Dir) + string(filepath.Separator) + ytdlp.BulkNameTemplate
	args := ytdlp.BulkArgs(sess.Request, sess.Request.URL, template, o.ffmpeg, positions)
	started := time.Now()

	current := 0
	runCtx, cancel := context.WithTimeout(ctx, o.cfg.EntryTimeout*time.Duration(len(positions)))
	res, err := o.invoker.Invoke(runCtx, ytdlp.Invocation{
		Args: args,
		Stream: func(line string) {
			if match := itemRegex.FindStringSubmatch(line); match != nil {
				if n, _ := strconv.Atoi(match[1]); n >= 1 && n <= len(positions) {
					current = positions[n-1]
					out.Report(current, session.StatusRunning)
				}
			}
			if current > 0 {
				out.Stream(current, line)
			}
		},
	})
	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	cancel()
	finished := time.Now()

	printed := make(map[int]string)
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		index, path, ok := ytdlp.ParseBulkLine(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if index == 0 && len(positions) == 1 {
			index = positions[0]
		}
		printed[index] = path
	}
	byID := ytdlp.ErrorsByID(res.Stderr)
	lastError := ytdlp.LastErrorLine(res.Stderr)

	outcomes := make([]session.Outcome, 0, len(positions))
	for _, position := range positions {
		outcome := session.Outcome{
			Position:   position,
			Attempt:    attempt,
			StartedAt:  started,
			FinishedAt: finished,
		}
		path, ok := printed[position]
		switch {
		case ok:
			base := filepath.Base(path)
			outcome.Status = session.StatusSucceeded
			outcome.Outputs = collectOutputs(sess.Dir, strings.TrimSuffix(base, filepath.Ext(base)))
			if len(outcome.Outputs) == 0 {
				outcome.Outputs = []string{base}
			}
		case ctx.Err() != nil:
			outcome = cancelledOutcome(position, attempt)
		case errors.Is(err, ytdlp.ErrToolUnavailable):
			outcome.Status = session.StatusFailed
			outcome.Detail = "tool unavailable"
			outcome.Reason = session.ReasonToolUnavailable
		case timedOut:
			outcome.Status = session.StatusFailed
			outcome.Detail = "timed out"
			outcome.Reason = session.ReasonTimedOut
		default:
			outcome.Status = session.StatusFailed
			outcome.Reason = session.ReasonFailed
			outcome.Detail = bulkDetail(sess, position, byID, lastError)
		}
		outcomes = append(outcomes, outcome)
	}
	log.Debug().Str("op", "scheduler/bulk").Msgf("bulk attempt %d: %d of %d produced", attempt, len(printed), len(positions))
	return outcomes
}

// bulkDetail prefers an error attributed to the entry's video ID.
func bulkDetail(sess *session.Session, position int, byID map[string]string, lastError string) string {
	if entry, ok := sess.Entry(position); ok && entry.VideoID != "" {
		if detail, ok := byID[entry.VideoID]; ok {
			return detail
		}
	}
	if len(byID) == 0 && lastError != "" {
		return lastError
	}
	return notProduced
}
