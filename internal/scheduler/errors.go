package scheduler

import (
	"errors"
	"fmt"

	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

var (
	ErrEntryFailed      = errors.New("entry download failed")
	ErrTimedOut         = errors.New("entry download timed out")
	ErrSessionExhausted = errors.New("every entry failed")
)

// EntryDownloadError describes one failed entry. It never aborts the session.
type EntryDownloadError struct {
	Position int
	Detail   string
	Err      error
}

func (e *EntryDownloadError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("entry %d: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("entry %d: %v: %s", e.Position, e.Err, e.Detail)
}

func (e *EntryDownloadError) Unwrap() error {
	return e.Err
}

type SessionExhaustedError struct {
	Failed int
}

func (e *SessionExhaustedError) Error() string {
	return fmt.Sprintf("%v: %d failed", ErrSessionExhausted, e.Failed)
}

func (e *SessionExhaustedError) Unwrap() error {
	return ErrSessionExhausted
}

// OutcomeError rebuilds the typed error of a failed outcome, or returns nil.
func OutcomeError(o session.Outcome) error {
	if o.Status != session.StatusFailed {
		return nil
	}
	var kind error
	switch o.Reason {
	case session.ReasonTimedOut:
		kind = ErrTimedOut
	case session.ReasonToolUnavailable:
		kind = ytdlp.ErrToolUnavailable
	default:
		kind = ErrEntryFailed
	}
	return &EntryDownloadError{Position: o.Position, Detail: o.Detail, Err: kind}
}
