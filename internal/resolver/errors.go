package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tanq16/tubegrab/internal/ytdlp"
)

var (
	ErrMalformedURL    = errors.New("malformed URL")
	ErrUnreachable     = errors.New("source unreachable")
	ErrAuthRequired    = errors.New("authentication required")
	ErrNotFound        = errors.New("playlist or video not found")
	ErrToolUnavailable = ytdlp.ErrToolUnavailable
	ErrEmptyPlaylist   = errors.New("playlist has no entries")
	ErrBadResponse     = errors.New("unexpected response from yt-dlp")
)

// ResolutionError is returned when a URL cannot be turned into a list of
// entries. Kind is one of the sentinel errors above.
type ResolutionError struct {
	URL    string
	Kind   error
	Detail string
}

func (e *ResolutionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("resolving %s: %v", e.URL, e.Kind)
	}
	return fmt.Sprintf("resolving %s: %v: %s", e.URL, e.Kind, e.Detail)
}

func (e *ResolutionError) Unwrap() error {
	return e.Kind
}

var classifiers = []struct {
	kind    error
	phrases []string
}{
	{ErrAuthRequired, []string{"sign in", "private video", "members-only", "members only", "join this channel", "cookies"}},
	{ErrMalformedURL, []string{"unsupported url", "is not a valid url"}},
	{ErrNotFound, []string{"does not exist", "unavailable", "http error 404", "not found"}},
	{ErrUnreachable, []string{"unable to download", "failed to resolve", "name or service not known", "connection", "timed out", "network is unreachable", "http error 5"}},
}

// classify maps the tool's error message onto a resolution error kind.
func classify(detail string) error {
	lower := strings.ToLower(detail)
	for _, c := range classifiers {
		for _, phrase := range c.phrases {
			if strings.Contains(lower, phrase) {
				return c.kind
			}
		}
	}
	return ErrBadResponse
}
