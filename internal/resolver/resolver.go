package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

// Playlist is the ordered result of resolving a URL. A single video resolves
// to a playlist of one entry.
type Playlist struct {
	ID         string
	Title      string
	URL        string
	IsPlaylist bool
	Entries    []session.Entry
}

type Resolver struct {
	invoker    ytdlp.Invoker
	cookieFile string
	proxy      string
	timeout    time.Duration
}

func New(cfg utils.Config, invoker ytdlp.Invoker) *Resolver {
	timeout := cfg.ResolveTimeout
	if timeout <= 0 {
		timeout = utils.DefaultResolveTimeout
	}
	return &Resolver{
		invoker:    invoker,
		cookieFile: cfg.CookieFile,
		proxy:      cfg.Options.Proxy,
		timeout:    timeout,
	}
}

type flatEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	IEKey string `json:"ie_key"`
}

type flatDocument struct {
	Type       string       `json:"_type"`
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	WebpageURL string       `json:"webpage_url"`
	Extractor  string       `json:"extractor_key"`
	Entries    []*flatEntry `json:"entries"`
}

// Resolve lists the entries behind rawURL in playlist order without downloading.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*Playlist, error) {
	url, err := utils.NormalizeURL(rawURL)
	if err != nil {
		return nil, &ResolutionError{URL: rawURL, Kind: ErrMalformedURL, Detail: err.Error()}
	}
	if err := utils.CheckCookieFile(r.cookieFile); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	log.Debug().Str("op", "resolver/resolve").Msgf("resolving %s", url)
	result, err := r.invoker.Invoke(ctx, ytdlp.Invocation{Args: ytdlp.ResolveArgs(url, r.cookieFile, r.proxy)})
	if err != nil {
		switch {
		case errors.Is(err, ytdlp.ErrToolUnavailable):
			return nil, &ResolutionError{URL: url, Kind: ErrToolUnavailable, Detail: err.Error()}
		case errors.Is(err, context.DeadlineExceeded):
			return nil, &ResolutionError{URL: url, Kind: ErrUnreachable, Detail: "timed out"}
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("resolving %s: %w", url, err)
		default:
			return nil, &ResolutionError{URL: url, Kind: ErrBadResponse, Detail: err.Error()}
		}
	}
	if result.ExitCode != 0 {
		detail := ytdlp.LastErrorLine(result.Stderr)
		log.Debug().Str("op", "resolver/resolve").Msgf("yt-dlp exited %d: %s", result.ExitCode, detail)
		return nil, &ResolutionError{URL: url, Kind: classify(detail), Detail: detail}
	}
	return parseDocument(url, result.Stdout)
}

func parseDocument(url string, data []byte) (*Playlist, error) {
	var doc flatDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ResolutionError{URL: url, Kind: ErrBadResponse, Detail: err.Error()}
	}
	if doc.Type != "playlist" {
		if doc.ID == "" {
			return nil, &ResolutionError{URL: url, Kind: ErrBadResponse, Detail: "document has no id"}
		}
		entry := entryFor(1, &flatEntry{ID: doc.ID, Title: doc.Title, URL: doc.WebpageURL, IEKey: doc.Extractor})
		return &Playlist{
			ID:      doc.ID,
			Title:   entry.Title,
			URL:     url,
			Entries: []session.Entry{entry},
		}, nil
	}

	playlist := &Playlist{
		ID:         doc.ID,
		Title:      strings.TrimSpace(doc.Title),
		URL:        url,
		IsPlaylist: true,
	}
	if playlist.Title == "" {
		playlist.Title = utils.DefaultPlaylistTitle
	}
	for i, raw := range doc.Entries {
		if raw == nil {
			log.Warn().Str("op", "resolver/parse").Msgf("playlist entry %d is unavailable, skipping", i+1)
			continue
		}
		playlist.Entries = append(playlist.Entries, entryFor(i+1, raw))
	}
	if len(playlist.Entries) == 0 {
		return nil, &ResolutionError{URL: url, Kind: ErrEmptyPlaylist}
	}
	log.Debug().Str("op", "resolver/parse").Msgf("resolved %q with %d entries", playlist.Title, len(playlist.Entries))
	return playlist, nil
}

// entryFor keeps YouTube entries as bare IDs and other extractors as URLs.
func entryFor(position int, raw *flatEntry) session.Entry {
	entry := session.Entry{
		Position: position,
		VideoID:  raw.ID,
		Title:    strings.TrimSpace(raw.Title),
	}
	if entry.Title == "" {
		entry.Title = fmt.Sprintf("Video %d", position)
	}
	youtube := strings.EqualFold(raw.IEKey, "youtube") || (raw.IEKey == "" && utils.IsVideoID(raw.ID))
	if !youtube && raw.URL != "" {
		entry.URL = raw.URL
	}
	if entry.VideoID == "" && raw.URL != "" {
		entry.URL = raw.URL
	}
	return entry
}
