package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/tanq16/tubegrab/internal/utils"
	"github.com/tanq16/tubegrab/internal/ytdlp"
)

type fakeInvoker struct {
	result ytdlp.Result
	err    error
	calls  [][]string
	block  bool
}

func (f *fakeInvoker) Invoke(ctx context.Context, inv ytdlp.Invocation) (ytdlp.Result, error) {
	f.calls = append(f.calls, inv.Args)
	if f.block {
		<-ctx.Done()
		return ytdlp.Result{ExitCode: -1}, ctx.Err()
	}
	return f.result, f.err
}

const playlistJSON = `{
  "_type": "playlist",
  "id": "PL123",
  "title": "Go Talks",
  "entries": [
    {"_type": "url", "ie_key": "Youtube", "id": "aaaaaaaaaaa", "url": "https://www.youtube.com/watch?v=aaaaaaaaaaa", "title": "First"},
    null,
    {"_type": "url", "ie_key": "Youtube", "id": "ccccccccccc", "url": "https://www.youtube.com/watch?v=ccccccccccc", "title": ""},
    {"_type": "url", "ie_key": "Youtube", "id": "aaaaaaaaaaa", "url": "https://www.youtube.com/watch?v=aaaaaaaaaaa", "title": "First again"}
  ]
}`

func newResolver(f *fakeInvoker) *Resolver {
	cfg := utils.DefaultConfig()
	return New(cfg, f)
}

func TestResolve_Playlist(t *testing.T) {
	f := &fakeInvoker{result: ytdlp.Result{Stdout: []byte(playlistJSON)}}
	playlist, err := newResolver(f).Resolve(context.Background(), "https://www.youtube.com/playlist?list=PL123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !playlist.IsPlaylist || playlist.ID != "PL123" || playlist.Title != "Go Talks" {
		t.Errorf("unexpected playlist header: %+v", playlist)
	}

	positions := []int{}
	for _, e := range playlist.Entries {
		positions = append(positions, e.Position)
	}
	if !slices.Equal(positions, []int{1, 3, 4}) {
		t.Errorf("positions = %v, expected [1 3 4]", positions)
	}
	if playlist.Entries[1].Title != "Video 3" {
		t.Errorf("untitled entry should default, got %q", playlist.Entries[1].Title)
	}
	if playlist.Entries[2].VideoID != "aaaaaaaaaaa" {
		t.Error("duplicates must be kept")
	}
	if playlist.Entries[0].URL != "" || playlist.Entries[0].Target() != utils.WatchURLPrefix+"aaaaaaaaaaa" {
		t.Errorf("YouTube entries should target the watch URL, got %+v", playlist.Entries[0])
	}

	if len(f.calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(f.calls))
	}
	for _, flag := range []string{ytdlp.FlatPlaylist, ytdlp.DumpSingleJSON, ytdlp.SkipDownload} {
		if !slices.Contains(f.calls[0], flag) {
			t.Errorf("expected %s in %v", flag, f.calls[0])
		}
	}
}

func TestResolve_SingleVideo(t *testing.T) {
	f := &fakeInvoker{result: ytdlp.Result{Stdout: []byte(`{"id": "dQw4w9WgXcQ", "title": "Only One", "webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "extractor_key": "Youtube"}`)}}
	playlist, err := newResolver(f).Resolve(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if playlist.IsPlaylist {
		t.Error("single video should not be a playlist")
	}
	if len(playlist.Entries) != 1 || playlist.Entries[0].Position != 1 || playlist.Entries[0].Title != "Only One" {
		t.Errorf("expected exactly one entry at position 1, got %+v", playlist.Entries)
	}
	if f.calls[0][len(f.calls[0])-1] != utils.WatchURLPrefix+"dQw4w9WgXcQ" {
		t.Errorf("bare ID should be expanded, got %v", f.calls[0])
	}
}

func TestResolve_NonYouTubeEntriesKeepURL(t *testing.T) {
	doc := `{"_type": "playlist", "id": "x", "title": "Vimeo", "entries": [{"ie_key": "Vimeo", "id": "123", "url": "https://vimeo.com/123", "title": "Clip"}]}`
	playlist, err := newResolver(&fakeInvoker{result: ytdlp.Result{Stdout: []byte(doc)}}).Resolve(context.Background(), "https://vimeo.com/album/1")
	if err != nil {
		t.Fatal(err)
	}
	if playlist.Entries[0].Target() != "https://vimeo.com/123" {
		t.Errorf("Target = %s", playlist.Entries[0].Target())
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		fake   *fakeInvoker
		kind   error
		called bool
	}{
		{
			name: "malformed URL",
			url:  "ftp://nowhere",
			fake: &fakeInvoker{},
			kind: ErrMalformedURL,
		},
		{
			name:   "private playlist",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{ExitCode: 1, Stderr: []byte("ERROR: [youtube:tab] PLx: Private video. Sign in if you've been granted access\n")}},
			kind:   ErrAuthRequired,
			called: true,
		},
		{
			name:   "missing playlist",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{ExitCode: 1, Stderr: []byte("ERROR: [youtube:tab] PLx: The playlist does not exist.\n")}},
			kind:   ErrNotFound,
			called: true,
		},
		{
			name:   "unsupported site",
			url:    "https://example.com/x",
			fake:   &fakeInvoker{result: ytdlp.Result{ExitCode: 1, Stderr: []byte("ERROR: Unsupported URL: https://example.com/x\n")}},
			kind:   ErrMalformedURL,
			called: true,
		},
		{
			name:   "network",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{ExitCode: 1, Stderr: []byte("ERROR: [youtube:tab] PLx: Unable to download API page: <urlopen error [Errno -3] Temporary failure in name resolution>\n")}},
			kind:   ErrUnreachable,
			called: true,
		},
		{
			name:   "tool missing",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{ExitCode: -1}, err: ytdlp.ErrToolUnavailable},
			kind:   ErrToolUnavailable,
			called: true,
		},
		{
			name:   "empty playlist",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{Stdout: []byte(`{"_type": "playlist", "id": "PLx", "title": "Empty", "entries": [null]}`)}},
			kind:   ErrEmptyPlaylist,
			called: true,
		},
		{
			name:   "garbage output",
			url:    "https://www.youtube.com/playlist?list=PLx",
			fake:   &fakeInvoker{result: ytdlp.Result{Stdout: []byte("not json")}},
			kind:   ErrBadResponse,
			called: true,
		},
	}

	for _, test := range tests {
		_, err := newResolver(test.fake).Resolve(context.Background(), test.url)
		var resErr *ResolutionError
		if !errors.As(err, &resErr) {
			t.Errorf("%s: expected *ResolutionError, got %v", test.name, err)
			continue
		}
		if !errors.Is(err, test.kind) {
			t.Errorf("%s: expected kind %v, got %v", test.name, test.kind, resErr.Kind)
		}
		if called := len(test.fake.calls) > 0; called != test.called {
			t.Errorf("%s: invoked = %v, expected %v", test.name, called, test.called)
		}
	}
}

func TestResolve_Timeout(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.ResolveTimeout = 20 * time.Millisecond
	_, err := New(cfg, &fakeInvoker{block: true}).Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLx")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable on timeout, got %v", err)
	}
}

func TestResolve_MissingCookieFile(t *testing.T) {
	cfg := utils.DefaultConfig()
	cfg.CookieFile = filepath.Join(t.TempDir(), "cookies.txt")
	f := &fakeInvoker{}
	_, err := New(cfg, f).Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLx")
	if !errors.Is(err, utils.ErrCookieFileMissing) {
		t.Errorf("expected ErrCookieFileMissing, got %v", err)
	}
	if len(f.calls) != 0 {
		t.Error("no invocation expected with a missing cookie file")
	}

	if err := os.WriteFile(cfg.CookieFile, []byte("# Netscape HTTP Cookie File\n"), 0600); err != nil {
		t.Fatal(err)
	}
	f = &fakeInvoker{result: ytdlp.Result{Stdout: []byte(playlistJSON)}}
	if _, err := New(cfg, f).Resolve(context.Background(), "https://www.youtube.com/playlist?list=PLx"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Contains(f.calls[0], cfg.CookieFile) {
		t.Errorf("cookie file should be passed through, got %v", f.calls[0])
	}
}
