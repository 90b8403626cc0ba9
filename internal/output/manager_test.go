package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tanq16/tubegrab/internal/results"
	"github.com/tanq16/tubegrab/internal/session"
	"github.com/tanq16/tubegrab/internal/utils"
)

func TestManager_PlainReports(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(&buf)
	if m.live {
		t.Fatal("a buffer is not a terminal")
	}
	m.RegisterEntries([]session.Entry{{Position: 1, Title: "Intro"}, {Position: 2, Title: "Outro"}})
	m.StartDisplay()
	m.Report(1, session.StatusRunning)
	m.Stream(1, "[download]  50.0% of 1MiB")
	m.Report(1, session.StatusSucceeded)
	m.Report(2, session.StatusFailed)
	m.StopDisplay()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "001 - Intro") || !strings.Contains(lines[1], StyleSymbols["pass"]) {
		t.Errorf("unexpected success line %q", lines[1])
	}
	if !strings.Contains(lines[2], "002 - Outro") || !strings.Contains(lines[2], StyleSymbols["fail"]) {
		t.Errorf("unexpected failure line %q", lines[2])
	}
}

func TestManager_SortEntries(t *testing.T) {
	m := NewManager(&bytes.Buffer{})
	m.RegisterEntries([]session.Entry{{Position: 3}, {Position: 1}, {Position: 2}, {Position: 4}})
	m.Report(2, session.StatusRunning)
	m.Report(1, session.StatusSucceeded)
	m.Report(4, session.StatusSkipped)

	active, pending, completed := m.sortEntries()
	if len(active) != 1 || active[0].Position != 2 {
		t.Errorf("active = %v", active)
	}
	if len(pending) != 1 || pending[0].Position != 3 {
		t.Errorf("pending = %v", pending)
	}
	if len(completed) != 2 || completed[0].Position != 1 || completed[1].Position != 4 {
		t.Errorf("completed = %v", completed)
	}
}

func TestRenderSummary(t *testing.T) {
	summary := results.Summary{
		SessionID: "abc",
		Title:     "Go Talks",
		Total:     5,
		Succeeded: 3,
		Failed:    2,
		Failures: []results.Failure{
			{Entry: session.Entry{Position: 2, Title: "Second"}, Detail: "Video unavailable"},
			{Entry: session.Entry{Position: 4, Title: "Fourth"}, Detail: "Private video"},
		},
	}
	out := RenderSummary(summary)
	for _, want := range []string{"Go Talks", "Completed 3 of 5", "Failed 2 of 5", "Second", "Video unavailable", "Fourth", "Private video"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary is missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Second") > strings.Index(out, "Fourth") {
		t.Error("failures should be listed in position order")
	}

	clean := RenderSummary(results.Summary{Title: "Done", Total: 1, Succeeded: 1})
	if strings.Contains(clean, "Failures") {
		t.Errorf("no failure table expected:\n%s", clean)
	}
}

func TestRenderEntries(t *testing.T) {
	req, _ := utils.NewDownloadRequest("dQw4w9WgXcQ", t.TempDir(), utils.Flags{}, "", utils.Options{})
	entries := []session.Entry{{Position: 1, VideoID: "aaa", Title: "One"}, {Position: 3, VideoID: "ccc", Title: "Three"}}
	sess := session.New(req, "", "List", req.OutputDir, entries)
	sess.Record(session.Outcome{Position: 1, Status: session.StatusSucceeded})

	out := RenderEntries("List", entries, sess)
	for _, want := range []string{"List (2 entries)", "aaa", "Three", string(session.StatusSucceeded), string(session.StatusPending)} {
		if !strings.Contains(out, want) {
			t.Errorf("entries table is missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(RenderEntries("List", entries, nil), "Status") {
		t.Error("status column should only appear with a session")
	}
}

func TestRenderHistory(t *testing.T) {
	if !strings.Contains(RenderHistory(nil), "No downloads") {
		t.Error("expected empty history message")
	}
	out := RenderHistory([]session.HistoryRecord{{Title: "Clip", Playlist: "List", Status: session.StatusFailed, Timestamp: time.Now()}})
	if !strings.Contains(out, "Clip") || !strings.Contains(out, "failed") {
		t.Errorf("unexpected history output:\n%s", out)
	}
}

func TestHelpers(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := wrapText(strings.Repeat("x", 25), 12); len(got) != 3 {
		t.Errorf("wrapText produced %d lines", len(got))
	}
	if !strings.Contains(progressBar(42.5, 10), "42.5%") {
		t.Error("progress bar should show the percentage")
	}
}
