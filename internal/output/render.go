package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/tanq16/tubegrab/internal/results"
	"github.com/tanq16/tubegrab/internal/session"
)

const maxDetailWidth = 60

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(debugStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// RenderSummary renders the counts of a session followed by a table of failures.
func RenderSummary(s results.Summary) string {
	var b strings.Builder
	pad := strings.Repeat(" ", 2)
	title := s.Title
	if title == "" {
		title = s.SessionID
	}
	fmt.Fprintln(&b, pad+headerStyle.Render(title))
	fmt.Fprintln(&b, pad+success2Style.Render(fmt.Sprintf("Completed %d of %d", s.Succeeded, s.Total)))
	if s.Failed > 0 {
		fmt.Fprintln(&b, pad+errorStyle.Render(fmt.Sprintf("Failed %d of %d", s.Failed, s.Total)))
	}
	if s.Skipped > 0 {
		fmt.Fprintln(&b, pad+warningStyle.Render(fmt.Sprintf("Skipped %d of %d", s.Skipped, s.Total)))
	}
	if s.Pending > 0 {
		fmt.Fprintln(&b, pad+pendingStyle.Render(fmt.Sprintf("Not attempted %d of %d", s.Pending, s.Total)))
	}
	if len(s.Outputs) > 0 {
		saved := fmt.Sprintf("%d files (%s) %s %s", len(s.Outputs), humanize.Bytes(uint64(s.OutputSize())), StyleSymbols["arrow"], s.Dir)
		fmt.Fprintln(&b, pad+debugStyle.Render(saved))
	}
	if len(s.Failures) == 0 {
		return b.String()
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, pad+errorStyle.Bold(true).Render("Failures:"))
	t := newTable("#", "Title", "Reason")
	for _, f := range s.Failures {
		t.Row(strconv.Itoa(f.Entry.Position), truncate(f.Entry.Title, maxDetailWidth), truncate(f.Detail, maxDetailWidth))
	}
	fmt.Fprintln(&b, t.String())
	return b.String()
}

// RenderEntries lists resolved entries, optionally with their current status.
func RenderEntries(title string, entries []session.Entry, sess *session.Session) string {
	var b strings.Builder
	fmt.Fprintln(&b, "  "+headerStyle.Render(fmt.Sprintf("%s (%d entries)", title, len(entries))))
	headers := []string{"#", "ID", "Title"}
	if sess != nil {
		headers = append(headers, "Status")
	}
	t := newTable(headers...)
	for _, e := range entries {
		row := []string{strconv.Itoa(e.Position), e.VideoID, truncate(e.Title, maxDetailWidth)}
		if sess != nil {
			status := session.StatusPending
			if o, ok := sess.Outcome(e.Position); ok {
				status = o.Status
			}
			row = append(row, string(status))
		}
		t.Row(row...)
	}
	fmt.Fprintln(&b, t.String())
	return b.String()
}

func RenderHistory(records []session.HistoryRecord) string {
	if len(records) == 0 {
		return "  " + infoStyle.Render("No downloads recorded yet") + "\n"
	}
	t := newTable("When", "Playlist", "Title", "Status")
	for _, r := range records {
		t.Row(humanize.Time(r.Timestamp), truncate(r.Playlist, 30), truncate(r.Title, maxDetailWidth), string(r.Status))
	}
	return t.String() + "\n"
}
