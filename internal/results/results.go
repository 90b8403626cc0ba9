package results

import (
	"os"
	"path/filepath"

	"github.com/tanq16/tubegrab/internal/session"
)

type Failure struct {
	Entry  session.Entry
	Detail string
}

// Summary is a point-in-time view of a session. Failures and Outputs are
// ordered by position.
type Summary struct {
	SessionID string
	Title     string
	Dir       string
	State     session.State
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Pending   int
	Failures  []Failure
	Outputs   []string
}

// Summarize counts outcomes per status. It only reads the session.
func Summarize(s *session.Session) Summary {
	summary := Summary{
		SessionID: s.ID,
		Title:     s.Title,
		Dir:       s.Dir,
		State:     s.State,
		Total:     len(s.Entries),
	}
	for _, o := range s.Outcomes() {
		switch o.Status {
		case session.StatusSucceeded:
			summary.Succeeded++
			for _, name := range o.Outputs {
				summary.Outputs = append(summary.Outputs, filepath.Join(s.Dir, name))
			}
		case session.StatusFailed:
			summary.Failed++
			entry, _ := s.Entry(o.Position)
			summary.Failures = append(summary.Failures, Failure{Entry: entry, Detail: o.Detail})
		case session.StatusSkipped:
			summary.Skipped++
		}
	}
	summary.Pending = summary.Total - summary.Succeeded - summary.Failed - summary.Skipped
	return summary
}

// OutputSize sums the sizes of the summary's output files that still exist.
func (s Summary) OutputSize() int64 {
	var total int64
	for _, path := range s.Outputs {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}
