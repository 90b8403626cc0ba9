package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tanq16/tubegrab/internal/utils"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Final reports whether s can be stored as an outcome.
func (s Status) Final() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

type State string

const (
	StateResolved  State = "resolved"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Reasons recorded on outcomes so the typed error can be rebuilt after a reload.
const (
	ReasonFailed          = "failed"
	ReasonTimedOut        = "timed_out"
	ReasonToolUnavailable = "tool_unavailable"
	ReasonCancelled       = "cancelled"
	ReasonNotSelected     = "not_selected"
)

var (
	ErrUnknownPosition = errors.New("position is not part of the session")
	ErrNotFinal        = errors.New("outcome status is not final")
)

// Entry is one video of a resolved playlist. Position is 1-based.
type Entry struct {
	Position int    `yaml:"position"`
	VideoID  string `yaml:"video_id"`
	Title    string `yaml:"title"`
	URL      string `yaml:"url,omitempty"`
}

// Target is what gets handed to the tool for this entry.
func (e Entry) Target() string {
	if e.URL != "" {
		return e.URL
	}
	return utils.WatchURL(e.VideoID)
}

// Stem is the file name stem shared by the entry's media file and sidecars.
func (e Entry) Stem() string {
	return utils.EntryStem(e.Position, e.Title)
}

// Outcome is the result of one attempt at one entry. It is never modified
// once recorded.
type Outcome struct {
	Position   int       `yaml:"position"`
	Status     Status    `yaml:"status"`
	Outputs    []string  `yaml:"outputs,omitempty"`
	Detail     string    `yaml:"detail,omitempty"`
	Reason     string    `yaml:"reason,omitempty"`
	Attempt    int       `yaml:"attempt"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
}

// Session owns every outcome produced for one user-initiated download.
type Session struct {
	ID         string
	Request    utils.DownloadRequest
	PlaylistID string
	Title      string
	Dir        string
	Entries    []Entry
	Superseded []Outcome
	State      State
	CreatedAt  time.Time
	UpdatedAt  time.Time

	mu       sync.Mutex
	outcomes map[int]Outcome
}

func New(req utils.DownloadRequest, playlistID, title, dir string, entries []Entry) *Session {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	now := time.Now()
	return &Session{
		ID:         id.String(),
		Request:    req,
		PlaylistID: playlistID,
		Title:      title,
		Dir:        dir,
		Entries:    entries,
		State:      StateResolved,
		CreatedAt:  now,
		UpdatedAt:  now,
		outcomes:   make(map[int]Outcome),
	}
}

func (s *Session) Entry(position int) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Position == position {
			return e, true
		}
	}
	return Entry{}, false
}

// Record stores o as the current outcome of its position. A previous outcome
// for the same position is moved to Superseded.
func (s *Session) Record(o Outcome) error {
	if !o.Status.Final() {
		return fmt.Errorf("%w: %s", ErrNotFinal, o.Status)
	}
	if _, ok := s.Entry(o.Position); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPosition, o.Position)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = make(map[int]Outcome)
	}
	if prev, ok := s.outcomes[o.Position]; ok {
		s.Superseded = append(s.Superseded, prev)
	}
	o.Outputs = append([]string(nil), o.Outputs...)
	s.outcomes[o.Position] = o
	s.UpdatedAt = time.Now()
	return nil
}

func (s *Session) Outcome(position int) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.outcomes[position]
	return o, ok
}

// Outcomes returns the current outcomes sorted by position.
func (s *Session) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Outcome, 0, len(s.outcomes))
	for _, o := range s.outcomes {
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result
}

func (s *Session) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = state
	s.UpdatedAt = time.Now()
}
