package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/tubegrab/internal/utils"
	"gopkg.in/yaml.v3"
)

var ErrNoState = errors.New("no saved session")

type stateFile struct {
	ID         string                `yaml:"id"`
	Request    utils.DownloadRequest `yaml:"request"`
	PlaylistID string                `yaml:"playlist_id,omitempty"`
	Title      string                `yaml:"title"`
	State      State                 `yaml:"state"`
	CreatedAt  time.Time             `yaml:"created_at"`
	UpdatedAt  time.Time             `yaml:"updated_at"`
	Entries    []Entry               `yaml:"entries"`
	Outcomes   []Outcome             `yaml:"outcomes,omitempty"`
	Superseded []Outcome             `yaml:"superseded,omitempty"`
}

func StatePath(dir string) string {
	return filepath.Join(dir, utils.StateFile)
}

// Save writes the session to its state file in s.Dir.
func Save(s *Session) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("error creating session directory: %w", err)
	}
	outcomes := s.Outcomes()
	s.mu.Lock()
	state := stateFile{
		ID:         s.ID,
		Request:    s.Request,
		PlaylistID: s.PlaylistID,
		Title:      s.Title,
		State:      s.State,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Entries:    s.Entries,
		Outcomes:   outcomes,
		Superseded: append([]Outcome(nil), s.Superseded...),
	}
	s.mu.Unlock()
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}
	path := StatePath(s.Dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("error writing session: %w", err)
	}
	log.Debug().Str("op", "session/save").Msgf("saved session %s to %s", s.ID, path)
	return nil
}

// Load reads the session saved in dir. ErrNoState is returned when none exists.
func Load(dir string) (*Session, error) {
	data, err := os.ReadFile(StatePath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("error reading session: %w", err)
	}
	var state stateFile
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error parsing session: %w", err)
	}
	s := &Session{
		ID:         state.ID,
		Request:    state.Request,
		PlaylistID: state.PlaylistID,
		Title:      state.Title,
		Dir:        dir,
		Entries:    state.Entries,
		Superseded: state.Superseded,
		State:      state.State,
		CreatedAt:  state.CreatedAt,
		UpdatedAt:  state.UpdatedAt,
		outcomes:   make(map[int]Outcome),
	}
	for _, o := range state.Outcomes {
		if _, ok := s.Entry(o.Position); !ok {
			log.Warn().Str("op", "session/load").Msgf("dropping outcome for unknown position %d", o.Position)
			continue
		}
		s.outcomes[o.Position] = o
	}
	log.Debug().Str("op", "session/load").Msgf("loaded session %s with %d outcomes", s.ID, len(s.outcomes))
	return s, nil
}
