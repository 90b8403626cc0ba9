package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const MaxHistory = 500

type HistoryRecord struct {
	Title     string    `yaml:"title"`
	Status    Status    `yaml:"status"`
	Detail    string    `yaml:"detail,omitempty"`
	Playlist  string    `yaml:"playlist"`
	Session   string    `yaml:"session"`
	Timestamp time.Time `yaml:"timestamp"`
}

// AppendHistory adds one record per outcome to the history file at path,
// keeping only the newest MaxHistory records.
func AppendHistory(path string, s *Session, outcomes []Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	records, err := ReadHistory(path, 0)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		title := ""
		if e, ok := s.Entry(o.Position); ok {
			title = e.Title
		}
		records = append(records, HistoryRecord{
			Title:     title,
			Status:    o.Status,
			Detail:    o.Detail,
			Playlist:  s.Title,
			Session:   s.ID,
			Timestamp: o.FinishedAt,
		})
	}
	if len(records) > MaxHistory {
		records = records[len(records)-MaxHistory:]
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating history directory: %w", err)
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("error encoding history: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// ReadHistory returns the last n records, or all of them when n <= 0.
func ReadHistory(path string, n int) ([]HistoryRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	var records []HistoryRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error parsing history: %w", err)
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}
