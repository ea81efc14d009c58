// Package botstate persists per-day cycle counters so restarts keep the
// daily trade cap and check statistics.
package botstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// State is the persisted bot state.
type State struct {
	// Day the counters belong to, formatted as 2006-01-02 in UTC.
	Day         string    `json:"day"`
	ChecksToday int       `json:"checks_today"`
	TradesToday int       `json:"trades_today"`
	LastCheck   time.Time `json:"last_check"`
}

// RollDay resets the counters when the calendar day has changed.
func (s *State) RollDay(now time.Time) {
	day := now.UTC().Format("2006-01-02")
	if s.Day == day {
		return
	}
	s.Day = day
	s.ChecksToday = 0
	s.TradesToday = 0
}

// Store persists State to a JSON file with atomic writes.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a state store at path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create bot state dir")
		}
	}
	return &Store{path: path}, nil
}

// Load reads the persisted state. Returns a zero state when none exists.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, errors.Wrap(err, "read bot state")
	}
	if len(payload) == 0 {
		return State{}, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return State{}, errors.Wrap(err, "decode bot state")
	}

	return state, nil
}

// Save writes the state atomically via temp file + rename.
func (s *Store) Save(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode bot state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write bot state temp file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist bot state")
	}

	return nil
}
