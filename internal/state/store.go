// Package state persists the reducer's latest output so readers never have to
// replay the journal themselves. The snapshots are a disposable cache: the
// journal stays authoritative and any rebuild regenerates them in full.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rostr/internal/domain"
	"rostr/internal/journal"
	"rostr/internal/reducer"
)

const (
	peopleFile      = "people.json"
	projectsFile    = "projects.json"
	allocationsFile = "allocations.json"
)

// Store materializes journal replays into three keyed-map snapshot files.
type Store struct {
	Dir     string
	Journal *journal.Journal
	Log     *zap.Logger
}

// New ensures the snapshot directory exists and returns a store over it.
func New(dir string, j *journal.Journal, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Dir: dir, Journal: j, Log: log}, nil
}

// Rebuild replays the full journal through the reducer and atomically
// replaces all three snapshots. Each file is written to a temp path and
// renamed into place, so a crash mid-rebuild never exposes a half-written
// snapshot.
func (s *Store) Rebuild() (reducer.State, error) {
	events, err := s.Journal.ReadAll()
	if err != nil {
		return reducer.NewState(), err
	}
	st := reducer.Reduce(events)
	if err := s.writeSnapshot(peopleFile, st.People); err != nil {
		return st, err
	}
	if err := s.writeSnapshot(projectsFile, st.Projects); err != nil {
		return st, err
	}
	if err := s.writeSnapshot(allocationsFile, st.Allocations); err != nil {
		return st, err
	}
	return st, nil
}

func (s *Store) writeSnapshot(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(s.Dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// People returns the last persisted people map, empty if the store was never
// built or the snapshot is unreadable. Loads never fail a caller.
func (s *Store) People() map[string]domain.Person {
	m := map[string]domain.Person{}
	if err := s.load(peopleFile, &m); err != nil {
		return map[string]domain.Person{}
	}
	return m
}

// Projects returns the last persisted projects map, empty on any failure.
func (s *Store) Projects() map[string]domain.Project {
	m := map[string]domain.Project{}
	if err := s.load(projectsFile, &m); err != nil {
		return map[string]domain.Project{}
	}
	return m
}

// Allocations returns the last persisted allocations map, empty on any
// failure.
func (s *Store) Allocations() map[string]domain.Allocation {
	m := map[string]domain.Allocation{}
	if err := s.load(allocationsFile, &m); err != nil {
		return map[string]domain.Allocation{}
	}
	return m
}

// State assembles all three snapshots into one reducer.State for readers that
// join across entities.
func (s *Store) State() reducer.State {
	return reducer.State{
		People:      s.People(),
		Projects:    s.Projects(),
		Allocations: s.Allocations(),
	}
}

func (s *Store) load(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.Log.Warn("state snapshot unreadable, treating as empty",
				zap.String("file", name), zap.Error(err))
		}
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.Log.Warn("state snapshot corrupt, treating as empty",
			zap.String("file", name), zap.Error(err))
		return err
	}
	return nil
}
