// Package store implements the filesystem-backed entity store: the
// phase/state directory layout, entity listing, and atomic moves between
// states.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andrew-pa/dirorch/internal/config"
)

// FailedState is the reserved per-phase quarantine directory name.
const FailedState = config.FailedState

// Store roots entity storage at a single directory.
type Store struct {
	root string
}

// New returns a store rooted at root.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// PhaseDir returns the directory holding a phase's state subdirectories.
func (s *Store) PhaseDir(phase string) string {
	return filepath.Join(s.root, phase)
}

// StateDir returns the directory for a single (phase, state) pair.
func (s *Store) StateDir(phase, state string) string {
	return filepath.Join(s.PhaseDir(phase), state)
}

// EnsureDirs creates every declared (phase, state) directory, plus each
// phase's _failed quarantine directory, idempotently.
func (s *Store) EnsureDirs(phases []config.Phase) error {
	for _, p := range phases {
		for _, st := range p.States {
			if err := os.MkdirAll(s.StateDir(p.Name, st), 0o755); err != nil {
				return fmt.Errorf("store: creating %s/%s: %w", p.Name, st, err)
			}
		}
		if err := os.MkdirAll(s.StateDir(p.Name, FailedState), 0o755); err != nil {
			return fmt.Errorf("store: creating %s/%s: %w", p.Name, FailedState, err)
		}
	}
	return nil
}

// ListEntities returns the regular, non-hidden filenames in (phase, state),
// sorted ascending by byte comparison.
func (s *Store) ListEntities(phase, state string) ([]string, error) {
	entries, err := os.ReadDir(s.StateDir(phase, state))
	if err != nil {
		return nil, fmt.Errorf("store: listing %s/%s: %w", phase, state, err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// EntityPath returns the path of an entity in a given (phase, state), joined
// onto the store root (absolute when the root is).
func (s *Store) EntityPath(phase, state, filename string) string {
	return filepath.Join(s.StateDir(phase, state), filename)
}

// Move renames an entity from one state directory to another within the
// same phase. It fails if the destination already exists: entity names are
// assumed unique across a phase's states, so a collision is an invariant
// violation the caller must treat as fatal.
func (s *Store) Move(phase, fromState, toState, filename string) error {
	from := s.EntityPath(phase, fromState, filename)
	to := s.EntityPath(phase, toState, filename)
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("store: move %s: destination %s already exists", filename, to)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("store: move %s: checking destination: %w", filename, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("store: move %s from %s/%s to %s/%s: %w", filename, phase, fromState, phase, toState, err)
	}
	return nil
}
