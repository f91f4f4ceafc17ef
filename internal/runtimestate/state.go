// Package runtimestate persists the workflow engine's phase cursor so a run
// can resume after an interruption.
package runtimestate

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Doc is the on-disk runtime state document.
type Doc struct {
	CurrentPhase string `json:"current_phase"`
}

// Store loads and saves the runtime state document at a fixed path.
type Store struct {
	path string
}

// New returns a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted phase name, or "", false if the state file is
// absent or unparsable. A corrupt file is treated the same as a missing one
// (logged by the caller, not here) — a fresh start, per the documented
// resolution of the ambiguous source behavior.
func (s *Store) Load() (phase string, ok bool, corrupt bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, false
		}
		return "", false, true
	}
	var doc Doc
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, true
	}
	if doc.CurrentPhase == "" {
		return "", false, false
	}
	return doc.CurrentPhase, true, false
}

// Save atomically writes the current phase cursor to the state file.
func (s *Store) Save(phase string) error {
	data, err := json.MarshalIndent(Doc{CurrentPhase: phase}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path, data, 0o644)
}

// writeFileAtomic writes data to a temporary file and renames it into place,
// so a crash mid-write never leaves a half-written state file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Path joins root and filename into the state file's path. It does not
// create root; the workflow engine's directory setup does that before the
// first Save.
func Path(root, filename string) string {
	return filepath.Join(root, filename)
}
