package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/baldhumanity/neat-grid/neat"
)

// FileStore keeps innovation state in a text file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file need not
// exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// LoadInnovations reads the state file. A missing file yields
// neat.ErrStateNotFound.
func (s *FileStore) LoadInnovations() (neat.InnovationState, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return neat.InnovationState{}, fmt.Errorf("%w: %s", neat.ErrStateNotFound, s.path)
		}
		return neat.InnovationState{}, fmt.Errorf("open innovation file '%s': %w", s.path, err)
	}
	defer f.Close()

	state, err := neat.DecodeInnovationState(f)
	if err != nil {
		return neat.InnovationState{}, fmt.Errorf("decode innovation file '%s': %w", s.path, err)
	}
	return state, nil
}

// SaveInnovations writes the state to a temporary file next to the target
// and renames it into place, so a failed write leaves the old file intact.
func (s *FileStore) SaveInnovations(state neat.InnovationState) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp innovation file in '%s': %w", dir, err)
	}
	tmpPath := tmp.Name()

	if err := neat.EncodeInnovationState(tmp, state); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode innovation state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp innovation file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace innovation file '%s': %w", s.path, err)
	}
	return nil
}
