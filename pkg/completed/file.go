package completed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/matzehuels/ondemand/pkg/errors"
)

// FileSet is a [Set] persisted as a JSON file. Every call re-reads the
// file, so separate processes working on the same session see each other's
// progress between calls.
type FileSet struct {
	mu   sync.Mutex
	path string
}

type fileContents struct {
	Keys      []string  `json:"keys"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewFileSet creates a file-backed set at path. The parent directory is
// created; the file itself is created on the first Add.
func NewFileSet(path string) (*FileSet, error) {
	if err := errors.ValidatePath("completed set path", path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create completed set dir: %w", err)
	}
	return &FileSet{path: path}, nil
}

// Path returns the backing file path.
func (s *FileSet) Path() string { return s.path }

func (s *FileSet) Contains(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := keys[key]
	return ok, nil
}

func (s *FileSet) Add(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := keys[key]; ok {
		return nil
	}
	keys[key] = struct{}{}
	return s.save(keys)
}

func (s *FileSet) Keys(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(keys), nil
}

func (s *FileSet) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStore, err, "remove completed set file")
	}
	return nil
}

func (s *FileSet) load() (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStore, err, "read completed set file")
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse completed set file %s", s.path)
	}
	for _, k := range contents.Keys {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (s *FileSet) save(keys map[string]struct{}) error {
	data, err := json.MarshalIndent(fileContents{Keys: sortedKeys(keys), UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal completed set: %w", err)
	}

	// Write through a temp file so a crash never leaves a truncated set
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write completed set file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "replace completed set file")
	}
	return nil
}

var _ Set = (*FileSet)(nil)
