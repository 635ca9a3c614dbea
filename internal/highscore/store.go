// Package highscore persists the best score as a single integer in a plain
// text file.
package highscore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/lox/twentyfour/internal/fileutil"
)

// Store reads and writes the high score file. A zero Store (empty path) keeps
// the score in memory only.
type Store struct {
	mu   sync.Mutex
	path string
	best int
	read bool
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored high score. A missing file is a score of 0.
func (s *Store) Load() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (int, error) {
	if s.read || s.path == "" {
		return s.best, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.read = true
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read high score: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		s.read = true
		return 0, nil
	}
	v, err := strconv.Atoi(text)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("high score file %s: invalid value %q", s.path, text)
	}

	s.best, s.read = v, true
	return v, nil
}

// Save overwrites the stored high score.
func (s *Store) Save(score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(score)
}

func (s *Store) saveLocked(score int) error {
	if score < 0 {
		return fmt.Errorf("high score must not be negative, got %d", score)
	}
	if s.path != "" {
		if err := fileutil.WriteFileAtomic(s.path, []byte(strconv.Itoa(score)+"\n"), 0o644); err != nil {
			return fmt.Errorf("save high score: %w", err)
		}
	}
	s.best, s.read = score, true
	return nil
}

// Submit records score if it beats the stored high score. It returns the high
// score after the call and whether score replaced it.
func (s *Store) Submit(score int) (best int, improved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	best, err = s.loadLocked()
	if err != nil {
		return 0, false, err
	}
	if score <= best {
		return best, false, nil
	}
	if err := s.saveLocked(score); err != nil {
		return best, false, err
	}
	return score, true, nil
}
