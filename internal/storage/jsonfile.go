package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// JSONFiles stores each document as <dir>/<name>.json.
type JSONFiles struct {
	dir string
	mu  sync.Mutex
}

// NewJSONFiles creates the directory if needed.
func NewJSONFiles(dir string) (*JSONFiles, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}

	return &JSONFiles{dir: dir}, nil
}

func (s *JSONFiles) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load implements Documents.
func (s *JSONFiles) Load(_ context.Context, name string, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt document starts over empty.
		log.Warn().Err(err).Str("document", name).Msg("Unreadable document, starting empty")
		return false, nil
	}

	return true, nil
}

// Save implements Documents. The document is written to a temporary file and renamed
// so a crash never leaves a truncated file behind.
func (s *JSONFiles) Save(_ context.Context, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(name)
	tmpPath := target + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpPath, target)
}

// Close implements Documents.
func (s *JSONFiles) Close() error {
	return nil
}
