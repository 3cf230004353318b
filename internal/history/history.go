// Package history persists the conversation as a whole-file JSON document.
// A missing file is an empty conversation. Saves replace the file atomically
// through a sibling temp file.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ram70099/ChatBot/internal/logger"
)

// FileStore keeps a History in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore returns a store bound to path. Nothing is touched on disk until Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the whole file. An absent file yields an empty History.
func (s *FileStore) Load() (History, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.L.Debug("history file absent; starting empty", "path", s.path)
			return History{}, nil
		}
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}

	var h History
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after history array", ErrCorrupt, s.path)
	}
	if h == nil {
		// "null" decodes to a nil slice
		h = History{}
	}
	logger.L.Debug("history loaded", "path", s.path, "exchanges", len(h))
	return h, nil
}

// Save serializes h with two-space indentation and replaces the file.
func (s *FileStore) Save(h History) error {
	if h == nil {
		h = History{}
	}
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	b = append(b, '\n')
	if err := writeFileAtomic(s.path, b, 0o644); err != nil {
		return err
	}
	logger.L.Debug("history saved", "path", s.path, "exchanges", len(h))
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure history dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp history file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp history file %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp history file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history file %s: %w", path, err)
	}
	return nil
}
