package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bassista/go_pagewatch/internal/fingerprint"
	"github.com/bassista/go_pagewatch/internal/logger"
)

// FileStore keeps the baseline as bare text in a single file: the canonical
// hash string, no envelope, no trailing newline.
type FileStore struct {
	path string
	dir  string
	base string
	mu   sync.Mutex
}

// NewFileStore creates a store for the given file path. The file does not
// need to exist yet.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("state file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" {
		dir = "."
	}
	return &FileStore{path: path, dir: dir, base: base}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored fingerprint. A missing or empty file means no baseline.
func (s *FileStore) Load(_ context.Context) (fingerprint.Hash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.WithComponent("state").Debugf("no state file at %s, no baseline yet", s.path)
			return fingerprint.Hash{}, false, nil
		}
		return fingerprint.Hash{}, false, fmt.Errorf("read state file: %w", err)
	}

	if strings.TrimSpace(string(payload)) == "" {
		logger.WithComponent("state").Warnf("state file %s is empty, treating as no baseline", s.path)
		return fingerprint.Hash{}, false, nil
	}

	h, err := fingerprint.Parse(string(payload))
	if err != nil {
		return fingerprint.Hash{}, false, fmt.Errorf("%w: %s: %v", ErrInvalidState, s.path, err)
	}
	return h, true, nil
}

// Save writes the fingerprint to a temp file in the same directory and
// renames it over the state file.
func (s *FileStore) Save(ctx context.Context, h fingerprint.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, s.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.WriteString(h.String()); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	logger.WithComponent("state").Debugf("baseline %s written to %s", h, s.path)
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
