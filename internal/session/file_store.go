package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// FileStore keeps the record in a JSON file readable only by the owner.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a store backed by path. The file is created on first Save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Save(_ context.Context, s *domain.Session) error {
	token, user, err := encode(s)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(map[string]string{KeyToken: token, KeyUser: user}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Load(_ context.Context) (*domain.Session, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var record map[string]string
	if err := json.Unmarshal(raw, &record); err != nil {
		f.logger.Warn("ignoring unreadable session file", zap.String("path", f.path), zap.Error(err))
		return nil, nil
	}
	s, err := decode(record[KeyToken], record[KeyUser])
	if err != nil {
		f.logger.Warn("ignoring stored session", zap.String("path", f.path), zap.Error(err))
		return nil, nil
	}
	return s, nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
