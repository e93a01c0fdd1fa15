package storage

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// LocalStore keeps blobs as flat files in one directory. The directory is
// what the HTTP layer serves under the public prefix.
type LocalStore struct {
	dir    string
	logger logging.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, log logging.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create upload directory")
	}
	log.Info("local blob store ready", logging.String("dir", dir))
	return &LocalStore{dir: dir, logger: log}, nil
}

// Dir returns the root directory.
func (s *LocalStore) Dir() string { return s.dir }

// validateKey rejects keys that could escape the root directory.
func validateKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return errors.InvalidParam("invalid storage key").WithDetail("key=" + key)
	}
	return nil
}

// Put writes to a temporary file first and renames it into place, so a
// failed copy never leaves a truncated blob under key.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create blob")
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write blob")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write blob")
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to store blob")
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete blob")
	}
	return nil
}

func (s *LocalStore) Name() string { return "storage" }

func (s *LocalStore) Check(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInternal, "upload path is not a directory")
	}
	return nil
}
