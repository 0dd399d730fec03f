package streamcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/spf13/afero"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._=-]+`)

// FileBackend stores one JSON file per key. Expiry is carried inside the
// entry, so ttl is ignored here.
type FileBackend struct {
	fs  afero.Fs
	dir string
}

func NewFileBackend(fs afero.Fs, dir string) *FileBackend {
	return &FileBackend{fs: fs, dir: dir}
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	value, err := afero.ReadFile(f.fs, f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	return value, err
}

func (f *FileBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(f.fs, f.dir, FileName(key)+".*.tmp")
	if err != nil {
		return err
	}

	_, err = tmp.Write(value)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = f.fs.Rename(tmp.Name(), f.path(key))
	}
	if err != nil {
		_ = f.fs.Remove(tmp.Name())
	}
	return err
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	err := f.fs.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileBackend) Name() string {
	return "file"
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, FileName(key))
}

// FileName maps a cache key to a path-safe file name.
func FileName(key string) string {
	return unsafeFileChars.ReplaceAllString(key, "_") + ".json"
}
