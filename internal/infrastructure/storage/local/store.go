// Package local implements storage.ObjectStore on the local filesystem.
package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/c-nielson/CS534-Final-Project/internal/infrastructure/storage"
	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// Store reads and writes plain files.  Created files are written to a
// temporary sibling and renamed into place on Commit, so a reader never sees
// a half-written output.
type Store struct{}

// New returns a filesystem store.
func New() *Store { return &Store{} }

func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("file not found").WithDetailf("path=%s", location).WithCause(err)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open file").WithDetailf("path=%s", location)
	}
	return f, nil
}

func (s *Store) Create(ctx context.Context, location string) (storage.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Dir(location)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create directory").WithDetailf("dir=%s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(location)+".*.tmp")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create temp file").WithDetailf("path=%s", location)
	}
	return &fileWriter{f: tmp, target: location}, nil
}

func (s *Store) List(ctx context.Context, location, ext string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("directory not found").WithDetailf("path=%s", location).WithCause(err)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to list directory").WithDetailf("path=%s", location)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !storage.MatchesExt(e.Name(), ext) {
			continue
		}
		out = append(out, filepath.Join(location, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

type fileWriter struct {
	f      *os.File
	target string
	done   bool
}

func (w *fileWriter) Write(p []byte) (int, error) { return w.f.Write(p) }

func (w *fileWriter) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.f.Name())
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to close temp file").WithDetailf("path=%s", w.target)
	}
	if err := os.Rename(w.f.Name(), w.target); err != nil {
		_ = os.Remove(w.f.Name())
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to move file into place").WithDetailf("path=%s", w.target)
	}
	return nil
}

func (w *fileWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	return os.Remove(w.f.Name())
}

var _ storage.ObjectStore = (*Store)(nil)

//Personal.AI order the ending
