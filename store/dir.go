package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir stores each key as a "<key>.json" file in a folder, so that the book
// stays human-readable and can be versioned with git.
type Dir struct {
	path string
}

// OpenDir opens the folder at path, creating it if needed.
func OpenDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store folder %q: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the folder of the store.
func (d *Dir) Path() string { return d.path }

func (d *Dir) filename(key string) string { return filepath.Join(d.path, key+".json") }

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid key %q", key)
	}
	doc, err := os.ReadFile(d.filename(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", key, err)
	}
	return doc, nil
}

// Put writes the document in a temporary file and renames it, so that a
// crash never leaves a half written document behind.
func (d *Dir) Put(_ context.Context, key string, value []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	tmp, err := os.CreateTemp(d.path, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), d.filename(key)); err != nil {
		return fmt.Errorf("cannot write %q: %w", key, err)
	}
	return nil
}

func (d *Dir) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	err := os.Remove(d.filename(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot delete %q: %w", key, err)
	}
	return nil
}

func (d *Dir) Close() error { return nil }
