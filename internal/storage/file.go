package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
)

// FileStore keeps one document per key under a state directory, the local
// profile equivalent of browser storage. Writes go through a temp file and
// rename so readers never observe a partial document.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create state directory")
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("read key %q", key))
	}
	return string(data), nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	target := f.path(key)
	tmp, err := os.CreateTemp(f.dir, key+".*")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("stage key %q", key))
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("write key %q", key))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("flush key %q", key))
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("chmod key %q", key))
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("commit key %q", key))
	}
	return nil
}

func (f *FileStore) Remove(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, fmt.Sprintf("remove key %q", key))
	}
	return nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
