package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// Local stores blobs as files under a root directory
type Local struct {
	root string
}

var _ interfaces.BlobStore = &Local{}

// NewLocal creates root if it does not exist
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, goerr.New("upload directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create upload directory", goerr.V("root", root))
	}
	return &Local{root: root}, nil
}

func (l *Local) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

// Put writes to a temporary file in the target directory and renames it, so
// a partially written blob is never visible under key.
func (l *Local) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return goerr.Wrap(model.ErrStorage, "failed to create blob directory", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return goerr.Wrap(model.ErrStorage, "failed to create temp file", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		safe.Close(ctx, tmp)
		_ = os.Remove(tmpName)
		return goerr.Wrap(model.ErrStorage, "failed to write blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(model.ErrStorage, "failed to close blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(model.ErrStorage, "failed to commit blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	return nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	src, err := l.path(key)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.BlobKeyKey, key))
	}
	f, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.BlobKeyKey, key))
		}
		return nil, goerr.Wrap(model.ErrStorage, "failed to open blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		safe.Close(ctx, f)
		return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.BlobKeyKey, key))
	}
	return f, nil
}

// Delete removes key. Deleting a missing blob is not an error.
func (l *Local) Delete(ctx context.Context, key string) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(model.ErrStorage, "failed to delete blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	return nil
}
