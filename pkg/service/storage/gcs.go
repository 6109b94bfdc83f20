package storage

import (
	"context"
	"errors"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// GCS stores blobs as objects in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.BlobStore = &GCS{}

type GCSOption func(*GCS)

// WithGCSPrefix places every object under prefix
func WithGCSPrefix(prefix string) GCSOption {
	return func(g *GCS) {
		g.prefix = prefix
	}
}

// NewGCS creates a store using Application Default Credentials
func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("GCS bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GCS) object(key string) (*storage.ObjectHandle, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	name := key
	if g.prefix != "" {
		name = path.Join(g.prefix, key)
	}
	return g.client.Bucket(g.bucket).Object(name), nil
}

func (g *GCS) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return goerr.Wrap(model.ErrStorage, "failed to upload blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(model.ErrStorage, "failed to finalize blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := g.object(key)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.BlobKeyKey, key))
	}
	rd, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.BlobKeyKey, key))
		}
		return nil, goerr.Wrap(model.ErrStorage, "failed to read blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	return rd, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(model.ErrStorage, "failed to delete blob", goerr.V(model.BlobKeyKey, key), goerr.V("error", err.Error()))
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
