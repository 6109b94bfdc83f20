package storage_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/service/storage"
	"github.com/m-mizutani/gt"
)

func TestValidateKey(t *testing.T) {
	testCases := []struct {
		key   string
		valid bool
	}{
		{"cases/HRM-1/a.jpg", true},
		{"reports/IR-2024-1001_20240101_photo.png", true},
		{"", false},
		{"/etc/passwd", false},
		{"../secret", false},
		{"cases/../../secret", false},
		{"cases//a.jpg", false},
		{"cases\\a.jpg", false},
		{".", false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			err := storage.ValidateKey(tc.key)
			if tc.valid {
				gt.NoError(t, err)
			} else {
				gt.Error(t, err).Is(model.ErrValidation)
			}
		})
	}
}

func runBlobStoreTest(t *testing.T, store interfaces.BlobStore) {
	t.Helper()
	ctx := context.Background()
	prefix := "test/" + uuid.NewString()

	t.Run("Put then Open returns content", func(t *testing.T) {
		key := prefix + "/cases/HRM-1/photo.jpg"
		gt.NoError(t, store.Put(ctx, key, bytes.NewReader([]byte("jpeg-bytes")), "image/jpeg")).Required()

		rc, err := store.Open(ctx, key)
		gt.NoError(t, err).Required()
		defer rc.Close()
		data, err := io.ReadAll(rc)
		gt.NoError(t, err).Required()
		gt.Value(t, string(data)).Equal("jpeg-bytes")
	})

	t.Run("Open missing key is not found", func(t *testing.T) {
		_, err := store.Open(ctx, prefix+"/missing.bin")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Delete removes blob and tolerates missing", func(t *testing.T) {
		key := prefix + "/reports/file.txt"
		gt.NoError(t, store.Put(ctx, key, bytes.NewReader([]byte("x")), "text/plain")).Required()
		gt.NoError(t, store.Delete(ctx, key)).Required()

		_, err := store.Open(ctx, key)
		gt.Error(t, err).Is(model.ErrNotFound)
		gt.NoError(t, store.Delete(ctx, key))
	})

	t.Run("Put rejects traversal", func(t *testing.T) {
		err := store.Put(ctx, "../escape.txt", bytes.NewReader([]byte("x")), "text/plain")
		gt.Error(t, err).Is(model.ErrValidation)
	})
}

func TestLocal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := storage.NewLocal(root)
	gt.NoError(t, err).Required()

	runBlobStoreTest(t, store)

	entries, err := os.ReadDir(root)
	gt.NoError(t, err).Required()
	gt.Array(t, entries).Length(1)
}

func TestNewLocalRequiresRoot(t *testing.T) {
	_, err := storage.NewLocal("")
	gt.Value(t, err).NotNil()
}

func TestGCS(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET not set")
	}

	store, err := storage.NewGCS(context.Background(), bucket, storage.WithGCSPrefix("hrmonitor-test"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = store.Close() })

	runBlobStoreTest(t, store)
}
