package http

import (
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// uploadsHandler serves stored blobs under their public URL.
func uploadsHandler(blobs interfaces.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := chi.URLParam(r, "*")
		if blobs == nil {
			handleError(ctx, w, goerr.Wrap(model.ErrNotFound, "uploads are disabled"))
			return
		}

		body, err := blobs.Open(ctx, key)
		if err != nil {
			handleError(ctx, w, err)
			return
		}
		defer safe.Close(ctx, body)

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		safe.Copy(ctx, w, body)
	}
}
