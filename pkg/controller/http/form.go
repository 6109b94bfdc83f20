package http

import (
	"errors"
	"net/http"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// formError classifies a multipart parsing failure. An oversized body keeps
// its *http.MaxBytesError so it maps to 413.
func formError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return goerr.Wrap(err, "request body too large")
	}
	return goerr.Wrap(model.ErrValidation, "invalid multipart form", goerr.V("error", err.Error()))
}

// removeMultipartFiles deletes the temporary files of a parsed form.
func removeMultipartFiles(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		logging.From(r.Context()).Warn("failed to remove multipart temp files", "error", err)
	}
}
