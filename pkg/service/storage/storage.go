package storage

import (
	"path"
	"strings"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// ValidateKey rejects keys that are empty, absolute or escape the store
// root. Keys always use forward slashes.
func ValidateKey(key string) error {
	if key == "" {
		return goerr.Wrap(model.ErrValidation, "empty blob key")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return goerr.Wrap(model.ErrValidation, "invalid blob key", goerr.V(model.BlobKeyKey, key))
	}
	if cleaned := path.Clean(key); cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return goerr.Wrap(model.ErrValidation, "invalid blob key", goerr.V(model.BlobKeyKey, key))
	}
	return nil
}
