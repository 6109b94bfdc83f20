package usecase

import (
	"context"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultUploadName replaces a filename that sanitizes to nothing
const DefaultUploadName = "uploaded_file"

func keepFilenameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) ||
		r == '_' || r == '.' || r == '-'
}

func filterFilename(s string) string {
	return strings.Map(func(r rune) rune {
		if keepFilenameRune(r) {
			return r
		}
		return -1
	}, s)
}

// SanitizeFilename splits name into a safe base and a lower-cased
// extension. Only letters, digits, underscores, whitespace, dots and hyphens
// are kept; an empty base becomes DefaultUploadName.
func SanitizeFilename(name string) (base, ext string) {
	// clients may send a full path
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	ext = path.Ext(name)
	if ext == name {
		// dotfiles like ".env" have no base
		ext = ""
	}
	base = strings.TrimSuffix(name, ext)

	base = strings.TrimSpace(filterFilename(base))
	ext = strings.ToLower(strings.TrimSpace(filterFilename(ext)))
	if ext == "." {
		ext = ""
	}
	if base == "" {
		base = DefaultUploadName
	}
	return base, ext
}

// limitedReader fails once more than limit bytes have been read, instead of
// silently truncating like io.LimitReader. Stores wrap reader errors in
// their own, so callers check tooLarge after a failed write.
type limitedReader struct {
	r        io.Reader
	limit    int64
	read     int64
	tooLarge bool
}

func newLimitedReader(r io.Reader, limit int64) *limitedReader {
	return &limitedReader{r: r, limit: limit}
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.limit > 0 && l.read > l.limit {
		l.tooLarge = true
		return n, errFileTooLarge
	}
	return n, err
}

// putLimited writes r to key, failing with model.ErrValidation when it is
// larger than limit.
func putLimited(ctx context.Context, blobs interfaces.BlobStore, key string, r io.Reader, contentType string, limit int64) error {
	body := newLimitedReader(r, limit)
	if err := blobs.Put(ctx, key, body, contentType); err != nil {
		if body.tooLarge {
			return goerr.Wrap(model.ErrValidation, "file too large", goerr.V(model.BlobKeyKey, key), goerr.V(SizeKey, limit))
		}
		return err
	}
	return nil
}
