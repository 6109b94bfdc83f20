package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
)

// Close closes closer and logs a failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Copy streams src into dst and logs a failure. The response status has
// usually been committed already when this is called, so nothing else can be
// done with the error.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) {
	if _, err := io.Copy(dst, src); err != nil {
		logging.From(ctx).Error("Failed to copy", slog.Any("error", err))
	}
}

// Undo runs a compensating action after a failed operation and logs when the
// compensation itself fails.
func Undo(ctx context.Context, what string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		logging.From(ctx).Error("Failed to undo", slog.String("what", what), slog.Any("error", err))
	}
}
