package async

import (
	"context"
	"sync"

	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

var inflight sync.WaitGroup

// Dispatch runs handler in a new goroutine detached from the request
// lifetime. The logger of ctx is carried over. Errors and panics are logged
// and never reach the caller.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.Background()
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			logging.From(bgCtx).Error("async handler failed", "error", goerr.Unwrap(err))
		}
	}()
}

// Wait blocks until every dispatched handler has returned. The serve command
// calls it during shutdown and tests call it before asserting side effects.
func Wait() {
	inflight.Wait()
}
