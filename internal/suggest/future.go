package suggest

import (
	"context"
	"fmt"
	"time"
)

// Future is a suggestion call running in the background. It lets a caller
// start the slow model round trip before extraction and join it later.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc

	suggestions []string
	err         error
}

// Start runs s.Suggest(query) in a new goroutine bounded by timeout.
// A non-positive timeout uses DefaultTimeout.
func Start(ctx context.Context, s Suggester, query string, timeout time.Duration) *Future {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)

	f := &Future{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(f.done)
		defer cancel()
		f.suggestions, f.err = safeCall(ctx, query, s.Suggest)
	}()
	return f
}

// Wait blocks until the call finishes or ctx is done
func (f *Future) Wait(ctx context.Context) ([]string, error) {
	select {
	case <-f.done:
		return f.suggestions, f.err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for suggestion: %w", ctx.Err())
	}
}

// Done is closed when the call has finished
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel abandons the call. Wait still returns once the call observes the
// cancellation.
func (f *Future) Cancel() {
	f.cancel()
}

// Func adapts the future to a SuggestFunc. The query argument is ignored;
// the future already knows its query.
func (f *Future) Func() SuggestFunc {
	return func(ctx context.Context, _ string) ([]string, error) {
		return f.Wait(ctx)
	}
}
