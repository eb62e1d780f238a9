package reactive

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCircularUpdate is returned (wrapped) when the scheduler aborts a flush
// because a watcher kept re-enqueuing itself past the update limit.
var ErrCircularUpdate = errors.New("reactive: circular update detected")

// ErrorHandler receives errors raised while evaluating tracked functions or
// running watcher callbacks. The context string describes the phase and the
// watcher involved, e.g. `callback for watcher "items"`.
type ErrorHandler func(err error, context string)

var (
	errHandlerMu sync.RWMutex
	errHandler   ErrorHandler
)

// SetErrorHandler installs the global error handler. Passing nil removes it;
// with no handler installed, tracked-function errors from non-user watchers
// propagate as panics.
func SetErrorHandler(h ErrorHandler) {
	errHandlerMu.Lock()
	errHandler = h
	errHandlerMu.Unlock()
}

// handleError routes err to the installed handler.
// Returns false when no handler is installed.
func handleError(err error, context string) bool {
	errHandlerMu.RLock()
	h := errHandler
	errHandlerMu.RUnlock()

	if h == nil {
		return false
	}
	h(err, context)
	return true
}

// recoveredError converts a recovered panic value into an error.
func recoveredError(r any) error {
	switch v := r.(type) {
	case error:
		return v
	default:
		return fmt.Errorf("%v", v)
	}
}
