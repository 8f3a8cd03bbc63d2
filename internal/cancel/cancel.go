// Package cancel implements the engine-wide cooperative cancellation token.
package cancel

import (
	"os"
	"os/signal"
	"sync"
)

// Token is a cloneable cooperative cancellation handle. The zero value is
// not usable; construct one with New.
type Token struct {
	once sync.Once
	done chan struct{}
}

// New creates a fresh, un-cancelled Token.
func New() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel marks the token cancelled. Safe to call more than once; only the
// first call has an effect, so concurrent or repeated interrupt signals
// coalesce into a single cancellation.
func (t *Token) Cancel() {
	t.once.Do(func() {
		close(t.done)
	})
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the token is cancelled, for use
// in select statements alongside other channel operations.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// NotifyOnInterrupt installs a signal handler that cancels the token the
// first time the process receives SIGINT or SIGTERM. It returns a stop
// function that releases the handler; callers should defer it. The handler
// never blocks: it cancels and returns immediately, leaving any graceful
// shutdown to components that poll the token at their own safe points.
func (t *Token) NotifyOnInterrupt() (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, interruptSignals()...)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			t.Cancel()
		case <-stopped:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(stopped)
	}
}
