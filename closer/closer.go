// Package closer collects io.Closer registrations so a group of resources can be
// released with a single call.
//
// The package includes:
//   - Func: adapts a cleanup function to io.Closer
//   - Closer: a collector that releases everything it holds, newest first
//   - Once: a wrapper that lets only the first Close reach the resource
//   - HandlePanic: a wrapper that turns a panicking Close into an error
package closer

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"
)

// ErrPanic wraps a panic recovered from a Close call.
var ErrPanic = errors.New("panic during close")

type funcCloser struct {
	fn func() error
}

func (c *funcCloser) Close() error {
	return c.fn()
}

// Func adapts a cleanup function to io.Closer. A nil function yields nil.
func Func(fn func() error) io.Closer {
	if fn == nil {
		return nil
	}

	return &funcCloser{fn: fn}
}

// Closer holds io.Closers and releases them together.
//
// Close runs every registered closer even if some fail or panic, in reverse order of
// registration, and returns the joined errors. Closer is safe for concurrent use.
type Closer struct {
	mu      sync.Mutex
	closers []io.Closer
}

// New creates a Closer holding the given closers.
func New(closers ...io.Closer) *Closer {
	return &Closer{closers: closers}
}

// Add registers a closer. Nil closers are ignored.
func (c *Closer) Add(closer io.Closer) {
	if closer == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.closers = append(c.closers, closer)
}

// Len returns the number of registered closers.
func (c *Closer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.closers)
}

// Close releases every registered closer and empties the collector,
// so a second Close is a no-op.
func (c *Closer) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error

	for i := len(closers) - 1; i >= 0; i-- {
		if err := HandlePanic(closers[i]).Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

type onceCloser struct {
	done   atomic.Bool
	closer io.Closer
}

// Once wraps a closer so only the first Close call reaches it; later calls return nil.
// Wrapping an already wrapped closer returns it unchanged.
func Once(closer io.Closer) io.Closer {
	if closer == nil {
		return nil
	}

	if once, ok := closer.(*onceCloser); ok {
		return once
	}

	return &onceCloser{closer: closer}
}

func (o *onceCloser) Close() error {
	if !o.done.CompareAndSwap(false, true) {
		return nil
	}

	return o.closer.Close()
}

type panicCloser struct {
	closer io.Closer
}

// HandlePanic wraps a closer so a panic inside Close is returned as an ErrPanic error.
func HandlePanic(closer io.Closer) io.Closer {
	if closer == nil {
		return nil
	}

	if _, ok := closer.(*panicCloser); ok {
		return closer
	}

	return &panicCloser{closer: closer}
}

func (p *panicCloser) Close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("%w: %v\n%s", ErrPanic, r, debug.Stack())
			err = errors.Join(err, perr)
		}
	}()

	return p.closer.Close()
}
