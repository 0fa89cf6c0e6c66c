// Package shutdown runs cleanup hooks and cancels the CLI's root context when
// the process is interrupted.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/amp-labs/lottie-interactivity/logger"
)

// HookTimeout bounds the context handed to hooks.
const HookTimeout = 5 * time.Second

var (
	mut     sync.Mutex                  //nolint:gochecknoglobals
	hooks   []func(ctx context.Context) //nolint:gochecknoglobals
	channel chan os.Signal              //nolint:gochecknoglobals
)

// BeforeShutdown registers a hook. Hooks run newest first, before the root
// context is canceled, so they can still use it to stop sessions and flush
// telemetry.
func BeforeShutdown(h func(ctx context.Context)) {
	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, h)
}

// Shutdown triggers the shutdown process as if the process had been
// interrupted. It does nothing when no handler is installed.
func Shutdown() {
	mut.Lock()
	ch := channel
	mut.Unlock()

	if ch == nil {
		return
	}

	select {
	case ch <- os.Interrupt:
	default:
	}
}

// SetupHandler installs a SIGINT/SIGTERM handler and returns a context that
// is canceled after the hooks have run.
func SetupHandler(parent context.Context) context.Context {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = ch
	mut.Unlock()

	ctx, cancel := context.WithCancel(parent)

	go func() {
		defer cancel()
		defer signal.Stop(ch)

		select {
		case sig := <-ch:
			logger.Get(ctx).WarnContext(ctx, "received "+sig.String()+", shutting down")
			Cleanup(ctx)
		case <-ctx.Done():
		}

		mut.Lock()
		if channel == ch {
			channel = nil
		}
		mut.Unlock()
	}()

	return ctx
}

// Cleanup runs and clears every registered hook. Commands that finish on
// their own call it before exiting.
func Cleanup(ctx context.Context) {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HookTimeout)
	defer cancel()

	for _, h := range slices.Backward(pending) {
		h(ctx)
	}
}
