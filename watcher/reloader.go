package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/hashing"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/statemachine"
)

// Target is the manager a Reloader feeds. *statemachine.Manager satisfies it.
type Target interface {
	Reload(ctx context.Context, descriptions []statemachine.Description) error
	Current() (machine, state string, ok bool)
	Start(ctx context.Context, id string) error
}

// Reloader keeps the machines of a set of description files loaded into a
// Target. Files whose content hash has not changed are skipped.
type Reloader struct {
	target Target
	hash   hashing.HashFunc

	mu     sync.Mutex
	hashes map[string]string
	files  map[string][]statemachine.Description
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithHashFunc replaces hashing.Xxh3.
func WithHashFunc(fn hashing.HashFunc) ReloaderOption {
	return func(r *Reloader) {
		r.hash = fn
	}
}

// NewReloader returns a Reloader feeding target.
func NewReloader(target Target, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		target: target,
		hash:   hashing.Xxh3,
		hashes: make(map[string]string),
		files:  make(map[string][]statemachine.Description),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Check re-reads path and reloads the target when its content changed. A
// removed file drops its machines. The machine that was running is restarted
// when it still exists. Check reports whether the target was reloaded.
//
// A file that fails to parse or validate leaves the target untouched. Errors
// carry the path as a log annotation.
func (r *Reloader) Check(ctx context.Context, path string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reloaded, err := r.check(ctx, path)

	return reloaded, logger.AnnotateError(err, "path", path)
}

func (r *Reloader) check(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the watch list
	if errors.Is(err, fs.ErrNotExist) {
		if _, known := r.files[path]; !known {
			return false, nil
		}

		delete(r.files, path)
		delete(r.hashes, path)

		return true, r.reload(ctx, path)
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	sum, err := r.hash(hashing.HashableBytes(data))
	if err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	if r.hashes[path] == sum {
		logger.Get(ctx).DebugContext(ctx, "descriptions unchanged", "path", path)

		return false, nil
	}

	descs, err := statemachine.ParseDescriptions(data)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	if err := validate(descs); err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	previous, hadPrevious := r.files[path]
	r.files[path] = descs

	if err := r.reload(ctx, path); err != nil {
		if hadPrevious {
			r.files[path] = previous
		} else {
			delete(r.files, path)
		}

		return false, err
	}

	r.hashes[path] = sum

	return true, nil
}

// Descriptions returns every loaded description, files in natural order.
func (r *Reloader) Descriptions() []statemachine.Description {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.combined()
}

// Run checks every file the watcher reports until ctx is done or the watcher
// is closed. Failures are logged and watching continues.
func (r *Reloader) Run(ctx context.Context, w *Watcher) error {
	log := logger.Get(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}

			reloaded, err := r.Check(ctx, path)
			if err != nil {
				log.ErrorContext(ctx, "failed to reload descriptions", "error", err)

				continue
			}

			if reloaded {
				log.InfoContext(ctx, "descriptions reloaded", "path", path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watch error", "error", err)
		}
	}
}

func (r *Reloader) combined() []statemachine.Description {
	paths := make([]string, 0, len(r.files))
	for path := range r.files {
		paths = append(paths, path)
	}

	natsort.Sort(paths)

	var out []statemachine.Description
	for _, path := range paths {
		out = append(out, r.files[path]...)
	}

	return out
}

// reload swaps the target's machines and restarts the machine that was running.
// A failed restart is logged; the new machines stay loaded. Called with mu held.
func (r *Reloader) reload(ctx context.Context, path string) error {
	running, _, wasRunning := r.target.Current()

	descs := r.combined()

	if err := r.target.Reload(ctx, descs); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if !wasRunning {
		return nil
	}

	if !slices.ContainsFunc(descs, func(d statemachine.Description) bool { return d.Descriptor.ID == running }) {
		logger.Get(ctx).WarnContext(ctx, "running machine was removed", "machine", running)

		return nil
	}

	if err := r.target.Start(ctx, running); err != nil {
		logger.Get(ctx).ErrorContext(ctx, "failed to restart machine", "machine", running, "error", err)
	}

	return nil
}

// validate compiles descs and checks every machine's targets and initial state.
func validate(descs []statemachine.Description) error {
	machines, err := statemachine.Compile(descs)
	if err != nil {
		return err
	}

	var errs []error

	for _, desc := range descs {
		if err := machines[desc.Descriptor.ID].Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
