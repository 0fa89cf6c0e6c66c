// Package watcher reloads interactivity descriptions when their files change.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before its change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports description files that were written, created, renamed or
// removed. Paths may name files or directories; a directory reports every
// description file inside it.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration

	Events  chan string
	Errors  chan error
	settled chan settle
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// settle is a debounce timer firing for path. seq tells a timer apart from
// the one that replaced it.
type settle struct {
	path string
	seq  uint64
}

// pendingChange is a file whose debounce window is still open.
type pendingChange struct {
	timer *time.Timer
	seq   uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce replaces DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New starts watching paths.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: DefaultDebounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		settled:  make(chan settle),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(watcher)
	}

	added := make(map[string]bool)

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			_ = fw.Close()

			return nil, err
		}

		info, err := os.Stat(abs)
		if err != nil {
			_ = fw.Close()

			return nil, err
		}

		dir := abs
		if info.IsDir() {
			watcher.dirs[abs] = true
		} else {
			// Editors replace files on save, so the parent is watched instead.
			dir = filepath.Dir(abs)
			watcher.files[abs] = true
		}

		if added[dir] {
			continue
		}

		if err := fw.Add(dir); err != nil {
			_ = fw.Close()

			return nil, err
		}

		added[dir] = true
	}

	go watcher.run()

	return watcher, nil
}

// Close stops the watcher and closes Events and Errors.
func (w *Watcher) Close() error {
	var err error

	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})

	return err
}

// run forwards changes once a file has been quiet for the debounce window, so
// a save made of several writes is reported once, after the last write.
func (w *Watcher) run() {
	defer close(w.done)

	pending := make(map[string]pendingChange)

	defer func() {
		for _, p := range pending {
			p.timer.Stop()
		}
	}()

	var seq uint64

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			if !w.relevant(event.Name) {
				continue
			}

			if w.debounce <= 0 {
				if !w.emit(event.Name) {
					return
				}

				continue
			}

			if p, ok := pending[event.Name]; ok {
				p.timer.Stop()
			}

			seq++
			pending[event.Name] = pendingChange{timer: w.afterQuiet(settle{path: event.Name, seq: seq}), seq: seq}
		case s := <-w.settled:
			if p, ok := pending[s.path]; !ok || p.seq != s.seq {
				continue
			}

			delete(pending, s.path)

			if !w.emit(s.path) {
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) afterQuiet(s settle) *time.Timer {
	return time.AfterFunc(w.debounce, func() {
		select {
		case w.settled <- s:
		case <-w.closeCh:
		}
	})
}

func (w *Watcher) emit(path string) bool {
	select {
	case w.Events <- path:
		return true
	case <-w.closeCh:
		return false
	}
}

func (w *Watcher) relevant(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	return w.files[abs] || (w.dirs[filepath.Dir(abs)] && IsDescriptionFile(abs))
}

// IsDescriptionFile reports whether path has a YAML or JSON extension.
func IsDescriptionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
