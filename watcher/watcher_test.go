package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amp-labs/lottie-interactivity/hashing"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/player/playertest"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const toggle = `
- descriptor: {id: toggle, initial: idle}
  states:
    idle: {animationId: wave, onClick: {state: playing}}
    playing: {animationId: wave, autoplay: true, onClick: {state: idle}}
`

const spinner = `
- descriptor: {id: spinner, initial: spin}
  states:
    spin: {animationId: spin, onComplete: {state: spin}}
`

func newManager(t *testing.T) *statemachine.Manager {
	t.Helper()

	m, err := statemachine.NewManager(playertest.NewPlayer(), nil,
		statemachine.WithElement(playertest.NewElement()),
		statemachine.WithLogger(statemachine.NewSlogLogger(slogt.New(t))))
	require.NoError(t, err)

	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	return m
}

func write(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestReloaderCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	r := NewReloader(m)

	path := filepath.Join(t.TempDir(), "machines.yaml")
	write(t, path, toggle)

	reloaded, err := r.Check(ctx, path)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"toggle"}, m.Machines())

	require.NoError(t, m.Start(ctx, "toggle"))

	reloaded, err = r.Check(ctx, path)
	require.NoError(t, err)
	assert.False(t, reloaded, "unchanged content is skipped")

	write(t, path, toggle+spinner)

	reloaded, err = r.Check(ctx, path)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"spinner", "toggle"}, m.Machines())

	machine, state, ok := m.Current()
	require.True(t, ok, "running machine is restarted")
	assert.Equal(t, "toggle", machine)
	assert.Equal(t, "idle", state)
	assert.Len(t, r.Descriptions(), 2)
}

func TestReloaderRejectsBadContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	r := NewReloader(m)

	path := filepath.Join(t.TempDir(), "machines.yaml")
	write(t, path, toggle)

	_, err := r.Check(ctx, path)
	require.NoError(t, err)

	tests := []struct {
		name    string
		content string
	}{
		{name: "unparseable", content: "- descriptor: [nope"},
		{name: "dangling target", content: `
- descriptor: {id: toggle, initial: idle}
  states:
    idle: {animationId: wave, onClick: {state: gone}}
`},
		{name: "duplicate machine", content: toggle + toggle},
	}

	for _, tt := range tests {
		write(t, path, tt.content)

		reloaded, err := r.Check(ctx, path)
		require.Error(t, err, tt.name)
		assert.False(t, reloaded, tt.name)
		assert.Equal(t, []string{"toggle"}, m.Machines(), tt.name)

		attrs := logger.Annotations(err)
		require.Len(t, attrs, 1, tt.name)
		assert.Equal(t, "path", attrs[0].Key, tt.name)
		assert.Equal(t, path, attrs[0].Value.String(), tt.name)
	}

	write(t, path, toggle)

	reloaded, err := r.Check(ctx, path)
	require.NoError(t, err)
	assert.False(t, reloaded, "reverting to the loaded content is a no-op")
}

func TestReloaderAcrossFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	r := NewReloader(m)

	dir := t.TempDir()
	first := filepath.Join(dir, "a.yaml")
	second := filepath.Join(dir, "b.yaml")
	write(t, first, toggle)
	write(t, second, spinner)

	for _, path := range []string{second, first} {
		_, err := r.Check(ctx, path)
		require.NoError(t, err)
	}

	descs := r.Descriptions()
	require.Len(t, descs, 2)
	assert.Equal(t, "toggle", descs[0].Descriptor.ID)

	write(t, second, toggle)

	_, err := r.Check(ctx, second)
	require.ErrorIs(t, err, statemachine.ErrDuplicateMachine)
	assert.Equal(t, []string{"spinner", "toggle"}, m.Machines())

	require.NoError(t, m.Start(ctx, "spinner"))
	require.NoError(t, os.Remove(second))

	reloaded, err := r.Check(ctx, second)
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []string{"toggle"}, m.Machines())

	_, _, ok := m.Current()
	assert.False(t, ok, "removed machine is not restarted")

	reloaded, err = r.Check(ctx, filepath.Join(dir, "never.yaml"))
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func TestReloaderHashFunc(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	r := NewReloader(newManager(t), WithHashFunc(func(h hashing.Hashable) (string, error) {
		calls.Inc()

		return hashing.Sha256(h)
	}))

	path := filepath.Join(t.TempDir(), "machines.yaml")
	write(t, path, toggle)

	for range 2 {
		_, err := r.Check(context.Background(), path)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), calls.Load())
}

func receive(t *testing.T, w *Watcher) string {
	t.Helper()

	select {
	case path := <-w.Events:
		return path
	case err := <-w.Errors:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}

	return ""
}

func TestWatcherDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	w, err := New([]string{dir}, WithDebounce(0))
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	write(t, filepath.Join(dir, "notes.txt"), "ignored")

	path := filepath.Join(dir, "machines.yaml")
	write(t, path, toggle)

	assert.Equal(t, path, receive(t, w))
}

func TestWatcherSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "machines.json")
	write(t, path, "[]")

	w, err := New([]string{path, path})
	require.NoError(t, err)

	write(t, filepath.Join(dir, "other.yaml"), spinner)
	write(t, path, toggle)

	assert.Equal(t, path, receive(t, w))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	for range w.Events {
	}
}

func TestWatcherReportsAfterTheLastWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "machines.yaml")
	write(t, path, spinner)

	const debounce = 200 * time.Millisecond

	w, err := New([]string{dir}, WithDebounce(debounce))
	require.NoError(t, err)

	t.Cleanup(func() { _ = w.Close() })

	// An editor saving in two steps: a truncated write, then the full file.
	write(t, path, "- descriptor: {id: tog")
	time.Sleep(10 * time.Millisecond)
	write(t, path, toggle)

	assert.Equal(t, path, receive(t, w))

	m := newManager(t)
	changed, err := NewReloader(m).Check(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"toggle"}, m.Machines())

	select {
	case extra := <-w.Events:
		t.Fatalf("unexpected second event for %s", extra)
	case <-time.After(3 * debounce):
	}
}

func TestWatcherMissingPath(t *testing.T) {
	t.Parallel()

	_, err := New([]string{filepath.Join(t.TempDir(), "missing")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "machines.yaml")
	write(t, path, toggle)

	m := newManager(t)
	r := NewReloader(m)

	_, err := r.Check(context.Background(), path)
	require.NoError(t, err)

	w, err := New([]string{dir}, WithDebounce(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- r.Run(ctx, w) }()

	write(t, path, toggle+spinner)

	assert.Eventually(t, func() bool {
		return len(m.Machines()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.NoError(t, w.Close())
}

func TestIsDescriptionFile(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]bool{
		"a.yaml": true, "a.YML": true, "a.json": true, "a.txt": false, "yaml": false,
	} {
		assert.Equal(t, want, IsDescriptionFile(path), path)
	}
}
