package statemachine

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/lottie-interactivity/clock"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/player/playertest"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"
)

const toggleYAML = `
- descriptor:
    id: toggle
    initial: idle
  states:
    idle:
      animationId: wave
      autoplay: false
      onClick:
        state: playing
    playing:
      animationId: wave
      playbackSettings:
        autoplay: true
        loop: true
      onClick:
        state: idle
`

type harness struct {
	m       *Manager
	player  *playertest.Player
	element *playertest.Element
	clock   *clock.Manual
	events  *eventLog
}

type eventLog struct {
	mu   sync.Mutex
	list []Event
}

func (l *eventLog) add(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.list = append(l.list, ev)
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.list)
}

func parse(t *testing.T, doc string) []Description {
	t.Helper()

	descs, err := ParseDescriptions([]byte(doc))
	require.NoError(t, err)

	return descs
}

// newHarness builds a manager over fakes. Pass a nil element via noElement to
// run without a container.
func newHarness(t *testing.T, doc string, opts ...func(*harnessOptions)) *harness {
	t.Helper()

	ho := harnessOptions{element: true}
	for _, o := range opts {
		o(&ho)
	}

	p := playertest.NewPlayer(ho.playerOpts...)
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	managerOpts := []Option{
		WithClock(clk),
		WithLogger(NewSlogLogger(slogt.New(t))),
	}

	var el *playertest.Element
	if ho.element {
		el = playertest.NewElement()
		managerOpts = append(managerOpts, WithElement(el))
	}

	var driven player.Player = p
	if ho.wrap != nil {
		driven = ho.wrap(p)
	}

	m, err := NewManager(driven, parse(t, doc), append(managerOpts, ho.managerOpts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	events := &eventLog{}
	unsubscribe := m.Subscribe(events.add)
	t.Cleanup(unsubscribe)

	return &harness{m: m, player: p, element: el, clock: clk, events: events}
}

type harnessOptions struct {
	element     bool
	playerOpts  []playertest.Option
	managerOpts []Option
	wrap        func(*playertest.Player) player.Player
}

func noElement(o *harnessOptions) {
	o.element = false
}

func withPlayer(opts ...playertest.Option) func(*harnessOptions) {
	return func(o *harnessOptions) {
		o.playerOpts = append(o.playerOpts, opts...)
	}
}

// wrapPlayer hands the manager a decorated fake; the harness keeps the
// undecorated one for assertions.
func wrapPlayer(wrap func(*playertest.Player) player.Player) func(*harnessOptions) {
	return func(o *harnessOptions) {
		o.wrap = wrap
	}
}

func withManager(opts ...Option) func(*harnessOptions) {
	return func(o *harnessOptions) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

func (h *harness) state(t *testing.T) string {
	t.Helper()

	_, state, ok := h.m.Current()
	require.True(t, ok, "expected a running session")

	return state
}

func (h *harness) kinds() []Kind {
	all := h.events.all()

	out := make([]Kind, len(all))
	for i, ev := range all {
		out[i] = ev.Kind
	}

	return out
}

// loads counts Play calls that named an animation.
func (h *harness) loads() int {
	n := 0

	for _, c := range h.player.Calls() {
		if c.Method == "Play" && c.Args[0] != "" {
			n++
		}
	}

	return n
}
