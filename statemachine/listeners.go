package statemachine

import (
	"fmt"
	"io"

	"github.com/amp-labs/lottie-interactivity/closer"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/trigger"
	"go.uber.org/atomic"
)

// ListenerSet owns every registration made for one state activation: DOM
// listeners, player listeners, intersection observers and timers. All of them
// are released together.
type ListenerSet struct {
	gen      uint64
	closer   *closer.Closer
	released atomic.Bool
	bindings []Binding
}

func newListenerSet(gen uint64) *ListenerSet {
	return &ListenerSet{gen: gen, closer: closer.New()}
}

func (l *ListenerSet) add(c io.Closer, b Binding) {
	l.closer.Add(closer.Once(c))
	l.bindings = append(l.bindings, b)
}

// Generation is the stamp carried by every event this set produces.
func (l *ListenerSet) Generation() uint64 {
	return l.gen
}

// Len is the number of live registrations.
func (l *ListenerSet) Len() int {
	return l.closer.Len()
}

// Triggers lists the armed triggers in arming order.
func (l *ListenerSet) Triggers() []trigger.Trigger {
	out := make([]trigger.Trigger, len(l.bindings))
	for i, b := range l.bindings {
		out[i] = b.Trigger
	}

	return out
}

// Released reports whether Release has run.
func (l *ListenerSet) Released() bool {
	return l.released.Load()
}

// Release removes every registration. Only the first call does anything.
func (l *ListenerSet) Release() error {
	if l == nil || !l.released.CompareAndSwap(false, true) {
		return nil
	}

	return l.closer.Close()
}

// occurrence counts firings of one binding and lets the count-th one through,
// exactly once.
type occurrence struct {
	seen  atomic.Int64
	fired atomic.Bool
	count int64
}

func newOccurrence(count int) *occurrence {
	return &occurrence{count: int64(max(count, 1))}
}

func (o *occurrence) hit() bool {
	if o.seen.Inc() != o.count {
		return false
	}

	return o.fired.CompareAndSwap(false, true)
}

// pendingEvent is an occurrence waiting in the mailbox.
type pendingEvent struct {
	gen     uint64
	binding Binding
}

// arm registers listeners for every binding of the current state and returns
// the new set. Any registration failure releases what was registered so far.
func (m *Manager) arm(sess *Session, state *CompiledState) (*ListenerSet, error) {
	set := newListenerSet(m.generation.Inc())
	sess.armed(set.gen)

	for _, b := range state.Bindings() {
		if b.Trigger == trigger.Enter {
			continue
		}

		c, err := m.register(sess, set.gen, b)
		if err != nil {
			sess.armed(0)
			_ = set.Release()

			return nil, configErr(sess.Machine.ID, state.Name, err)
		}

		set.add(c, b)
	}

	return set, nil
}

func (m *Manager) register(sess *Session, gen uint64, b Binding) (io.Closer, error) {
	occ := newOccurrence(b.Count)
	fire := func() {
		if occ.hit() {
			m.post(pendingEvent{gen: gen, binding: b})
		}
	}

	switch b.Trigger {
	case trigger.Click, trigger.MouseEnter, trigger.MouseLeave:
		el := m.element
		if el == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDomElement, b.Trigger)
		}

		return el.AddEventListener(string(b.Trigger), fire)
	case trigger.Complete:
		return m.player.AddEventListener(player.EventComplete, fire)
	case trigger.Show:
		if m.element == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDomElement, b.Trigger)
		}

		return m.player.AddIntersectionObserver(player.IntersectionOptions{
			OnIntersect: func(visibility float64) {
				if sess.observeVisibility(gen, visibility) {
					fire()
				}
			},
		})
	case trigger.After:
		timer := m.clock.AfterFunc(b.Delay, fire)

		return closer.Func(func() error {
			timer.Stop()

			return nil
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransitionKey, b.Trigger)
	}
}
