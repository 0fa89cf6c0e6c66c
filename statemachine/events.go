package statemachine

import (
	"slices"
	"sync"
	"time"

	"github.com/amp-labs/lottie-interactivity/trigger"
)

// Kind classifies manager notifications.
type Kind string

const (
	KindStarted      Kind = "started"
	KindTransitioned Kind = "transitioned"
	KindStopped      Kind = "stopped"
	KindError        Kind = "error"
)

// Event is delivered to subscribers after the manager has finished the work it
// describes. Subscribers run outside the manager's lock and may call Start or Stop.
type Event struct {
	Kind    Kind
	Machine string
	Session string
	From    string
	To      string
	Trigger trigger.Trigger
	Err     error
	At      time.Time
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Subscribe registers fn for every notification. The returned function removes
// the subscription and is safe to call more than once.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() {
			m.subsMu.Lock()
			defer m.subsMu.Unlock()

			m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

// note queues a notification. Called with mu held.
func (m *Manager) note(ev Event) {
	ev.At = m.clock.Now()

	m.notesMu.Lock()
	m.notes = append(m.notes, ev)
	m.notesMu.Unlock()
}

// flushNotes delivers queued notifications. Called without mu held.
func (m *Manager) flushNotes() {
	m.notesMu.Lock()
	notes := m.notes
	m.notes = nil
	m.notesMu.Unlock()

	if len(notes) == 0 {
		return
	}

	m.subsMu.RLock()
	subs := slices.Clone(m.subs)
	m.subsMu.RUnlock()

	for _, ev := range notes {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}
