package statemachine

import (
	"context"
	"sync"
	"time"
)

// Session is one Start/Stop cycle of a machine.
type Session struct {
	ID        string
	Machine   *CompiledMachine
	Current   string
	StartedAt time.Time

	ctx         context.Context //nolint:containedctx // outlives the Start call, carries log fields
	listeners   *ListenerSet
	entryCounts map[string]int
	enteredAt   time.Time

	// visMu guards the visibility dedup state and the generation of the
	// listener set allowed to update it.
	visMu          sync.Mutex
	armedGen       uint64
	lastVisibility float64
}

func newSession(ctx context.Context, id string, machine *CompiledMachine, now time.Time) *Session {
	return &Session{
		ID:          id,
		Machine:     machine,
		StartedAt:   now,
		ctx:         ctx,
		entryCounts: make(map[string]int, len(machine.States)),
	}
}

// EntryCount returns how many times the state has been entered in this session.
func (s *Session) EntryCount(state string) int {
	return s.entryCounts[state]
}

func (s *Session) state() *CompiledState {
	return s.Machine.States[s.Current]
}

// armed records the generation of the listener set being registered. Called
// with mu held.
func (s *Session) armed(gen uint64) {
	s.visMu.Lock()
	defer s.visMu.Unlock()

	s.armedGen = gen
}

// releaseListeners tears down the armed listener set. Called with mu held.
func (s *Session) releaseListeners() error {
	s.armed(0)

	err := s.listeners.Release()
	s.listeners = nil

	return err
}

// observeVisibility records a visibility report from the observer of listener
// set gen and says whether it counts as a show occurrence: it must be visible
// and differ from the last report. Reports from a set that is no longer armed
// are ignored and leave the last report untouched.
func (s *Session) observeVisibility(gen uint64, visibility float64) bool {
	s.visMu.Lock()
	defer s.visMu.Unlock()

	if gen != s.armedGen {
		return false
	}

	if visibility <= 0 {
		s.lastVisibility = visibility

		return false
	}

	if visibility == s.lastVisibility {
		return false
	}

	s.lastVisibility = visibility

	return true
}

// LastVisibility is the last visibility percentage reported to a show observer.
func (s *Session) LastVisibility() float64 {
	s.visMu.Lock()
	defer s.visMu.Unlock()

	return s.lastVisibility
}
