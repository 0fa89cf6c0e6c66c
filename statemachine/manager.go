package statemachine

import (
	"context"
	"errors"
	"sync"
	"time"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/clock"
	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/trigger"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Manager runs at most one interactivity session against a player.
//
// Events from the element, the player and timers are posted to a mailbox and
// processed one at a time by whichever goroutine holds the run lock. Events
// posted while a transition is in progress wait their turn; events from a
// listener set that has since been released are dropped.
type Manager struct {
	player    player.Player
	clock     clock.Clock
	logger    Logger
	defaults  player.Settings
	spanDebug bool

	// mu is the run lock. Everything below it up to queueMu is guarded by it.
	mu       sync.Mutex
	element  player.Element
	machines map[string]*CompiledMachine
	session  *Session

	queueMu sync.Mutex
	queue   []pendingEvent

	notesMu sync.Mutex
	notes   []Event

	subsMu  sync.RWMutex
	subs    []subscriber
	nextSub uint64

	generation atomic.Uint64
	current    atomic.Pointer[snapshot]
}

type snapshot struct {
	machine string
	state   string
	session string
}

// Option configures a Manager.
type Option func(*Manager)

// WithElement sets the container element DOM triggers are observed on.
func WithElement(el player.Element) Option {
	return func(m *Manager) {
		m.element = el
	}
}

// WithClock replaces the clock used for onAfter timers.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger replaces the default slog-backed Logger.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithDefaults sets the playback settings every state entry starts from, for
// players that cannot report their manifest settings. Unset fields keep the
// built-in defaults.
func WithDefaults(s player.Settings) Option {
	return func(m *Manager) {
		m.defaults = s.Merge(player.DefaultSettings())
	}
}

// WithSpanDebug logs every span the manager starts.
func WithSpanDebug(enabled bool) Option {
	return func(m *Manager) {
		m.spanDebug = enabled
	}
}

// NewManager compiles descriptions and returns a Manager driving p.
func NewManager(p player.Player, descriptions []Description, opts ...Option) (*Manager, error) {
	machines, err := Compile(descriptions)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		player:   p,
		clock:    clock.Real(),
		logger:   NewDefaultLogger(),
		defaults: player.DefaultSettings(),
		machines: machines,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.current.Store(&snapshot{})

	return m, nil
}

// Machines returns the ids of the compiled machines in natural order.
func (m *Manager) Machines() []string {
	m.mu.Lock()
	defer m.unlock()

	ids := make([]string, 0, len(m.machines))
	for id := range m.machines {
		ids = append(ids, id)
	}

	natsort.Sort(ids)

	return ids
}

// Machine returns a compiled machine by id.
func (m *Manager) Machine(id string) (*CompiledMachine, bool) {
	m.mu.Lock()
	defer m.unlock()

	machine, ok := m.machines[id]

	return machine, ok
}

// Current returns the running machine and its current state.
func (m *Manager) Current() (machine, state string, ok bool) {
	snap := m.current.Load()
	if snap == nil || snap.machine == "" {
		return "", "", false
	}

	return snap.machine, snap.state, true
}

// SessionID returns the id of the running session, or "".
func (m *Manager) SessionID() string {
	if snap := m.current.Load(); snap != nil {
		return snap.session
	}

	return ""
}

// SetElement replaces the container element. It takes effect on the next
// state entry.
func (m *Manager) SetElement(el player.Element) {
	m.mu.Lock()
	defer m.unlock()

	m.element = el
}

// Start stops any running session and starts machine id from its initial
// state. On failure no session is left behind.
func (m *Manager) Start(ctx context.Context, id string) error {
	base := ctx

	ctx, span := m.startSessionSpan(ctx, id)

	m.mu.Lock()
	err := m.startLocked(ctx, base, id)
	m.unlock()

	endSpan(span, err)

	return err
}

func (m *Manager) startLocked(ctx, base context.Context, id string) error {
	if m.session != nil {
		if err := m.stopLocked(ctx, nil); err != nil {
			logger.Get(ctx).WarnContext(ctx, "failed to stop previous session cleanly", "error", err)
		}
	}

	machine, ok := m.machines[id]
	if !ok {
		return m.startFailed(ctx, id, configErr(id, "", ErrUnknownMachine))
	}

	if err := machine.Validate(); err != nil {
		return m.startFailed(ctx, id, err)
	}

	sessionID := uuid.NewString()
	sessCtx := logger.WithSession(context.WithoutCancel(base), sessionID)
	sess := newSession(sessCtx, sessionID, machine, m.clock.Now())
	m.session = sess

	if err := m.enter(ctx, sess, machine.Initial); err != nil {
		m.abortLocked(ctx, sess, err)

		return err
	}

	sessionsTotal.WithLabelValues(machine.ID, outcomeStarted).Inc()
	m.note(Event{Kind: KindStarted, Machine: machine.ID, Session: sess.ID, To: machine.Initial})

	return nil
}

func (m *Manager) startFailed(ctx context.Context, id string, err error) error {
	sessionsTotal.WithLabelValues(sanitizeMachine(id), outcomeFailed).Inc()
	errorsTotal.WithLabelValues(sanitizeMachine(id), errorKindConfig).Inc()
	logger.Get(ctx).ErrorContext(ctx, "failed to start state machine", "machine", id, "error", err)

	return err
}

// abortLocked discards a session whose start failed part way.
func (m *Manager) abortLocked(ctx context.Context, sess *Session, cause error) {
	if err := sess.releaseListeners(); err != nil {
		cause = errors.Join(cause, err)
	}

	if err := m.player.Stop(ctx); err != nil {
		logger.Get(ctx).WarnContext(ctx, "failed to stop player after aborted start", "error", err)
	}

	m.session = nil
	m.publish()
	armedListeners.WithLabelValues(sess.Machine.ID).Set(0)
	sessionsTotal.WithLabelValues(sess.Machine.ID, outcomeAborted).Inc()
	m.logger.SessionStopped(sess.ctx, sess.Machine.ID, sess.Current, cause)
	m.note(Event{Kind: KindError, Machine: sess.Machine.ID, Session: sess.ID, From: sess.Current, Err: cause})
}

// Stop releases every listener, stops the player and discards the session.
// Stopping an idle manager does nothing.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	err := m.stopLocked(ctx, nil)
	m.unlock()

	return err
}

func (m *Manager) stopLocked(ctx context.Context, cause error) error {
	sess := m.session
	if sess == nil {
		return nil
	}

	var errs []error

	if err := sess.releaseListeners(); err != nil {
		errorsTotal.WithLabelValues(sess.Machine.ID, errorKindRelease).Inc()
		errs = append(errs, err)
	}

	if err := m.player.Stop(ctx); err != nil {
		errs = append(errs, err)
	}

	m.session = nil
	m.publish()
	armedListeners.WithLabelValues(sess.Machine.ID).Set(0)

	outcome := outcomeStopped
	if cause != nil {
		outcome = outcomeAborted
	}

	sessionsTotal.WithLabelValues(sess.Machine.ID, outcome).Inc()
	m.logger.SessionStopped(sess.ctx, sess.Machine.ID, sess.Current, cause)
	m.note(Event{Kind: KindStopped, Machine: sess.Machine.ID, Session: sess.ID, From: sess.Current, Err: cause})

	return errors.Join(errs...)
}

// Reload recompiles descriptions, stops the running session and swaps the
// machine set. On a compile error nothing changes.
func (m *Manager) Reload(ctx context.Context, descriptions []Description) error {
	machines, err := Compile(descriptions)
	if err != nil {
		return err
	}

	m.mu.Lock()
	err = m.stopLocked(ctx, nil)
	m.machines = machines
	m.unlock()

	logger.Get(ctx).InfoContext(ctx, "state machines reloaded", "machines", len(machines))

	return err
}

// enter makes state current: runs its entry command, arms its listeners and
// queues an enter transition when one is due. Called with mu held.
func (m *Manager) enter(ctx context.Context, sess *Session, name string) error {
	state := sess.Machine.States[name]

	sess.Current = name
	sess.enteredAt = m.clock.Now()
	sess.entryCounts[name]++
	m.publish()

	entryCtx, span := m.startEntrySpan(ctx, sess, name)

	mode, err := applyEntry(entryCtx, m.player, state.Entry, m.defaults)
	if err != nil {
		errorsTotal.WithLabelValues(sess.Machine.ID, errorKindSettings).Inc()
		endSpan(span, err)

		return err
	}

	stateEntriesTotal.WithLabelValues(sess.Machine.ID, name, mode).Inc()
	m.logger.StateEntered(sess.ctx, sess.Machine.ID, name, mode)

	set, err := m.arm(sess, state)
	if err != nil {
		errorsTotal.WithLabelValues(sess.Machine.ID, errorKindConfig).Inc()
		endSpan(span, err)

		return err
	}

	sess.listeners = set
	armedListeners.WithLabelValues(sess.Machine.ID).Set(float64(set.Len()))
	m.logger.ListenersArmed(sess.ctx, sess.Machine.ID, name, set.Triggers())
	endSpan(span, nil)

	if b, ok := state.Transitions[trigger.Enter]; ok && sess.entryCounts[name] == b.Count {
		m.enqueue(pendingEvent{gen: set.Generation(), binding: b})
	}

	return nil
}

// transition moves sess along b. Called with mu held.
func (m *Manager) transition(sess *Session, b Binding) (err error) {
	from := sess.Current
	started := time.Now()

	ctx, span := m.startTransitionSpan(sess.ctx, sess, from, b.Target, b.Trigger)
	defer func() { endSpan(span, err) }()

	wrap := func(err error) error {
		return &TransitionError{Machine: sess.Machine.ID, From: from, To: b.Target, Trigger: b.Trigger, Err: err}
	}

	if releaseErr := sess.releaseListeners(); releaseErr != nil {
		errorsTotal.WithLabelValues(sess.Machine.ID, errorKindRelease).Inc()
		logger.Get(sess.ctx).WarnContext(ctx, "failed to release listeners", "state", from, "error", releaseErr)
	}
	armedListeners.WithLabelValues(sess.Machine.ID).Set(0)

	exitErr := applyExit(ctx, m.player, sess.state().Exit)
	m.logger.StateExited(sess.ctx, sess.Machine.ID, from, m.clock.Now().Sub(sess.enteredAt), exitErr)

	if exitErr != nil {
		return wrap(exitErr)
	}

	if _, ok := sess.Machine.States[b.Target]; !ok {
		return wrap(configErr(sess.Machine.ID, from, ErrUnknownTargetState))
	}

	if err := m.enter(ctx, sess, b.Target); err != nil {
		return wrap(err)
	}

	transitionsTotal.WithLabelValues(sess.Machine.ID, sanitizeState(from), b.Target, b.Trigger.String()).Inc()
	transitionDuration.WithLabelValues(sess.Machine.ID).Observe(time.Since(started).Seconds())
	m.logger.TransitionExecuted(sess.ctx, sess.Machine.ID, from, b.Target, b.Trigger)
	m.note(Event{
		Kind:    KindTransitioned,
		Machine: sess.Machine.ID,
		Session: sess.ID,
		From:    from,
		To:      b.Target,
		Trigger: b.Trigger,
	})

	return nil
}

// unlock releases the run lock, notifies subscribers and processes whatever
// was posted while the lock was held. Every holder of mu must release it here.
func (m *Manager) unlock() {
	m.mu.Unlock()
	m.flushNotes()
	m.drain()
}

// post queues an event and drains the mailbox if nobody else is.
func (m *Manager) post(ev pendingEvent) {
	m.enqueue(ev)
	m.drain()
}

func (m *Manager) enqueue(ev pendingEvent) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	m.queue = append(m.queue, ev)
}

func (m *Manager) dequeue() (pendingEvent, bool) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if len(m.queue) == 0 {
		return pendingEvent{}, false
	}

	ev := m.queue[0]
	m.queue = m.queue[1:]

	return ev, true
}

func (m *Manager) pending() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	return len(m.queue)
}

// drain processes queued events until the queue is empty. If another
// goroutine holds the run lock it returns at once; that goroutine picks the
// events up when it calls unlock.
func (m *Manager) drain() {
	for {
		if !m.mu.TryLock() {
			return
		}

		for {
			ev, ok := m.dequeue()
			if !ok {
				break
			}

			m.dispatch(ev)
		}

		m.mu.Unlock()
		m.flushNotes()

		if m.pending() == 0 {
			return
		}
	}
}

// dispatch runs one event. Called with mu held.
func (m *Manager) dispatch(ev pendingEvent) {
	sess := m.session
	if sess == nil || sess.listeners == nil || sess.listeners.Generation() != ev.gen {
		staleEventsTotal.WithLabelValues(ev.binding.Trigger.String()).Inc()

		return
	}

	err := m.transition(sess, ev.binding)
	if err == nil {
		return
	}

	errorsTotal.WithLabelValues(sess.Machine.ID, errorKindTransition).Inc()
	logger.Get(sess.ctx).ErrorContext(sess.ctx, "transition failed, stopping session",
		"machine", sess.Machine.ID,
		"trigger", ev.binding.Trigger.String(),
		"error", err,
	)
	m.note(Event{
		Kind:    KindError,
		Machine: sess.Machine.ID,
		Session: sess.ID,
		From:    sess.Current,
		To:      ev.binding.Target,
		Trigger: ev.binding.Trigger,
		Err:     err,
	})

	if stopErr := m.stopLocked(sess.ctx, err); stopErr != nil {
		logger.Get(sess.ctx).WarnContext(sess.ctx, "failed to stop session cleanly", "error", stopErr)
	}
}

// publish refreshes the lock-free snapshot read by Current.
func (m *Manager) publish() {
	sess := m.session
	if sess == nil {
		m.current.Store(&snapshot{})

		return
	}

	m.current.Store(&snapshot{machine: sess.Machine.ID, state: sess.Current, session: sess.ID})
}
