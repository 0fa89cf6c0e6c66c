package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session outcomes.
const (
	outcomeStarted = "started"
	outcomeFailed  = "failed"
	outcomeStopped = "stopped"
	outcomeAborted = "aborted"
)

// Error kinds, used as a metric label.
const (
	errorKindConfig     = "configuration"
	errorKindSettings   = "settings"
	errorKindTransition = "transition"
	errorKindRelease    = "release"
)

// Metric definitions with appropriate labels.
var (
	// sessionsTotal tracks session lifecycle events by machine and outcome.
	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lottie_statemachine_sessions_total",
		Help: "Total number of interactivity sessions by machine and outcome",
	}, []string{"machine", "outcome"})

	// transitionsTotal tracks state transitions.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lottie_statemachine_transitions_total",
		Help: "Total number of state transitions by machine, from_state, to_state and trigger",
	}, []string{"machine", "from_state", "to_state", "trigger"})

	// stateEntriesTotal separates entries that loaded an animation from settings-only entries.
	stateEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lottie_statemachine_state_entries_total",
		Help: "Total number of state entries by machine, state and mode (load or settings)",
	}, []string{"machine", "state", "mode"})

	// armedListeners is the size of the live listener set.
	armedListeners = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lottie_statemachine_armed_listeners",
		Help: "Number of listeners, observers and timers armed for the current state",
	}, []string{"machine"})

	// staleEventsTotal counts events dropped because their state had already been left.
	staleEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lottie_statemachine_stale_events_total",
		Help: "Total number of events dropped because they belonged to a released listener set",
	}, []string{"trigger"})

	// errorsTotal tracks errors by machine and kind.
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lottie_statemachine_errors_total",
		Help: "Total number of state machine errors by machine and kind",
	}, []string{"machine", "kind"})

	// transitionDuration tracks how long a transition takes end to end.
	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lottie_statemachine_transition_duration_seconds",
		Help:    "Duration of state transitions, exit through re-arming",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"machine"})
)

func sanitizeMachine(machine string) string {
	if machine == "" {
		return "unknown"
	}

	return machine
}

func sanitizeState(state string) string {
	if state == "" {
		return "none"
	}

	return state
}
