package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/lottie-interactivity/trigger"
)

// ErrConfiguration is the parent of every error caused by a bad state machine
// description or by starting a machine that cannot run.
var ErrConfiguration = errors.New("state machine configuration error")

// Predefined error types.
var (
	// ErrUnknownMachine indicates that no compiled machine has the requested id.
	ErrUnknownMachine = errors.New("unknown state machine")
	// ErrDuplicateMachine indicates that two descriptions share one id.
	ErrDuplicateMachine = errors.New("duplicate state machine id")
	// ErrMachineIDRequired indicates that a description has no descriptor id.
	ErrMachineIDRequired = errors.New("state machine id is required")
	// ErrInitialStateRequired indicates that a machine has no initial state.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrUnknownInitialState indicates that the initial state is not declared.
	ErrUnknownInitialState = errors.New("initial state does not exist")
	// ErrUnknownTargetState indicates that a transition points at an undeclared state.
	ErrUnknownTargetState = errors.New("transition target state does not exist")
	// ErrUnknownTransitionKey indicates an on* key outside the event vocabulary.
	ErrUnknownTransitionKey = errors.New("unknown transition key")
	// ErrInvalidDelay indicates an onAfter transition without a positive delay.
	ErrInvalidDelay = errors.New("onAfter requires a positive ms delay")
	// ErrInvalidCount indicates a negative occurrence count.
	ErrInvalidCount = errors.New("count must not be negative")
	// ErrUnknownStateField indicates a state key that is neither a setting nor a transition.
	ErrUnknownStateField = errors.New("unknown state field")
	// ErrMissingDomElement indicates a DOM trigger was declared but the player has no container.
	ErrMissingDomElement = errors.New("trigger requires a container element")
	// ErrApplySettings indicates that playback settings could not be applied.
	ErrApplySettings = errors.New("cannot apply playback settings")
)

// ConfigError wraps an error with the machine and state it was found in.
// It matches both ErrConfiguration and the wrapped error under errors.Is.
type ConfigError struct {
	Machine string
	State   string
	Err     error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder

	sb.WriteString("machine ")
	sb.WriteString(quoteOrDash(e.Machine))

	if e.State != "" {
		sb.WriteString(" state ")
		sb.WriteString(e.State)
	}

	sb.WriteString(": ")
	sb.WriteString(fmt.Sprint(e.Err))

	return sb.String()
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

func configErr(machine, state string, err error) error {
	return &ConfigError{Machine: machine, State: state, Err: err}
}

// TransitionError wraps an error with transition context.
type TransitionError struct {
	Machine string
	From    string
	To      string
	Trigger trigger.Trigger
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("machine %s: transition %s -> %s on %s: %v",
		quoteOrDash(e.Machine), e.From, e.To, e.Trigger, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

func quoteOrDash(s string) string {
	if s == "" {
		return "-"
	}

	return fmt.Sprintf("%q", s)
}
