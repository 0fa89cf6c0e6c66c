// Package trigger is the event vocabulary shared by the interactivity state machines.
// It maps the external event names that can fire a transition onto the transition keys
// used in state definitions, and records where each event comes from.
package trigger

import (
	"errors"
	"fmt"
	"strings"
)

// KeyPrefix is the prefix every transition key in a state definition starts with.
const KeyPrefix = "on"

// ErrUnknownKey is returned when a transition key has no matching trigger.
var (
	ErrUnknownKey     = errors.New("unknown transition key")
	ErrUnknownTrigger = errors.New("unknown trigger")
)

// Trigger is an external event name that can fire a transition.
type Trigger string

const (
	Click      Trigger = "click"
	MouseEnter Trigger = "mouseenter"
	MouseLeave Trigger = "mouseleave"
	Complete   Trigger = "complete"
	After      Trigger = "after"
	Enter      Trigger = "enter"
	Show       Trigger = "show"
)

// Source says which component produces a trigger.
type Source int

const (
	// SourceDOM triggers come from the container element (or its visibility observer).
	SourceDOM Source = iota
	// SourcePlayer triggers come from the player's own event stream.
	SourcePlayer
	// SourceInternal triggers are synthesized by the manager itself.
	SourceInternal
)

func (s Source) String() string {
	switch s {
	case SourceDOM:
		return "dom"
	case SourcePlayer:
		return "player"
	case SourceInternal:
		return "internal"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

type entry struct {
	trigger Trigger
	key     string
	source  Source
}

// vocabulary is the single source of truth for recognised triggers.
// Order is stable and used for deterministic iteration.
var vocabulary = []entry{ //nolint:gochecknoglobals
	{Click, "onClick", SourceDOM},
	{MouseEnter, "onMouseEnter", SourceDOM},
	{MouseLeave, "onMouseLeave", SourceDOM},
	{Complete, "onComplete", SourcePlayer},
	{After, "onAfter", SourceInternal},
	{Enter, "onEnter", SourceInternal},
	{Show, "onShow", SourceDOM},
}

// All returns every trigger in vocabulary order.
func All() []Trigger {
	out := make([]Trigger, len(vocabulary))
	for i, e := range vocabulary {
		out[i] = e.trigger
	}

	return out
}

// IsTransitionKey reports whether a state-definition key should be read as a transition.
func IsTransitionKey(key string) bool {
	return len(key) > len(KeyPrefix) && strings.HasPrefix(key, KeyPrefix)
}

// ForKey resolves a transition key (e.g. "onClick") to its trigger.
func ForKey(key string) (Trigger, error) {
	for _, e := range vocabulary {
		if e.key == key {
			return e.trigger, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// KeyFor returns the transition key for a trigger, or an empty string if unknown.
func KeyFor(t Trigger) string {
	for _, e := range vocabulary {
		if e.trigger == t {
			return e.key
		}
	}

	return ""
}

// Parse resolves a trigger name (e.g. "click").
func Parse(name string) (Trigger, error) {
	t := Trigger(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrigger, name)
	}

	return t, nil
}

// Valid reports whether the trigger is part of the vocabulary.
func (t Trigger) Valid() bool {
	return KeyFor(t) != ""
}

// Source reports where the trigger originates. Unknown triggers report SourceInternal.
func (t Trigger) Source() Source {
	for _, e := range vocabulary {
		if e.trigger == t {
			return e.source
		}
	}

	return SourceInternal
}

// Key is shorthand for KeyFor(t).
func (t Trigger) Key() string {
	return KeyFor(t)
}

func (t Trigger) String() string {
	return string(t)
}
