// Package simulator runs interactivity state machines against a recording
// player so descriptions can be exercised without a renderer.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amp-labs/lottie-interactivity/clock"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/player/playertest"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/amp-labs/lottie-interactivity/trigger"
)

var (
	ErrUnknownStep = errors.New("unknown step")
	ErrInvalidStep = errors.New("invalid step")
	ErrNotRunning  = errors.New("no machine is running")
)

// Step is one simulated user or player action.
type Step struct {
	Trigger trigger.Trigger
	// Wait is how far the clock advances for an after step.
	Wait time.Duration
	// Visibility is the percentage reported for a show step.
	Visibility float64
}

func (s Step) String() string {
	switch s.Trigger { //nolint:exhaustive
	case trigger.After:
		return "wait:" + s.Wait.String()
	case trigger.Show:
		return "show:" + strconv.FormatFloat(s.Visibility, 'f', -1, 64)
	default:
		return string(s.Trigger)
	}
}

// ParseStep reads one step: click, mouseenter, mouseleave, complete,
// show[:visibility] or wait:duration.
func ParseStep(text string) (Step, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(text), ":")

	switch name {
	case "wait":
		d, err := time.ParseDuration(arg)
		if err != nil || d <= 0 {
			return Step{}, fmt.Errorf("%w: %q needs a positive duration", ErrInvalidStep, text)
		}

		return Step{Trigger: trigger.After, Wait: d}, nil
	case "show":
		visibility := 100.0

		if hasArg {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil || v < 0 || v > 100 {
				return Step{}, fmt.Errorf("%w: %q needs a visibility between 0 and 100", ErrInvalidStep, text)
			}

			visibility = v
		}

		return Step{Trigger: trigger.Show, Visibility: visibility}, nil
	}

	t, err := trigger.Parse(name)
	if err != nil || hasArg || t == trigger.After || t == trigger.Enter {
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownStep, text)
	}

	return Step{Trigger: t}, nil
}

// ParseScript reads a comma separated list of steps.
func ParseScript(script string) ([]Step, error) {
	var steps []Step

	for part := range strings.SplitSeq(script, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		step, err := ParseStep(part)
		if err != nil {
			return nil, err
		}

		steps = append(steps, step)
	}

	return steps, nil
}

// Simulator owns a manager wired to a fake player, container and clock.
type Simulator struct {
	Player  *playertest.Player
	Element *playertest.Element
	Clock   *clock.Manual

	manager     *statemachine.Manager
	out         io.Writer
	unsubscribe func()
}

type options struct {
	out         io.Writer
	noElement   bool
	playerOpts  []playertest.Option
	managerOpts []statemachine.Option
}

// Option configures a Simulator.
type Option func(*options)

// WithOutput receives one line per manager notification.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithoutElement runs with no container element, as a player mounted without
// one would.
func WithoutElement() Option {
	return func(o *options) {
		o.noElement = true
	}
}

// WithManifest gives an animation manifest playback defaults.
func WithManifest(animationID string, settings player.Settings) Option {
	return func(o *options) {
		o.playerOpts = append(o.playerOpts, playertest.WithManifest(animationID, settings))
	}
}

// WithManagerOptions passes options through to the manager.
func WithManagerOptions(opts ...statemachine.Option) Option {
	return func(o *options) {
		o.managerOpts = append(o.managerOpts, opts...)
	}
}

// New compiles descriptions into a manager driving fakes.
func New(descriptions []statemachine.Description, opts ...Option) (*Simulator, error) {
	o := options{out: io.Discard}
	for _, opt := range opts {
		opt(&o)
	}

	sim := &Simulator{
		Player: playertest.NewPlayer(o.playerOpts...),
		Clock:  clock.NewManual(time.Unix(0, 0).UTC()),
		out:    o.out,
	}

	managerOpts := []statemachine.Option{statemachine.WithClock(sim.Clock)}

	if !o.noElement {
		sim.Element = playertest.NewElement()
		managerOpts = append(managerOpts, statemachine.WithElement(sim.Element))
	}

	m, err := statemachine.NewManager(sim.Player, descriptions, append(managerOpts, o.managerOpts...)...)
	if err != nil {
		return nil, err
	}

	sim.manager = m
	sim.unsubscribe = m.Subscribe(sim.report)

	return sim, nil
}

// Manager returns the manager under simulation.
func (s *Simulator) Manager() *statemachine.Manager {
	return s.manager
}

// Start starts machine id.
func (s *Simulator) Start(ctx context.Context, id string) error {
	return s.manager.Start(ctx, id)
}

// Current returns the running machine and state.
func (s *Simulator) Current() (machine, state string, ok bool) {
	return s.manager.Current()
}

// Apply performs one step. Every transition it causes has completed when
// Apply returns.
func (s *Simulator) Apply(ctx context.Context, step Step) error {
	if _, _, ok := s.manager.Current(); !ok {
		return ErrNotRunning
	}

	switch step.Trigger { //nolint:exhaustive
	case trigger.Click, trigger.MouseEnter, trigger.MouseLeave:
		if s.Element == nil {
			return fmt.Errorf("%w: %s without a container", ErrInvalidStep, step.Trigger)
		}

		s.Element.Dispatch(string(step.Trigger))
	case trigger.Complete:
		s.Player.Emit(player.EventComplete)
	case trigger.Show:
		s.Player.Intersect(step.Visibility)
	case trigger.After:
		s.Clock.Advance(step.Wait)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStep, step.Trigger)
	}

	return ctx.Err()
}

// Run starts machine id and applies steps in order, stopping at the first
// failure or when the machine stops.
func (s *Simulator) Run(ctx context.Context, id string, steps []Step) error {
	if err := s.Start(ctx, id); err != nil {
		return err
	}

	for _, step := range steps {
		if err := s.Apply(ctx, step); err != nil {
			return fmt.Errorf("%s: %w", step, err)
		}
	}

	return nil
}

// Steps lists the steps that can fire a transition from the current state,
// in binding order.
func (s *Simulator) Steps() []Step {
	id, state, ok := s.manager.Current()
	if !ok {
		return nil
	}

	machine, ok := s.manager.Machine(id)
	if !ok {
		return nil
	}

	current, ok := machine.States[state]
	if !ok {
		return nil
	}

	var steps []Step

	seen := make(map[Step]bool)

	for _, b := range current.Bindings() {
		var step Step

		switch b.Trigger { //nolint:exhaustive
		case trigger.Enter:
			continue
		case trigger.After:
			step = Step{Trigger: trigger.After, Wait: b.Delay}
		case trigger.Show:
			step = Step{Trigger: trigger.Show, Visibility: 100}
		default:
			step = Step{Trigger: b.Trigger}
		}

		if !seen[step] {
			seen[step] = true
			steps = append(steps, step)
		}
	}

	return steps
}

// Close stops the session and detaches the output.
func (s *Simulator) Close() error {
	err := s.manager.Stop(context.Background())
	s.unsubscribe()

	return err
}

func (s *Simulator) report(ev statemachine.Event) {
	var line string

	switch ev.Kind {
	case statemachine.KindStarted:
		line = fmt.Sprintf("started %s at %s", ev.Machine, ev.To)
	case statemachine.KindTransitioned:
		line = fmt.Sprintf("%s: %s -> %s", ev.Trigger, ev.From, ev.To)
	case statemachine.KindStopped:
		line = fmt.Sprintf("stopped %s in %s", ev.Machine, ev.From)
	case statemachine.KindError:
		line = fmt.Sprintf("error in %s: %v", ev.Machine, ev.Err)
	}

	if ev.Kind == statemachine.KindStopped && ev.Err != nil {
		line += fmt.Sprintf(" (%v)", ev.Err)
	}

	_, _ = fmt.Fprintln(s.out, line)
}
