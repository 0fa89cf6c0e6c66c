package statemachine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/trigger"
)

// ErrDuplicateBinding indicates a trigger bound more than once in one state.
var ErrDuplicateBinding = errors.New("trigger bound more than once")

// Binding is a compiled transition: when Trigger has occurred Count times while
// the state is active, the machine moves to Target.
type Binding struct {
	Trigger trigger.Trigger
	Target  string
	// Delay is set for after bindings only.
	Delay time.Duration
	// Count is the occurrence that fires the binding, at least 1.
	Count int
}

// CompiledState is one state of a compiled machine.
type CompiledState struct {
	Name        string
	Entry       EntryCommand
	Exit        ExitCommand
	Transitions map[trigger.Trigger]Binding
	After       map[time.Duration]Binding
}

// Bindings returns every binding of the state in a stable order: vocabulary
// order first, then after bindings by ascending delay.
func (s *CompiledState) Bindings() []Binding {
	out := make([]Binding, 0, len(s.Transitions)+len(s.After))

	for _, t := range trigger.All() {
		if b, ok := s.Transitions[t]; ok {
			out = append(out, b)
		}
	}

	delays := make([]time.Duration, 0, len(s.After))
	for d := range s.After {
		delays = append(delays, d)
	}

	sort.Slice(delays, func(i, j int) bool { return delays[i] < delays[j] })

	for _, d := range delays {
		out = append(out, s.After[d])
	}

	return out
}

// CompiledMachine is the runnable form of a description.
type CompiledMachine struct {
	ID      string
	Initial string
	States  map[string]*CompiledState
}

// StateNames returns the state names in natural order.
func (m *CompiledMachine) StateNames() []string {
	names := make([]string, 0, len(m.States))
	for name := range m.States {
		names = append(names, name)
	}

	natsort.Sort(names)

	return names
}

// Validate checks what Compile leaves for run time: the initial state must be
// declared and every binding must target a declared state.
func (m *CompiledMachine) Validate() error {
	if m.Initial == "" {
		return configErr(m.ID, "", ErrInitialStateRequired)
	}

	if _, ok := m.States[m.Initial]; !ok {
		return configErr(m.ID, m.Initial, ErrUnknownInitialState)
	}

	for _, name := range m.StateNames() {
		for _, b := range m.States[name].Bindings() {
			if _, ok := m.States[b.Target]; !ok {
				return configErr(m.ID, name,
					fmt.Errorf("%w: %s -> %q", ErrUnknownTargetState, b.Trigger.Key(), b.Target))
			}
		}
	}

	return nil
}

// Compile turns descriptions into runnable machines keyed by id. It is a pure
// structural transform: dangling targets and a missing initial state are left
// for CompiledMachine.Validate.
func Compile(descriptions []Description) (map[string]*CompiledMachine, error) {
	machines := make(map[string]*CompiledMachine, len(descriptions))

	for i, desc := range descriptions {
		id := desc.Descriptor.ID
		if id == "" {
			return nil, configErr(fmt.Sprintf("#%d", i), "", ErrMachineIDRequired)
		}

		if _, dup := machines[id]; dup {
			return nil, configErr(id, "", ErrDuplicateMachine)
		}

		machine, err := compileMachine(desc)
		if err != nil {
			return nil, err
		}

		machines[id] = machine
	}

	return machines, nil
}

func compileMachine(desc Description) (*CompiledMachine, error) {
	machine := &CompiledMachine{
		ID:      desc.Descriptor.ID,
		Initial: desc.Descriptor.Initial,
		States:  make(map[string]*CompiledState, len(desc.States)),
	}

	for name, def := range desc.States {
		state, err := compileState(name, def)
		if err != nil {
			return nil, configErr(machine.ID, name, err)
		}

		machine.States[name] = state
	}

	return machine, nil
}

func compileState(name string, def StateDefinition) (*CompiledState, error) {
	if err := def.Settings.Validate(); err != nil {
		return nil, err
	}

	state := &CompiledState{
		Name:        name,
		Entry:       newEntryCommand(name, def),
		Exit:        newExitCommand(name, def),
		Transitions: make(map[trigger.Trigger]Binding),
		After:       make(map[time.Duration]Binding),
	}

	for key, specs := range def.Transitions {
		trig, err := trigger.ForKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTransitionKey, key)
		}

		if trig != trigger.After && len(specs) > 1 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBinding, key)
		}

		for _, spec := range specs {
			binding, err := compileBinding(trig, spec)
			if err != nil {
				return nil, err
			}

			if trig != trigger.After {
				state.Transitions[trig] = binding

				continue
			}

			if _, dup := state.After[binding.Delay]; dup {
				return nil, fmt.Errorf("%w: onAfter %s", ErrDuplicateBinding, binding.Delay)
			}

			state.After[binding.Delay] = binding
		}
	}

	return state, nil
}

func compileBinding(trig trigger.Trigger, spec TransitionSpec) (Binding, error) {
	if spec.Count < 0 {
		return Binding{}, fmt.Errorf("%w: %s count %d", ErrInvalidCount, trig.Key(), spec.Count)
	}

	binding := Binding{
		Trigger: trig,
		Target:  spec.State,
		Count:   max(spec.Count, 1),
	}

	if trig == trigger.After {
		if spec.Ms <= 0 {
			return Binding{}, fmt.Errorf("%w: got %d", ErrInvalidDelay, spec.Ms)
		}

		binding.Delay = time.Duration(spec.Ms) * time.Millisecond
	}

	return binding, nil
}
