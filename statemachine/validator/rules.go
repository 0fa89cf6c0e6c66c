//nolint:lll // Long validation messages
package validator

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/amp-labs/lottie-interactivity/trigger"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a description for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(desc *statemachine.Description, opts Options) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&initialStateRule{},
		&stateCompileRule{},
		&danglingTargetRule{},
		&containerRule{},
		&unreachableStateRule{},
		&deadEndStateRule{},
		&selfEnterRule{},
		&stateNamingRule{},
	}
}

//nolint:gochecknoglobals
var (
	registryMu sync.RWMutex
	registry   []Rule
)

// RegisterRule adds a custom validation rule run after the configured rules.
func RegisterRule(rule Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry = append(registry, rule)
}

// RegisteredRules returns the custom rules added with RegisterRule.
func RegisteredRules() []Rule {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return slices.Clone(registry)
}

// stateNames returns the declared states in natural order.
func stateNames(desc *statemachine.Description) []string {
	names := make([]string, 0, len(desc.States))
	for name := range desc.States {
		names = append(names, name)
	}

	natsort.Sort(names)

	return names
}

// transitionKeys returns a state's transition keys in natural order.
func transitionKeys(def statemachine.StateDefinition) []string {
	keys := make([]string, 0, len(def.Transitions))
	for key := range def.Transitions {
		keys = append(keys, key)
	}

	natsort.Sort(keys)

	return keys
}

// initialStateRule checks that the descriptor names a declared initial state.
type initialStateRule struct{}

func (r *initialStateRule) Name() string {
	return "InitialState"
}

func (r *initialStateRule) Severity() Severity {
	return SeverityError
}

func (r *initialStateRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	initial := desc.Descriptor.Initial

	var fix *Fix
	if names := stateNames(desc); len(names) > 0 {
		fix = SetInitialState(names[0])
	}

	if initial == "" {
		return RuleResult{Errors: []ValidationError{{
			Code:    "MISSING_INITIAL",
			Message: fmt.Sprintf("Machine '%s' has no initial state", desc.Descriptor.ID),
			Fix:     fix,
		}}}
	}

	if _, ok := desc.States[initial]; !ok {
		return RuleResult{Errors: []ValidationError{{
			Code:     "UNKNOWN_INITIAL",
			Message:  fmt.Sprintf("Initial state '%s' is not declared", initial),
			Location: Location{State: initial},
			Fix:      fix,
		}}}
	}

	return RuleResult{}
}

// stateCompileRule compiles every state on its own so one bad state does not
// hide problems in the others.
type stateCompileRule struct{}

func (r *stateCompileRule) Name() string {
	return "StateCompile"
}

func (r *stateCompileRule) Severity() Severity {
	return SeverityError
}

func (r *stateCompileRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	var errs []ValidationError

	id := desc.Descriptor.ID
	if id == "" {
		id = "lint"
	}

	for _, name := range stateNames(desc) {
		single := statemachine.Description{
			Descriptor: statemachine.Descriptor{ID: id, Initial: name},
			States:     map[string]statemachine.StateDefinition{name: desc.States[name]},
		}

		if _, err := statemachine.Compile([]statemachine.Description{single}); err != nil {
			errs = append(errs, ValidationError{
				Code:     compileErrorCode(err),
				Message:  unwrapConfigError(err).Error(),
				Location: Location{State: name},
			})
		}
	}

	return RuleResult{Errors: errs}
}

func compileErrorCode(err error) string {
	switch {
	case errors.Is(err, statemachine.ErrUnknownTransitionKey):
		return "UNKNOWN_TRANSITION_KEY"
	case errors.Is(err, statemachine.ErrInvalidDelay):
		return "INVALID_DELAY"
	case errors.Is(err, statemachine.ErrInvalidCount):
		return "INVALID_COUNT"
	case errors.Is(err, statemachine.ErrDuplicateBinding):
		return "DUPLICATE_BINDING"
	default:
		return "INVALID_SETTINGS"
	}
}

func unwrapConfigError(err error) error {
	var cfgErr *statemachine.ConfigError
	if errors.As(err, &cfgErr) {
		return cfgErr.Err
	}

	return err
}

// danglingTargetRule checks that every transition targets a declared state.
type danglingTargetRule struct{}

func (r *danglingTargetRule) Name() string {
	return "DanglingTarget"
}

func (r *danglingTargetRule) Severity() Severity {
	return SeverityError
}

func (r *danglingTargetRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	var errs []ValidationError

	for _, name := range stateNames(desc) {
		def := desc.States[name]

		for _, key := range transitionKeys(def) {
			for _, spec := range def.Transitions[key] {
				if _, ok := desc.States[spec.State]; ok {
					continue
				}

				errs = append(errs, ValidationError{
					Code:     "DANGLING_TARGET",
					Message:  fmt.Sprintf("%s in state '%s' targets undeclared state '%s'", key, name, spec.State),
					Location: Location{State: name, Key: key},
					Fix:      AddMissingState(spec.State),
				})
			}
		}
	}

	return RuleResult{Errors: errs}
}

// containerRule rejects DOM triggers when the player has no container element.
type containerRule struct{}

func (r *containerRule) Name() string {
	return "Container"
}

func (r *containerRule) Severity() Severity {
	return SeverityError
}

func (r *containerRule) Check(desc *statemachine.Description, opts Options) RuleResult {
	if !opts.NoContainer {
		return RuleResult{}
	}

	var errs []ValidationError

	for _, name := range stateNames(desc) {
		for _, key := range transitionKeys(desc.States[name]) {
			trig, err := trigger.ForKey(key)
			if err != nil || trig.Source() != trigger.SourceDOM {
				continue
			}

			errs = append(errs, ValidationError{
				Code:     "MISSING_CONTAINER",
				Message:  fmt.Sprintf("%s in state '%s' needs a container element", key, name),
				Location: Location{State: name, Key: key},
			})
		}
	}

	return RuleResult{Errors: errs}
}

// unreachableStateRule finds states no transition path leads to from the initial state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableStateRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	initial := desc.Descriptor.Initial
	if _, ok := desc.States[initial]; !ok {
		return RuleResult{}
	}

	reachable := map[string]bool{initial: true}

	queue := []string{initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, specs := range desc.States[current].Transitions {
			for _, spec := range specs {
				if _, declared := desc.States[spec.State]; declared && !reachable[spec.State] {
					reachable[spec.State] = true
					queue = append(queue, spec.State)
				}
			}
		}
	}

	var warnings []ValidationWarning

	for _, name := range stateNames(desc) {
		if reachable[name] {
			continue
		}

		warnings = append(warnings, ValidationWarning{
			Code:     "UNREACHABLE_STATE",
			Message:  fmt.Sprintf("State '%s' cannot be reached from initial state '%s'", name, initial),
			Location: Location{State: name},
			Fix:      RemoveState(name),
		})
	}

	return RuleResult{Warnings: warnings}
}

// deadEndStateRule flags states with no way out.
type deadEndStateRule struct{}

func (r *deadEndStateRule) Name() string {
	return "DeadEndState"
}

func (r *deadEndStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *deadEndStateRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	if len(desc.States) < 2 { //nolint:mnd
		return RuleResult{}
	}

	var warnings []ValidationWarning

	for _, name := range stateNames(desc) {
		if len(desc.States[name].Transitions) > 0 {
			continue
		}

		warnings = append(warnings, ValidationWarning{
			Code:     "DEAD_END_STATE",
			Message:  fmt.Sprintf("State '%s' has no transitions; the machine stays there until stopped", name),
			Location: Location{State: name},
		})
	}

	return RuleResult{Warnings: warnings}
}

// selfEnterRule flags onEnter transitions that point back at their own state.
type selfEnterRule struct{}

func (r *selfEnterRule) Name() string {
	return "SelfEnter"
}

func (r *selfEnterRule) Severity() Severity {
	return SeverityWarning
}

func (r *selfEnterRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	var warnings []ValidationWarning

	key := trigger.KeyFor(trigger.Enter)

	for _, name := range stateNames(desc) {
		for _, spec := range desc.States[name].Transitions[key] {
			if spec.State != name {
				continue
			}

			warnings = append(warnings, ValidationWarning{
				Code:     "SELF_ENTER",
				Message:  fmt.Sprintf("State '%s' re-enters itself on entry, which only reapplies its settings", name),
				Location: Location{State: name, Key: key},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}
