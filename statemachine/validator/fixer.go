package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/lottie-interactivity/statemachine"
)

var (
	// ErrStateNotFound is returned when a fix refers to a state that doesn't exist.
	ErrStateNotFound = errors.New("state not found")
	// ErrStateAlreadyExists is returned when a fix would declare a state twice.
	ErrStateAlreadyExists = errors.New("state already exists")
)

// Fix represents an automatic fix for a validation issue. Apply edits the
// description in place.
type Fix struct {
	Description string
	Apply       func(desc *statemachine.Description) error
}

// AddMissingState creates a fix that declares an empty state.
func AddMissingState(name string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Declare state '%s'", name),
		Apply: func(desc *statemachine.Description) error {
			if _, ok := desc.States[name]; ok {
				return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, name)
			}

			if desc.States == nil {
				desc.States = make(map[string]statemachine.StateDefinition)
			}

			desc.States[name] = statemachine.StateDefinition{}

			return nil
		},
	}
}

// RemoveState creates a fix that deletes a state and every transition into it.
func RemoveState(name string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove state '%s'", name),
		Apply: func(desc *statemachine.Description) error {
			if _, ok := desc.States[name]; !ok {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, name)
			}

			delete(desc.States, name)

			for _, def := range desc.States {
				for key, specs := range def.Transitions {
					kept := slices.DeleteFunc(slices.Clone(specs), func(s statemachine.TransitionSpec) bool {
						return s.State == name
					})

					if len(kept) == 0 {
						delete(def.Transitions, key)
					} else {
						def.Transitions[key] = kept
					}
				}
			}

			return nil
		},
	}
}

// SetInitialState creates a fix that points the descriptor at a declared state.
func SetInitialState(name string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Use '%s' as the initial state", name),
		Apply: func(desc *statemachine.Description) error {
			if _, ok := desc.States[name]; !ok {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, name)
			}

			desc.Descriptor.Initial = name

			return nil
		},
	}
}

// RenameState creates a fix that renames a state and every reference to it.
func RenameState(oldName, newName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Rename state from '%s' to '%s'", oldName, newName),
		Apply: func(desc *statemachine.Description) error {
			if _, ok := desc.States[newName]; ok {
				return fmt.Errorf("%w: '%s'", ErrStateAlreadyExists, newName)
			}

			def, ok := desc.States[oldName]
			if !ok {
				return fmt.Errorf("%w: '%s'", ErrStateNotFound, oldName)
			}

			delete(desc.States, oldName)
			desc.States[newName] = def

			if desc.Descriptor.Initial == oldName {
				desc.Descriptor.Initial = newName
			}

			for _, d := range desc.States {
				for _, specs := range d.Transitions {
					for i := range specs {
						if specs[i].State == oldName {
							specs[i].State = newName
						}
					}
				}
			}

			return nil
		},
	}
}

// Fixes collects the fixes attached to a result's errors and warnings.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

// ApplyFixes applies a list of fixes to a description.
func ApplyFixes(desc *statemachine.Description, fixes []*Fix) error {
	for _, fix := range fixes {
		if fix != nil && fix.Apply != nil {
			err := fix.Apply(desc)
			if err != nil {
				return fmt.Errorf("failed to apply fix '%s': %w", fix.Description, err)
			}
		}
	}

	return nil
}
