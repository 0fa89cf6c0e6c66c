// Package validator lints interactivity state machine descriptions and offers
// fixes for the problems it finds.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/amp-labs/lottie-interactivity/statemachine"
)

// ValidationResult contains the results of validating one machine description.
type ValidationResult struct {
	Machine     string
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with an optional fix.
type ValidationError struct {
	Code     string   // Error code like "DANGLING_TARGET", "UNKNOWN_INITIAL"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string
	Message  string
	Location Location
	Fix      *Fix
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // Description snippet showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File  string // Description file path
	State string // State name if applicable
	Key   string // Transition or setting key if applicable
}

// Options tunes validation.
type Options struct {
	// Strict reports warnings as errors.
	Strict bool
	// NoContainer lints for a player mounted without a container element, so DOM
	// triggers cannot be observed.
	NoContainer bool
	// Rules replaces DefaultRules when set.
	Rules []Rule
}

// Validate lints one description with the default rules.
func Validate(desc statemachine.Description) ValidationResult {
	return ValidateWithOptions(desc, Options{})
}

// ValidateWithOptions lints one description.
func ValidateWithOptions(desc statemachine.Description, opts Options) ValidationResult {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	rules = slices.Concat(rules, RegisteredRules())

	result := ValidationResult{Machine: desc.Descriptor.ID, Valid: true}

	for _, rule := range rules {
		ruleResult := rule.Check(&desc, opts)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	result.Suggestions = generateSuggestions(&desc)

	if opts.Strict {
		for _, warning := range result.Warnings {
			result.Errors = append(result.Errors, ValidationError(warning))
		}

		result.Warnings = nil
	}

	result.Valid = len(result.Errors) == 0

	return result
}

// ValidateAll lints every description and the set as a whole: ids must be
// present and unique. Results are ordered by machine id.
func ValidateAll(descs []statemachine.Description, opts Options) []ValidationResult {
	results := make([]ValidationResult, 0, len(descs))
	seen := make(map[string]int, len(descs))

	for i, desc := range descs {
		result := ValidateWithOptions(desc, opts)

		id := desc.Descriptor.ID
		if id == "" {
			result.Machine = fmt.Sprintf("#%d", i)
			result.Errors = append(result.Errors, ValidationError{
				Code:    "MISSING_ID",
				Message: fmt.Sprintf("Description #%d has no descriptor id", i),
			})
		}

		if prev, dup := seen[id]; dup && id != "" {
			result.Errors = append(result.Errors, ValidationError{
				Code:    "DUPLICATE_MACHINE",
				Message: fmt.Sprintf("Machine id '%s' is also used by description #%d", id, prev),
			})
		}

		seen[id] = i
		result.Valid = len(result.Errors) == 0
		results = append(results, result)
	}

	ids := make([]string, 0, len(results))
	byID := make(map[string][]ValidationResult, len(results))

	for _, r := range results {
		if _, ok := byID[r.Machine]; !ok {
			ids = append(ids, r.Machine)
		}

		byID[r.Machine] = append(byID[r.Machine], r)
	}

	natsort.Sort(ids)

	ordered := make([]ValidationResult, 0, len(results))
	for _, id := range ids {
		ordered = append(ordered, byID[id]...)
	}

	return ordered
}

// ValidateFile loads descriptions from a file and lints them.
func ValidateFile(path string, opts Options) ([]ValidationResult, error) {
	descs, err := statemachine.LoadDescriptions(path)
	if err != nil {
		return []ValidationResult{{
			Machine: path,
			Valid:   false,
			Errors: []ValidationError{{
				Code:     "LOAD_FAILED",
				Message:  fmt.Sprintf("Failed to load descriptions: %v", err),
				Location: Location{File: path},
			}},
		}}, err
	}

	results := ValidateAll(descs, opts)

	for i := range results {
		for j := range results[i].Errors {
			if results[i].Errors[j].Location.File == "" {
				results[i].Errors[j].Location.File = path
			}
		}

		for j := range results[i].Warnings {
			if results[i].Warnings[j].Location.File == "" {
				results[i].Warnings[j].Location.File = path
			}
		}
	}

	return results, nil
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(desc *statemachine.Description) []Suggestion {
	var suggestions []Suggestion

	if initial, ok := desc.States[desc.Descriptor.Initial]; ok && initial.AnimationID == "" {
		suggestions = append(suggestions, Suggestion{
			Message: "Declare animationId on the initial state so the machine can start on an empty player",
			Example: `states:
  idle:
    animationId: wave   # loaded on start`,
		})
	}

	hasShow := false

	for _, def := range desc.States {
		if _, ok := def.Transitions["onShow"]; ok {
			hasShow = true

			break
		}
	}

	if hasShow {
		suggestions = append(suggestions, Suggestion{
			Message: "onShow fires on every new visibility report; use count to wait for repeated views",
			Example: `onShow:
  state: revealed
  count: 2`,
		})
	}

	return suggestions
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		fmt.Fprintf(&sb, "✓ %s is valid\n", r.Machine)
	} else {
		fmt.Fprintf(&sb, "✗ %s has %d error(s)\n", r.Machine, len(r.Errors))
	}

	for _, err := range r.Errors {
		fmt.Fprintf(&sb, "  [%s] %s", err.Code, err.Message)

		if err.Location.State != "" {
			fmt.Fprintf(&sb, " (state: %s)", err.Location.State)
		}

		sb.WriteString("\n")

		if err.Fix != nil {
			fmt.Fprintf(&sb, "    Fix: %s\n", err.Fix.Description)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "  %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&sb, "  [%s] %s\n", warn.Code, warn.Message)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&sb, "  %d suggestion(s) for improvement\n", len(r.Suggestions))
	}

	return sb.String()
}
