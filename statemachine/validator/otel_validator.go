package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/amp-labs/lottie-interactivity/statemachine"
)

// stateNamingRule checks that state names make usable span names and metric
// labels. Entry spans are named "state.<name>.entry", so dots and whitespace
// make them ambiguous.
type stateNamingRule struct{}

func (r *stateNamingRule) Name() string {
	return "StateNaming"
}

func (r *stateNamingRule) Severity() Severity {
	return SeverityWarning
}

func (r *stateNamingRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	var warnings []ValidationWarning

	for _, name := range stateNames(desc) {
		if name == "" {
			warnings = append(warnings, ValidationWarning{
				Code:    "STATE_NAMING",
				Message: "State with empty name cannot be told apart in spans and metrics",
			})

			continue
		}

		if strings.ContainsFunc(name, func(r rune) bool { return r == '.' || unicode.IsSpace(r) }) {
			warnings = append(warnings, ValidationWarning{
				Code:     "STATE_NAMING",
				Message:  fmt.Sprintf("State '%s' contains dots or whitespace (suggested: '%s')", name, spanSafe(name)),
				Location: Location{State: name},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

func spanSafe(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return '_'
		}

		return r
	}, name)
}
