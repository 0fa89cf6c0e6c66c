//nolint:varnamelen // Test file
package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toggle = `
- descriptor: {id: toggle, initial: idle}
  states:
    idle: {animationId: wave, onClick: {state: playing}}
    playing: {animationId: wave, autoplay: true, onClick: {state: idle}}
`

func parseOne(t *testing.T, doc string) statemachine.Description {
	t.Helper()

	descs, err := statemachine.ParseDescriptions([]byte(doc))
	require.NoError(t, err)
	require.Len(t, descs, 1)

	return descs[0]
}

func codes(result ValidationResult) (errs, warns []string) {
	for _, e := range result.Errors {
		errs = append(errs, e.Code)
	}

	for _, w := range result.Warnings {
		warns = append(warns, w.Code)
	}

	return errs, warns
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		doc       string
		opts      Options
		wantValid bool
		wantErrs  []string
		wantWarns []string
	}{
		{
			name:      "valid toggle",
			doc:       toggle,
			wantValid: true,
		},
		{
			name: "dangling target",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: missing}}
`,
			wantErrs: []string{"DANGLING_TARGET"},
		},
		{
			name: "unknown initial",
			doc: `
- descriptor: {id: m, initial: x}
  states:
    a: {animationId: wave, onClick: {state: a}}
`,
			wantErrs: []string{"UNKNOWN_INITIAL"},
		},
		{
			name: "missing initial",
			doc: `
- descriptor: {id: m}
  states:
    a: {animationId: wave, onClick: {state: a}}
`,
			wantErrs: []string{"MISSING_INITIAL"},
		},
		{
			name: "unreachable and dead end",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: b}}
    b: {animationId: wave}
    c: {animationId: wave, onClick: {state: a}}
`,
			wantValid: true,
			wantWarns: []string{"UNREACHABLE_STATE", "DEAD_END_STATE"},
		},
		{
			name: "strict turns warnings into errors",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: b}}
    b: {animationId: wave}
`,
			opts:     Options{Strict: true},
			wantErrs: []string{"DEAD_END_STATE"},
		},
		{
			name: "compile problems per state",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onHover: {state: b}, onClick: {state: b}}
    b: {animationId: wave, speed: 0, onClick: {state: a}}
`,
			wantErrs: []string{"UNKNOWN_TRANSITION_KEY", "INVALID_SETTINGS"},
		},
		{
			name: "bad delay and count",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onAfter: {state: b}}
    b: {animationId: wave, onClick: {state: a, count: -2}}
`,
			wantErrs: []string{"INVALID_DELAY", "INVALID_COUNT"},
		},
		{
			name: "duplicate after delay",
			doc: `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onAfter: [{state: a, ms: 10}, {state: a, ms: 10}]}
`,
			wantErrs: []string{"DUPLICATE_BINDING"},
		},
		{
			name:     "dom triggers without container",
			doc:      toggle,
			opts:     Options{NoContainer: true},
			wantErrs: []string{"MISSING_CONTAINER", "MISSING_CONTAINER"},
		},
		{
			name: "self enter and naming",
			doc: `
- descriptor: {id: m, initial: intro.start}
  states:
    intro.start: {animationId: wave, onEnter: {state: intro.start}, onComplete: {state: intro.start}}
`,
			wantValid: true,
			wantWarns: []string{"SELF_ENTER", "STATE_NAMING"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := ValidateWithOptions(parseOne(t, tt.doc), tt.opts)

			errs, warns := codes(result)
			assert.Equal(t, tt.wantValid, result.Valid, result.String())
			assert.ElementsMatch(t, tt.wantErrs, errs)

			for _, w := range tt.wantWarns {
				assert.Contains(t, warns, w)
			}

			if tt.wantWarns == nil && !tt.opts.Strict {
				assert.Empty(t, warns)
			}
		})
	}
}

func TestDanglingTargetFix(t *testing.T) {
	t.Parallel()

	desc := parseOne(t, `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: b}}
`)

	result := Validate(desc)
	require.False(t, result.Valid)
	require.Len(t, result.Fixes(), 1)

	require.NoError(t, ApplyFixes(&desc, result.Fixes()))
	assert.Contains(t, desc.States, "b")

	result = Validate(desc)
	assert.True(t, result.Valid)

	_, warns := codes(result)
	assert.Equal(t, []string{"DEAD_END_STATE"}, warns)

	err := ApplyFixes(&desc, []*Fix{AddMissingState("b")})
	require.ErrorIs(t, err, ErrStateAlreadyExists)
}

func TestRemoveStateFix(t *testing.T) {
	t.Parallel()

	desc := parseOne(t, `
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: b}, onComplete: {state: a}}
    b: {animationId: wave, onClick: {state: a}}
`)

	require.NoError(t, RemoveState("b").Apply(&desc))
	assert.NotContains(t, desc.States, "b")
	assert.NotContains(t, desc.States["a"].Transitions, "onClick")
	assert.Contains(t, desc.States["a"].Transitions, "onComplete")

	require.ErrorIs(t, RemoveState("b").Apply(&desc), ErrStateNotFound)
}

func TestRenameAndInitialFixes(t *testing.T) {
	t.Parallel()

	desc := parseOne(t, toggle)

	require.NoError(t, RenameState("idle", "rest").Apply(&desc))
	assert.Equal(t, "rest", desc.Descriptor.Initial)
	assert.Equal(t, "rest", desc.States["playing"].Transitions["onClick"][0].State)
	assert.True(t, Validate(desc).Valid)

	require.ErrorIs(t, RenameState("rest", "playing").Apply(&desc), ErrStateAlreadyExists)
	require.ErrorIs(t, RenameState("gone", "x").Apply(&desc), ErrStateNotFound)

	require.NoError(t, SetInitialState("playing").Apply(&desc))
	assert.Equal(t, "playing", desc.Descriptor.Initial)
	require.ErrorIs(t, SetInitialState("gone").Apply(&desc), ErrStateNotFound)
}

func TestValidateAll(t *testing.T) {
	t.Parallel()

	descs, err := statemachine.ParseDescriptions([]byte(`
- descriptor: {id: m10, initial: a}
  states: {a: {animationId: wave, onClick: {state: a}}}
- descriptor: {id: m2, initial: a}
  states: {a: {animationId: wave, onClick: {state: a}}}
- descriptor: {id: m2, initial: a}
  states: {a: {animationId: wave, onClick: {state: a}}}
- descriptor: {initial: a}
  states: {a: {animationId: wave, onClick: {state: a}}}
`))
	require.NoError(t, err)

	results := ValidateAll(descs, Options{})
	require.Len(t, results, 4)

	machines := make([]string, len(results))
	for i, r := range results {
		machines[i] = r.Machine
	}

	assert.Equal(t, []string{"#3", "m2", "m2", "m10"}, machines)
	assert.False(t, results[0].Valid)
	assert.True(t, results[1].Valid)
	assert.False(t, results[2].Valid)
	assert.Equal(t, "DUPLICATE_MACHINE", results[2].Errors[0].Code)
	assert.True(t, results[3].Valid)
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "machines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- descriptor: {id: m, initial: a}
  states:
    a: {animationId: wave, onClick: {state: nowhere}}
`), 0o600))

	results, err := ValidateFile(path, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Errors, 1)
	assert.Equal(t, path, results[0].Errors[0].Location.File)
	assert.Equal(t, "a", results[0].Errors[0].Location.State)
	assert.Equal(t, "onClick", results[0].Errors[0].Location.Key)

	results, err = ValidateFile(filepath.Join(dir, "missing.yaml"), Options{})
	require.Error(t, err)
	assert.Equal(t, "LOAD_FAILED", results[0].Errors[0].Code)
}

type idRule struct{}

func (idRule) Name() string { return "ID" }

func (idRule) Severity() Severity { return SeverityInfo }

func (idRule) Check(desc *statemachine.Description, _ Options) RuleResult {
	if desc.Descriptor.ID != "registered-rule" {
		return RuleResult{}
	}

	return RuleResult{Warnings: []ValidationWarning{{Code: "CUSTOM", Message: "custom rule ran"}}}
}

//nolint:paralleltest // registers a global rule
func TestRegisterRule(t *testing.T) {
	RegisterRule(idRule{})

	desc := parseOne(t, `
- descriptor: {id: registered-rule, initial: a}
  states: {a: {animationId: wave, onClick: {state: a}}}
`)

	_, warns := codes(Validate(desc))
	assert.Contains(t, warns, "CUSTOM")
	assert.NotEmpty(t, RegisteredRules())
}

func TestCustomRulesReplaceDefaults(t *testing.T) {
	t.Parallel()

	desc := parseOne(t, `
- descriptor: {id: m, initial: a}
  states: {a: {onClick: {state: gone}}}
`)

	result := ValidateWithOptions(desc, Options{Rules: []Rule{&initialStateRule{}}})
	assert.True(t, result.Valid)
}

func TestSuggestionsAndString(t *testing.T) {
	t.Parallel()

	desc := parseOne(t, `
- descriptor: {id: m, initial: a}
  states:
    a: {onShow: {state: b}}
    b: {animationId: wave, onClick: {state: gone}}
`)

	result := Validate(desc)
	assert.Len(t, result.Suggestions, 2)
	assert.True(t, result.HasErrors())

	out := result.String()
	assert.Contains(t, out, "✗ m has 1 error(s)")
	assert.Contains(t, out, "[DANGLING_TARGET]")
	assert.Contains(t, out, "Fix: Declare state 'gone'")
	assert.Contains(t, out, "2 suggestion(s)")

	assert.Contains(t, Validate(parseOne(t, toggle)).String(), "✓ toggle is valid")
}
