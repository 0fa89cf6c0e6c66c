// Package visualizer renders interactivity state machines as Mermaid state diagrams.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/statemachine"
	"github.com/amp-labs/lottie-interactivity/trigger"
	"gopkg.in/yaml.v3"
)

// Visualizer errors.
var (
	ErrNoStates       = errors.New("description has no states")
	ErrNoInitialState = errors.New("description must have an initial state")
)

// GenerateMermaid converts a description to a Mermaid state diagram.
func GenerateMermaid(desc statemachine.Description) (string, error) {
	return GenerateMermaidWithOptions(desc, DefaultOptions())
}

// GenerateMermaidFromFile loads descriptions from a file and renders one diagram
// per machine, in file order.
func GenerateMermaidFromFile(path string, opts Options) (string, error) {
	descs, err := statemachine.LoadDescriptions(path)
	if err != nil {
		return "", fmt.Errorf("failed to load descriptions: %w", err)
	}

	var sb strings.Builder

	for i, desc := range descs {
		if i > 0 {
			sb.WriteString("\n")
		}

		diagram, err := GenerateMermaidWithOptions(desc, opts)
		if err != nil {
			return "", fmt.Errorf("machine %q: %w", desc.Descriptor.ID, err)
		}

		sb.WriteString(diagram)
	}

	return sb.String(), nil
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// The description must compile; dangling targets are drawn as plain nodes.
func GenerateMermaidWithOptions(desc statemachine.Description, opts Options) (string, error) {
	if len(desc.States) == 0 {
		return "", ErrNoStates
	}

	if desc.Descriptor.Initial == "" {
		return "", ErrNoInitialState
	}

	if desc.Descriptor.ID == "" {
		desc.Descriptor.ID = "machine"
	}

	machines, err := statemachine.Compile([]statemachine.Description{desc})
	if err != nil {
		return "", err
	}

	machine := machines[desc.Descriptor.ID]

	highlightMap := make(map[string]bool, len(opts.HighlightPath))
	for _, state := range opts.HighlightPath {
		highlightMap[state] = true
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")

	if opts.Theme != "" && opts.Theme != "default" {
		fmt.Fprintf(&sb, "%%%%{init: {'theme': '%s'}}%%%%\n", opts.Theme)
	}

	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", opts.Direction)
	fmt.Fprintf(&sb, "    %%%% machine %s\n", machine.ID)
	fmt.Fprintf(&sb, "    [*] --> %s\n", nodeID(machine.Initial))

	for _, name := range machine.StateNames() {
		state := machine.States[name]
		id := nodeID(name)

		if id != name {
			fmt.Fprintf(&sb, "    state \"%s\" as %s\n", name, id)
		}

		if opts.ShowSettings {
			if note := stateNote(state.Entry); note != "" {
				fmt.Fprintf(&sb, "    %s: %s\n", id, note)
			}
		}

		switch {
		case highlightMap[name]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", id)
		case !state.Exit.Empty():
			fmt.Fprintf(&sb, "    class %s scopedState\n", id)
		}

		for _, b := range state.Bindings() {
			fmt.Fprintf(&sb, "    %s --> %s: %s\n", id, nodeID(b.Target), Label(b))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef scopedState fill:#e1f5ff,stroke:#01579b,stroke-width:2px\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("```\n")

	return sb.String(), nil
}

// Label renders a binding as an edge label, e.g. "click", "after 500ms" or
// "complete ×2".
func Label(b statemachine.Binding) string {
	label := b.Trigger.String()

	if b.Trigger == trigger.After {
		label = "after " + b.Delay.Round(time.Millisecond).String()
	}

	if b.Count > 1 {
		label = fmt.Sprintf("%s ×%d", label, b.Count)
	}

	return label
}

// stateNote summarises what entering a state does to the player.
func stateNote(cmd statemachine.EntryCommand) string {
	var parts []string

	if cmd.AnimationID != "" {
		parts = append(parts, "["+cmd.AnimationID+"]")
	}

	if settings := settingsSummary(cmd.Settings); settings != "" {
		parts = append(parts, settings)
	}

	return strings.Join(parts, "\\n")
}

// settingsSummary renders the declared settings in YAML flow style without braces.
func settingsSummary(s player.Settings) string {
	if s.IsZero() {
		return ""
	}

	var node yaml.Node
	if err := node.Encode(s); err != nil {
		return ""
	}

	node.Style = yaml.FlowStyle

	out, err := yaml.Marshal(&node)
	if err != nil {
		return ""
	}

	summary := strings.TrimSpace(string(out))
	summary = strings.TrimPrefix(summary, "{")
	summary = strings.TrimSuffix(summary, "}")

	return strings.ReplaceAll(summary, ":", " =")
}

// nodeID turns a state name into a Mermaid identifier.
func nodeID(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
