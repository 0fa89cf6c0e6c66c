package statemachine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/amp-labs/lottie-interactivity/trigger"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDescriptions is returned when a descriptions document holds nothing.
var ErrEmptyDescriptions = errors.New("no state machine descriptions found")

// Descriptor identifies a machine and names its initial state.
type Descriptor struct {
	ID      string `json:"id"      yaml:"id"`
	Initial string `json:"initial" yaml:"initial"`
}

// Description is the declarative form of one interactivity state machine.
type Description struct {
	Descriptor Descriptor                 `json:"descriptor" yaml:"descriptor"`
	States     map[string]StateDefinition `json:"states"     yaml:"states"`
}

// TransitionSpec is one transition binding as written in a state definition.
type TransitionSpec struct {
	// State is the target state name.
	State string `json:"state" yaml:"state"`
	// Ms is the delay for onAfter bindings, in milliseconds.
	Ms int `json:"ms,omitempty" yaml:"ms,omitempty"`
	// Count is the occurrence that fires the binding. Zero means 1.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
}

// TransitionSpecs holds the bindings declared under one transition key. A key
// is normally bound once; onAfter may list several delays.
type TransitionSpecs []TransitionSpec

// UnmarshalYAML accepts either a single mapping or a sequence of mappings.
func (t *TransitionSpecs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind { //nolint:exhaustive
	case yaml.MappingNode:
		var spec TransitionSpec
		if err := node.Decode(&spec); err != nil {
			return err
		}

		*t = TransitionSpecs{spec}

		return nil
	case yaml.SequenceNode:
		var specs []TransitionSpec
		if err := node.Decode(&specs); err != nil {
			return err
		}

		*t = specs

		return nil
	default:
		return fmt.Errorf("line %d: transition must be a mapping or a list of mappings", node.Line)
	}
}

// MarshalYAML writes a single binding as a plain mapping.
func (t TransitionSpecs) MarshalYAML() (any, error) {
	if len(t) == 1 {
		return t[0], nil
	}

	return []TransitionSpec(t), nil
}

// StateDefinition is one named state of a description.
type StateDefinition struct {
	// AnimationID is the animation to activate on entry. Empty keeps the current one.
	AnimationID string
	// Settings are the declared playback settings, inline keys already merged
	// over the nested playbackSettings block.
	Settings player.Settings
	// Transitions are keyed by transition key (e.g. "onClick").
	Transitions map[string]TransitionSpecs
}

// UnmarshalYAML reads animationId, the nested playbackSettings block, inline
// setting keys and on* transition keys. Any other key is rejected.
func (s *StateDefinition) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: state definition must be a mapping", node.Line)
	}

	var (
		def    StateDefinition
		nested player.Settings
		inline = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	)

	settingKeys := player.SettingKeys()

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		switch {
		case key.Value == "animationId":
			if err := value.Decode(&def.AnimationID); err != nil {
				return err
			}
		case key.Value == "playbackSettings":
			if err := value.Decode(&nested); err != nil {
				return fmt.Errorf("playbackSettings: %w", err)
			}
		case slices.Contains(settingKeys, key.Value):
			inline.Content = append(inline.Content, key, value)
		case trigger.IsTransitionKey(key.Value):
			var specs TransitionSpecs
			if err := value.Decode(&specs); err != nil {
				return fmt.Errorf("%s: %w", key.Value, err)
			}

			if def.Transitions == nil {
				def.Transitions = make(map[string]TransitionSpecs)
			}

			def.Transitions[key.Value] = specs
		default:
			return fmt.Errorf("line %d: %w: %q", key.Line, ErrUnknownStateField, key.Value)
		}
	}

	var inlined player.Settings
	if len(inline.Content) > 0 {
		if err := inline.Decode(&inlined); err != nil {
			return err
		}
	}

	def.Settings = inlined.Merge(nested)
	*s = def

	return nil
}

// MarshalYAML writes the definition back in its canonical shape: animationId,
// playbackSettings and transition keys.
func (s StateDefinition) MarshalYAML() (any, error) {
	out := make(map[string]any, len(s.Transitions)+2)

	if s.AnimationID != "" {
		out["animationId"] = s.AnimationID
	}

	if !s.Settings.IsZero() {
		out["playbackSettings"] = s.Settings
	}

	for key, specs := range s.Transitions {
		out[key] = specs
	}

	return out, nil
}

// ParseDescriptions reads a list of descriptions from JSON or YAML. A single
// description (not wrapped in a list) is accepted too.
func ParseDescriptions(data []byte) ([]Description, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDescriptions
	}

	// JSON goes through the YAML decoder so both formats share one set of
	// field rules.
	if trimmed[0] == '[' || trimmed[0] == '{' {
		var generic any
		if err := json.Unmarshal(trimmed, &generic); err == nil {
			converted, err := yaml.Marshal(generic)
			if err != nil {
				return nil, fmt.Errorf("failed to convert JSON descriptions: %w", err)
			}

			trimmed = converted
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("failed to parse descriptions: %w", err)
	}

	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	var descriptions []Description

	switch doc.Kind { //nolint:exhaustive
	case yaml.SequenceNode:
		if err := doc.Decode(&descriptions); err != nil {
			return nil, fmt.Errorf("failed to parse descriptions: %w", err)
		}
	case yaml.MappingNode:
		var single Description
		if err := doc.Decode(&single); err != nil {
			return nil, fmt.Errorf("failed to parse description: %w", err)
		}

		descriptions = []Description{single}
	default:
		return nil, ErrEmptyDescriptions
	}

	if len(descriptions) == 0 {
		return nil, ErrEmptyDescriptions
	}

	return descriptions, nil
}

// LoadDescriptions reads descriptions from a file.
func LoadDescriptions(path string) ([]Description, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the caller
	if err != nil {
		return nil, logger.AnnotateError(fmt.Errorf("failed to read descriptions file %s: %w", path, err), "path", path)
	}

	descriptions, err := ParseDescriptions(data)
	if err != nil {
		return nil, logger.AnnotateError(fmt.Errorf("%s: %w", path, err), "path", path)
	}

	return descriptions, nil
}

// LoadDescriptionsFS reads descriptions from a file in fsys, e.g. an embed.FS.
func LoadDescriptionsFS(fsys fs.FS, path string) ([]Description, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, logger.AnnotateError(fmt.Errorf("failed to read descriptions file %s: %w", path, err), "path", path)
	}

	descriptions, err := ParseDescriptions(data)
	if err != nil {
		return nil, logger.AnnotateError(fmt.Errorf("%s: %w", path, err), "path", path)
	}

	return descriptions, nil
}
