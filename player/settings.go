package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/amp-labs/lottie-interactivity/optional"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDirection = errors.New("direction must be 1 or -1")
	ErrInvalidSpeed     = errors.New("speed must be greater than zero")
	ErrInvalidMode      = errors.New("unknown play mode")
	ErrInvalidLoop      = errors.New("loop must be a boolean or a non-negative count")
	ErrNegativeDuration = errors.New("intermission must not be negative")
	ErrInvalidThreshold = errors.New("playOnScroll threshold must be [start, end] within 0..1")
)

// Direction of playback.
type Direction int

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// PlayMode controls what happens at the end of a loop.
type PlayMode string

const (
	ModeNormal PlayMode = "normal"
	ModeBounce PlayMode = "bounce"
)

// Loop is either a plain on/off switch or a repeat count.
// In descriptions it is written as `true`, `false` or a number.
type Loop struct {
	Enabled bool
	// Count limits the number of repeats when positive.
	Count int
}

// LoopOn and LoopOff are the two boolean loop values.
var (
	LoopOn  = Loop{Enabled: true}  //nolint:gochecknoglobals
	LoopOff = Loop{Enabled: false} //nolint:gochecknoglobals
)

// LoopTimes loops a fixed number of times.
func LoopTimes(n int) Loop {
	return Loop{Enabled: n > 0, Count: n}
}

func (l Loop) String() string {
	if l.Count > 0 {
		return fmt.Sprintf("%d", l.Count)
	}

	return fmt.Sprintf("%t", l.Enabled)
}

// UnmarshalYAML accepts a boolean or an integer.
func (l *Loop) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: got %s", ErrInvalidLoop, node.ShortTag())
	}

	switch node.ShortTag() {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}

		*l = Loop{Enabled: b}

		return nil
	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}

		if n < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidLoop, n)
		}

		*l = LoopTimes(n)

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLoop, node.Value)
	}
}

// MarshalYAML writes the count when set, otherwise the boolean.
func (l Loop) MarshalYAML() (any, error) {
	if l.Count > 0 {
		return l.Count, nil
	}

	return l.Enabled, nil
}

// ScrollOptions binds playback progress to the page's scroll position.
// In descriptions it is written either as a two-number threshold `[start, end]`
// or as a mapping with `threshold` and an optional `segments` restriction.
type ScrollOptions struct {
	Threshold []float64               `yaml:"threshold,flow"`
	Segments  optional.Value[Segment] `yaml:"segments,omitempty"`
}

// UnmarshalYAML accepts the short sequence form and the full mapping form.
func (s *ScrollOptions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var threshold []float64
		if err := node.Decode(&threshold); err != nil {
			return err
		}

		*s = ScrollOptions{Threshold: threshold}

		return nil
	}

	type plain ScrollOptions

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*s = ScrollOptions(p)

	return nil
}

// Validate checks that the threshold is a [start, end] pair of ratios.
func (s ScrollOptions) Validate() error {
	if len(s.Threshold) != 2 { //nolint:mnd
		return fmt.Errorf("%w: got %d values", ErrInvalidThreshold, len(s.Threshold))
	}

	if s.Threshold[0] < 0 || s.Threshold[1] > 1 || s.Threshold[0] > s.Threshold[1] {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, s.Threshold)
	}

	return nil
}

// Settings is a subset of playback settings. Unset fields are left alone.
type Settings struct {
	Autoplay     optional.Value[bool]          `yaml:"autoplay,omitempty"`
	Direction    optional.Value[Direction]     `yaml:"direction,omitempty"`
	Loop         optional.Value[Loop]          `yaml:"loop,omitempty"`
	Speed        optional.Value[float64]       `yaml:"speed,omitempty"`
	PlayMode     optional.Value[PlayMode]      `yaml:"playMode,omitempty"`
	Intermission optional.Value[int]           `yaml:"intermission,omitempty"` // milliseconds
	DefaultTheme optional.Value[string]        `yaml:"defaultTheme,omitempty"`
	Segments     optional.Value[Segment]       `yaml:"segments,omitempty"`
	PlayOnScroll optional.Value[ScrollOptions] `yaml:"playOnScroll,omitempty"`
}

// SettingKeys lists the keys a state may declare, inline or under playbackSettings.
func SettingKeys() []string {
	return []string{
		"autoplay", "direction", "intermission", "loop", "playMode",
		"speed", "defaultTheme", "playOnScroll", "segments",
	}
}

// DefaultSettings are the manifest-level defaults used when nothing else is known.
func DefaultSettings() Settings {
	return Settings{
		Autoplay:     optional.Some(false),
		Direction:    optional.Some(Forward),
		Loop:         optional.Some(LoopOff),
		Speed:        optional.Some(1.0),
		PlayMode:     optional.Some(ModeNormal),
		Intermission: optional.Some(0),
	}
}

// IsZero reports whether no setting is declared.
func (s Settings) IsZero() bool {
	return s.Autoplay.Empty() && s.Direction.Empty() && s.Loop.Empty() &&
		s.Speed.Empty() && s.PlayMode.Empty() && s.Intermission.Empty() &&
		s.DefaultTheme.Empty() && s.Segments.Empty() && s.PlayOnScroll.Empty()
}

// Merge layers s on top of base field by field, scoped fields included.
func (s Settings) Merge(base Settings) Settings {
	return Settings{
		Autoplay:     s.Autoplay.OrElse(base.Autoplay),
		Direction:    s.Direction.OrElse(base.Direction),
		Loop:         s.Loop.OrElse(base.Loop),
		Speed:        s.Speed.OrElse(base.Speed),
		PlayMode:     s.PlayMode.OrElse(base.PlayMode),
		Intermission: s.Intermission.OrElse(base.Intermission),
		DefaultTheme: s.DefaultTheme.OrElse(base.DefaultTheme),
		Segments:     s.Segments.OrElse(base.Segments),
		PlayOnScroll: s.PlayOnScroll.OrElse(base.PlayOnScroll),
	}
}

// Over layers s on top of base: every field s declares wins, every field it omits
// falls back to base. Segments and PlayOnScroll are scoped to the declaring state and
// are never inherited from base.
func (s Settings) Over(base Settings) Settings {
	merged := s.Merge(base)
	merged.Segments = s.Segments
	merged.PlayOnScroll = s.PlayOnScroll

	return merged
}

// IntermissionDuration converts the declared intermission to a duration.
func (s Settings) IntermissionDuration() (time.Duration, bool) {
	ms, ok := s.Intermission.Get()

	return time.Duration(ms) * time.Millisecond, ok
}

// Validate checks the declared values.
func (s Settings) Validate() error {
	if d, ok := s.Direction.Get(); ok && d != Forward && d != Reverse {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, d)
	}

	if v, ok := s.Speed.Get(); ok && v <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, v)
	}

	if m, ok := s.PlayMode.Get(); ok && m != ModeNormal && m != ModeBounce {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}

	if ms, ok := s.Intermission.Get(); ok && ms < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDuration, ms)
	}

	if l, ok := s.Loop.Get(); ok && l.Count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLoop, l.Count)
	}

	if seg, ok := s.Segments.Get(); ok {
		if err := seg.Validate(); err != nil {
			return err
		}
	}

	if scroll, ok := s.PlayOnScroll.Get(); ok {
		if err := scroll.Validate(); err != nil {
			return err
		}

		if seg, ok := scroll.Segments.Get(); ok {
			if err := seg.Validate(); err != nil {
				return fmt.Errorf("playOnScroll: %w", err)
			}
		}
	}

	return nil
}
