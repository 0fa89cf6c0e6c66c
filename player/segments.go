package player

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSegment = errors.New("invalid segment")
	errSegmentLength  = errors.New("segment range needs exactly two frames")
)

// Segment restricts playback either to a frame range or to a named marker.
// In descriptions it is written as `[start, end]` or as a marker name.
type Segment struct {
	Start  float64
	End    float64
	Marker string
}

// Range builds a frame-range segment.
func Range(start, end float64) Segment {
	return Segment{Start: start, End: end}
}

// Marker builds a segment bound to a named marker.
func Marker(name string) Segment {
	return Segment{Marker: name}
}

// IsMarker reports whether the segment names a marker rather than a frame range.
func (s Segment) IsMarker() bool {
	return s.Marker != ""
}

// Validate rejects negative and inverted ranges.
func (s Segment) Validate() error {
	if s.IsMarker() {
		return nil
	}

	if s.Start < 0 || s.End < 0 {
		return fmt.Errorf("%w: negative frame in %s", ErrInvalidSegment, s)
	}

	if s.Start > s.End {
		return fmt.Errorf("%w: start after end in %s", ErrInvalidSegment, s)
	}

	return nil
}

// Plan decides how a segment is played back.
//
// A [0, 0] range means "seek to frame 0 and play" (seekOrigin is true). The
// lottie-web renderer collapses any range with equal non-zero bounds to frame 0, so
// [n, n] is widened to [n-1, n]. That repair is specific to that renderer.
func (s Segment) Plan() (playable Segment, seekOrigin bool) {
	if s.IsMarker() {
		return s, false
	}

	if s.Start == 0 && s.End == 0 {
		return s, true
	}

	if s.Start == s.End {
		return Range(s.Start-1, s.End), false
	}

	return s, false
}

func (s Segment) String() string {
	if s.IsMarker() {
		return s.Marker
	}

	return fmt.Sprintf("[%g, %g]", s.Start, s.End)
}

// UnmarshalYAML accepts a two-element sequence or a marker name.
func (s *Segment) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind { //nolint:exhaustive
	case yaml.SequenceNode:
		var frames []float64
		if err := node.Decode(&frames); err != nil {
			return err
		}

		if len(frames) != 2 { //nolint:mnd
			return fmt.Errorf("%w: %w", ErrInvalidSegment, errSegmentLength)
		}

		*s = Range(frames[0], frames[1])

		return nil
	case yaml.ScalarNode:
		if node.Value == "" {
			return fmt.Errorf("%w: empty marker", ErrInvalidSegment)
		}

		*s = Marker(node.Value)

		return nil
	default:
		return fmt.Errorf("%w: unsupported %s", ErrInvalidSegment, node.ShortTag())
	}
}

// MarshalYAML writes the marker name or the two-frame sequence.
func (s Segment) MarshalYAML() (any, error) {
	if s.IsMarker() {
		return s.Marker, nil
	}

	return []float64{s.Start, s.End}, nil
}
