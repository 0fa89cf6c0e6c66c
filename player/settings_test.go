package player

import (
	"testing"
	"time"

	"github.com/amp-labs/lottie-interactivity/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSegmentPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         Segment
		want       Segment
		seekOrigin bool
	}{
		{"origin", Range(0, 0), Range(0, 0), true},
		{"equal bounds repaired", Range(5, 5), Range(4, 5), false},
		{"regular range", Range(10, 30), Range(10, 30), false},
		{"marker", Marker("intro"), Marker("intro"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, seek := tt.in.Plan()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.seekOrigin, seek)
		})
	}
}

func TestSegmentYAML(t *testing.T) {
	t.Parallel()

	var seg Segment

	require.NoError(t, yaml.Unmarshal([]byte("[5, 10]"), &seg))
	assert.Equal(t, Range(5, 10), seg)

	require.NoError(t, yaml.Unmarshal([]byte("hover_in"), &seg))
	assert.Equal(t, Marker("hover_in"), seg)

	err := yaml.Unmarshal([]byte("[1, 2, 3]"), &seg)
	require.ErrorIs(t, err, ErrInvalidSegment)

	assert.Error(t, Range(10, 5).Validate())
	assert.Error(t, Range(-1, 5).Validate())
	assert.NoError(t, Marker("x").Validate())
}

func TestLoopYAML(t *testing.T) {
	t.Parallel()

	var l Loop

	require.NoError(t, yaml.Unmarshal([]byte("true"), &l))
	assert.Equal(t, LoopOn, l)

	require.NoError(t, yaml.Unmarshal([]byte("3"), &l))
	assert.Equal(t, LoopTimes(3), l)
	assert.Equal(t, "3", l.String())

	require.ErrorIs(t, yaml.Unmarshal([]byte("-2"), &l), ErrInvalidLoop)
	require.ErrorIs(t, yaml.Unmarshal([]byte("sometimes"), &l), ErrInvalidLoop)
}

func TestSettingsOver(t *testing.T) {
	t.Parallel()

	base := DefaultSettings()
	base.Segments = optional.Some(Range(1, 2))

	declared := Settings{
		Autoplay: optional.Some(true),
		Loop:     optional.Some(LoopOn),
	}

	got := declared.Over(base)

	assert.Equal(t, optional.Some(true), got.Autoplay)
	assert.Equal(t, optional.Some(LoopOn), got.Loop)
	assert.Equal(t, optional.Some(1.0), got.Speed)
	assert.Equal(t, optional.Some(Forward), got.Direction)
	assert.True(t, got.Segments.Empty(), "segments are never inherited")
}

func TestSettingsYAML(t *testing.T) {
	t.Parallel()

	var s Settings

	doc := `
autoplay: true
direction: -1
loop: 2
speed: 1.5
playMode: bounce
intermission: 250
segments: [0, 30]
playOnScroll: [0.1, 0.9]
`
	require.NoError(t, yaml.Unmarshal([]byte(doc), &s))
	require.NoError(t, s.Validate())

	assert.Equal(t, optional.Some(Reverse), s.Direction)
	assert.Equal(t, optional.Some(LoopTimes(2)), s.Loop)
	assert.Equal(t, optional.Some(ModeBounce), s.PlayMode)

	d, ok := s.IntermissionDuration()
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)

	scroll, ok := s.PlayOnScroll.Get()
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.9}, scroll.Threshold)
	assert.True(t, s.DefaultTheme.Empty())
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Settings
		err  error
	}{
		{"direction", Settings{Direction: optional.Some(Direction(2))}, ErrInvalidDirection},
		{"speed", Settings{Speed: optional.Some(0.0)}, ErrInvalidSpeed},
		{"mode", Settings{PlayMode: optional.Some(PlayMode("shuffle"))}, ErrInvalidMode},
		{"intermission", Settings{Intermission: optional.Some(-1)}, ErrNegativeDuration},
		{"segments", Settings{Segments: optional.Some(Range(3, 1))}, ErrInvalidSegment},
		{
			"scroll threshold",
			Settings{PlayOnScroll: optional.Some(ScrollOptions{Threshold: []float64{0.8, 0.2}})},
			ErrInvalidThreshold,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, tt.s.Validate(), tt.err)
		})
	}

	assert.NoError(t, DefaultSettings().Validate())
}
