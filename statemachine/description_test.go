package statemachine

import (
	"testing"
	"testing/fstest"

	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDescriptionsYAML(t *testing.T) {
	t.Parallel()

	descs := parse(t, toggleYAML)
	require.Len(t, descs, 1)

	desc := descs[0]
	assert.Equal(t, Descriptor{ID: "toggle", Initial: "idle"}, desc.Descriptor)
	require.Len(t, desc.States, 2)

	idle := desc.States["idle"]
	assert.Equal(t, "wave", idle.AnimationID)

	autoplay, ok := idle.Settings.Autoplay.Get()
	require.True(t, ok)
	assert.False(t, autoplay)
	assert.Equal(t, TransitionSpecs{{State: "playing"}}, idle.Transitions["onClick"])

	loop, ok := desc.States["playing"].Settings.Loop.Get()
	require.True(t, ok)
	assert.Equal(t, player.LoopOn, loop)
}

func TestParseDescriptionsJSON(t *testing.T) {
	t.Parallel()

	doc := `[{
		"descriptor": {"id": "hover", "initial": "rest"},
		"states": {
			"rest": {"animationId": "bounce", "playbackSettings": {"speed": 0.5}, "onMouseEnter": {"state": "lit"}},
			"lit": {"segments": [10, 20], "onMouseLeave": {"state": "rest"}, "onAfter": [{"state": "rest", "ms": 1000}]}
		}
	}]`

	descs := parse(t, doc)
	require.Len(t, descs, 1)

	rest := descs[0].States["rest"]
	speed, ok := rest.Settings.Speed.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.5, speed, 0.0001)

	lit := descs[0].States["lit"]
	seg, ok := lit.Settings.Segments.Get()
	require.True(t, ok)
	assert.Equal(t, player.Range(10, 20), seg)
	assert.Equal(t, TransitionSpecs{{State: "rest", Ms: 1000}}, lit.Transitions["onAfter"])
}

func TestParseSingleDescription(t *testing.T) {
	t.Parallel()

	descs := parse(t, `{"descriptor": {"id": "one", "initial": "a"}, "states": {"a": {}}}`)
	require.Len(t, descs, 1)
	assert.Equal(t, "one", descs[0].Descriptor.ID)
}

func TestInlineSettingsOverrideNested(t *testing.T) {
	t.Parallel()

	descs := parse(t, `
- descriptor: {id: m, initial: s}
  states:
    s:
      speed: 3
      playbackSettings:
        speed: 1
        loop: 2
`)

	s := descs[0].States["s"].Settings

	speed, _ := s.Speed.Get()
	assert.InDelta(t, 3.0, speed, 0.0001)

	loop, _ := s.Loop.Get()
	assert.Equal(t, player.LoopTimes(2), loop)
}

func TestParseDescriptionsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "   ", ErrEmptyDescriptions},
		{"empty list", "[]", ErrEmptyDescriptions},
		{"scalar", "hello", ErrEmptyDescriptions},
		{
			"unknown field",
			"- descriptor: {id: m, initial: s}\n  states:\n    s:\n      colour: red\n",
			ErrUnknownStateField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseDescriptions([]byte(tt.doc))
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ParseDescriptions([]byte("- descriptor: {id: m}\n  states:\n    s:\n      onClick: nope\n"))
	require.Error(t, err)
}

func TestLoadDescriptionsFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"machines/toggle.yaml": &fstest.MapFile{Data: []byte(toggleYAML)},
	}

	descs, err := LoadDescriptionsFS(fsys, "machines/toggle.yaml")
	require.NoError(t, err)
	require.Len(t, descs, 1)

	_, err = LoadDescriptionsFS(fsys, "machines/missing.yaml")
	require.Error(t, err)

	attrs := logger.Annotations(err)
	require.Len(t, attrs, 1)
	assert.Equal(t, "path", attrs[0].Key)
	assert.Equal(t, "machines/missing.yaml", attrs[0].Value.String())

	fsys["machines/broken.yaml"] = &fstest.MapFile{Data: []byte("- descriptor: [nope")}

	_, err = LoadDescriptionsFS(fsys, "machines/broken.yaml")
	require.Error(t, err)
	assert.Len(t, logger.Annotations(err), 1)
}

func TestStateDefinitionMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	descs := parse(t, toggleYAML)

	out, err := yaml.Marshal(descs)
	require.NoError(t, err)

	again := parse(t, string(out))
	assert.Equal(t, descs, again)
}
