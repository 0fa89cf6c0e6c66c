package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amp-labs/lottie-interactivity/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	t.Parallel()

	src := MapSource(map[string]string{
		"A_BOOL":  "true",
		"A_INT":   " 42 ",
		"A_BAD":   "nope",
		"A_LEVEL": "debug",
	})

	b, err := src.Bool("A_BOOL").Value()
	require.NoError(t, err)
	assert.True(t, b)

	n, err := src.Int("A_INT").Value()
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	level, err := src.SlogLevel("A_LEVEL").Value()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = src.Int("A_BAD").Value()
	require.ErrorIs(t, err, ErrBadEnvVar)

	_, err = src.String("MISSING").Value()
	require.ErrorIs(t, err, ErrEnvVarMissing)

	assert.Equal(t, 7, src.Int("MISSING", Default(7)).ValueOrElse(0))
	assert.Equal(t, 3, src.Int("A_BAD").ValueOrElse(3))
	assert.Equal(t, "MISSING=<not set>", src.String("MISSING").String())
}

func TestValidateOption(t *testing.T) {
	t.Parallel()

	src := MapSource(map[string]string{"WORKERS": "0"})

	r := src.Int("WORKERS", Validate(positiveInt))
	require.ErrorIs(t, r.Error(), errNotPositive)
	assert.False(t, r.HasValue())
}

func TestLoadFromDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(MapSource(nil), "lottie-sm")
	require.NoError(t, err)

	assert.Equal(t, "lottie-sm", cfg.App)
	assert.False(t, cfg.LogJSON)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "stdout", cfg.LogOutput)
	assert.Equal(t, 10*time.Second, cfg.OTelTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Defaults.IsZero())
}

func TestLoadFromPlaybackDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(MapSource(map[string]string{
		EnvAutoplay:     "true",
		EnvLoop:         "3",
		EnvSpeed:        "1.5",
		EnvDirection:    "-1",
		EnvMode:         "Bounce",
		EnvIntermission: "250ms",
		EnvLogOutput:    "STDERR",
	}), "test")
	require.NoError(t, err)

	assert.Equal(t, "stderr", cfg.LogOutput)

	autoplay, _ := cfg.Defaults.Autoplay.Get()
	assert.True(t, autoplay)

	loop, _ := cfg.Defaults.Loop.Get()
	assert.Equal(t, player.LoopTimes(3), loop)

	speed, _ := cfg.Defaults.Speed.Get()
	assert.InDelta(t, 1.5, speed, 0.0001)

	direction, _ := cfg.Defaults.Direction.Get()
	assert.Equal(t, player.Reverse, direction)

	mode, _ := cfg.Defaults.PlayMode.Get()
	assert.Equal(t, player.ModeBounce, mode)

	intermission, _ := cfg.Defaults.Intermission.Get()
	assert.Equal(t, 250, intermission)
}

func TestLoadFromReportsEveryBadVariable(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(MapSource(map[string]string{
		EnvLogJSON:   "maybe",
		EnvWorkers:   "-2",
		EnvSpeed:     "0",
		EnvDirection: "x",
	}), "test")
	require.ErrorIs(t, err, ErrBadEnvVar)

	assert.Contains(t, err.Error(), EnvLogJSON)
	assert.Contains(t, err.Error(), EnvWorkers)
	assert.Contains(t, err.Error(), EnvDirection)
}

func TestParseLoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want player.Loop
		err  bool
	}{
		{"true", player.LoopOn, false},
		{"false", player.LoopOff, false},
		{"1", player.LoopOn, false},
		{"5", player.LoopTimes(5), false},
		{"-1", player.Loop{}, true},
		{"often", player.Loop{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseLoop(tt.in)
			if tt.err {
				require.ErrorIs(t, err, player.ErrInvalidLoop)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnvFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	dotenv := filepath.Join(dir, "lottie.env")
	require.NoError(t, os.WriteFile(dotenv, []byte("LOTTIE_WORKERS=8\nLOG_LEVEL=warn\n"), 0o600))

	yamlFile := filepath.Join(dir, "lottie.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte("env:\n  LOTTIE_WORKERS: \"2\"\n"), 0o600))

	vars, err := LoadEnvFile(yamlFile)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"LOTTIE_WORKERS": "2"}, vars)

	src, err := WithEnvFile(MapSource(map[string]string{"LOG_LEVEL": "error"}), dotenv)
	require.NoError(t, err)

	cfg, err := LoadFrom(src, "test")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, slog.LevelError, cfg.LogLevel)

	_, err = LoadEnvFile(filepath.Join(dir, "lottie.toml"))
	require.ErrorIs(t, err, ErrUnknownFileType)
}
