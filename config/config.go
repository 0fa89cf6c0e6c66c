package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/amp-labs/lottie-interactivity/optional"
	"github.com/amp-labs/lottie-interactivity/player"
)

// Environment variables read by Load.
const (
	EnvLogJSON      = "LOG_JSON"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogOutput    = "LOG_OUTPUT"
	EnvAutoplay     = "LOTTIE_DEFAULT_AUTOPLAY"
	EnvLoop         = "LOTTIE_DEFAULT_LOOP"
	EnvSpeed        = "LOTTIE_DEFAULT_SPEED"
	EnvDirection    = "LOTTIE_DEFAULT_DIRECTION"
	EnvMode         = "LOTTIE_DEFAULT_MODE"
	EnvIntermission = "LOTTIE_DEFAULT_INTERMISSION"
	EnvOTelEnabled  = "LOTTIE_OTEL_ENABLED"
	EnvOTelEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvOTelTimeout  = "LOTTIE_OTEL_TIMEOUT"
	EnvMetricsAddr  = "LOTTIE_METRICS_ADDR"
	EnvSpanDebug    = "LOTTIE_SPAN_DEBUG"
	EnvWorkers      = "LOTTIE_WORKERS"
)

var (
	errNotPositive = errors.New("must be greater than zero")
	errNegative    = errors.New("must not be negative")
)

type checked interface {
	Key() string
	Error() error
}

// Config is the runtime configuration of the engine and its CLI.
type Config struct {
	App string

	LogJSON   bool
	LogLevel  slog.Level
	LogOutput string

	// Defaults are the playback settings every state entry starts from.
	Defaults player.Settings

	OTelEnabled  bool
	OTelEndpoint string
	OTelTimeout  time.Duration

	MetricsAddr string
	SpanDebug   bool
	Workers     int
}

// Load reads the configuration from the process environment.
func Load(app string) (Config, error) {
	return LoadFrom(Env, app)
}

// LoadFrom reads the configuration from src. Every bad variable is reported.
func LoadFrom(src Source, app string) (Config, error) {
	var errs []error

	collect := func(r checked) {
		if err := r.Error(); err != nil {
			errs = append(errs, fmt.Errorf("%w %s: %w", ErrBadEnvVar, r.Key(), err))
		}
	}

	logJSON := src.Bool(EnvLogJSON, Default(false))
	logLevel := src.SlogLevel(EnvLogLevel, Default(slog.LevelInfo))
	logOutput := src.OneOf(EnvLogOutput, []string{"stdout", "stderr"}, Default("stdout"))
	otelEnabled := src.Bool(EnvOTelEnabled, Default(false))
	otelEndpoint := src.String(EnvOTelEndpoint, Default(""))
	otelTimeout := src.Duration(EnvOTelTimeout,
		Default(10*time.Second), Validate(positiveDuration))
	metricsAddr := src.String(EnvMetricsAddr, Default(""))
	spanDebug := src.Bool(EnvSpanDebug, Default(false))
	workers := src.Int(EnvWorkers, Default(4), Validate(positiveInt))

	for _, r := range []checked{
		logJSON, logLevel, logOutput, otelEnabled, otelEndpoint,
		otelTimeout, metricsAddr, spanDebug, workers,
	} {
		collect(r)
	}

	defaults, err := loadDefaults(src)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return Config{
		App:          app,
		LogJSON:      logJSON.ValueOrElse(false),
		LogLevel:     logLevel.ValueOrElse(slog.LevelInfo),
		LogOutput:    logOutput.ValueOrElse("stdout"),
		Defaults:     defaults,
		OTelEnabled:  otelEnabled.ValueOrElse(false),
		OTelEndpoint: otelEndpoint.ValueOrElse(""),
		OTelTimeout:  otelTimeout.ValueOrElse(10 * time.Second),
		MetricsAddr:  metricsAddr.ValueOrElse(""),
		SpanDebug:    spanDebug.ValueOrElse(false),
		Workers:      workers.ValueOrElse(4),
	}, nil
}

// loadDefaults reads the LOTTIE_DEFAULT_* variables. Unset variables stay unset
// so the built-in defaults apply.
func loadDefaults(src Source) (player.Settings, error) {
	var (
		s    player.Settings
		errs []error
	)

	set := func(r checked) {
		if err := r.Error(); err != nil {
			errs = append(errs, fmt.Errorf("%w %s: %w", ErrBadEnvVar, r.Key(), err))
		}
	}

	autoplay := src.Bool(EnvAutoplay)
	set(autoplay)
	autoplay.DoWithValue(func(v bool) { s.Autoplay = optional.Some(v) })

	loop := Map(src.String(EnvLoop), parseLoop)
	set(loop)
	loop.DoWithValue(func(v player.Loop) { s.Loop = optional.Some(v) })

	speed := src.Float64(EnvSpeed)
	set(speed)
	speed.DoWithValue(func(v float64) { s.Speed = optional.Some(v) })

	direction := src.Int(EnvDirection)
	set(direction)
	direction.DoWithValue(func(v int) { s.Direction = optional.Some(player.Direction(v)) })

	mode := src.OneOf(EnvMode, []string{string(player.ModeNormal), string(player.ModeBounce)})
	set(mode)
	mode.DoWithValue(func(v string) { s.PlayMode = optional.Some(player.PlayMode(v)) })

	intermission := src.Duration(EnvIntermission, Validate(nonNegativeDuration))
	set(intermission)
	intermission.DoWithValue(func(v time.Duration) { s.Intermission = optional.Some(int(v.Milliseconds())) })

	if len(errs) > 0 {
		return player.Settings{}, errors.Join(errs...)
	}

	if err := s.Validate(); err != nil {
		return player.Settings{}, fmt.Errorf("%w: default playback settings: %w", ErrBadEnvVar, err)
	}

	return s, nil
}

// parseLoop accepts a boolean or a non-negative loop count. "0" and "1" read
// as booleans.
func parseLoop(v string) (player.Loop, error) {
	v = strings.TrimSpace(v)

	if b, err := strconv.ParseBool(v); err == nil {
		if b {
			return player.LoopOn, nil
		}

		return player.LoopOff, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return player.Loop{}, fmt.Errorf("%w: got %q", player.ErrInvalidLoop, v)
	}

	return player.LoopTimes(n), nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return errNotPositive
	}

	return nil
}

func nonNegativeDuration(d time.Duration) error {
	if d < 0 {
		return errNegative
	}

	return nil
}

func positiveInt(n int) error {
	if n <= 0 {
		return errNotPositive
	}

	return nil
}
