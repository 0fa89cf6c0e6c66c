package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Source looks variables up by name.
type Source func(key string) (string, bool)

// Env reads the process environment.
var Env Source = os.LookupEnv //nolint:gochecknoglobals

// MapSource serves variables from a map, for tests and embedding.
func MapSource(vars map[string]string) Source {
	return func(key string) (string, bool) {
		v, ok := vars[key]

		return v, ok
	}
}

func (s Source) get(key string) Reader[string] {
	val, ok := s(key)

	return Reader[string]{key: key, present: ok, value: val}
}

// String reads a string variable.
func (s Source) String(key string, opts ...Option[string]) Reader[string] {
	return apply(s.get(key), opts)
}

// Bool reads a boolean variable (strconv.ParseBool syntax).
func (s Source) Bool(key string, opts ...Option[bool]) Reader[bool] {
	return apply(Map(s.get(key), func(v string) (bool, error) {
		return strconv.ParseBool(strings.TrimSpace(v))
	}), opts)
}

// Int reads an integer variable.
func (s Source) Int(key string, opts ...Option[int]) Reader[int] {
	return apply(Map(s.get(key), func(v string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(v))
	}), opts)
}

// Float64 reads a floating point variable.
func (s Source) Float64(key string, opts ...Option[float64]) Reader[float64] {
	return apply(Map(s.get(key), func(v string) (float64, error) {
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}), opts)
}

// Duration reads a time.ParseDuration variable.
func (s Source) Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	return apply(Map(s.get(key), func(v string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(v))
	}), opts)
}

// SlogLevel reads a log level name (debug, info, warn, error).
func (s Source) SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	return apply(Map(s.get(key), func(v string) (slog.Level, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return level, fmt.Errorf("unknown log level %q: %w", v, err)
		}

		return level, nil
	}), opts)
}

// OneOf reads a string variable restricted to the given values (case-insensitive).
func (s Source) OneOf(key string, allowed []string, opts ...Option[string]) Reader[string] {
	return apply(Map(s.get(key), func(v string) (string, error) {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, a := range allowed {
			if v == strings.ToLower(a) {
				return a, nil
			}
		}

		return v, fmt.Errorf("%q is not one of %v", v, allowed)
	}), opts)
}
