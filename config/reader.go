// Package config reads runtime configuration from environment variables through
// typed readers that carry presence, parse errors and defaults together.
package config

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader is a value read from one environment variable.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

// NewReader builds a Reader from raw data, for sources other than the environment.
func NewReader[T any](key string, present bool, err error, value T) Reader[T] {
	return Reader[T]{key: key, present: present, err: err, value: value}
}

// Key returns the variable name.
func (r Reader[A]) Key() string {
	return r.key
}

// Value returns the value, or an error if it is missing or failed to parse.
func (r Reader[A]) Value() (A, error) { //nolint:ireturn
	if r.err != nil {
		return r.value, fmt.Errorf("%w %s: %w", ErrBadEnvVar, r.key, r.err)
	}

	if !r.present {
		return r.value, fmt.Errorf("%w %s", ErrEnvVarMissing, r.key)
	}

	return r.value, nil
}

// ValueOrElse returns the value, or v when it is missing or failed to parse.
// Parse failures are logged.
func (r Reader[A]) ValueOrElse(v A) A { //nolint:ireturn
	if r.present && r.err == nil {
		return r.value
	}

	if r.err != nil {
		slog.Warn("error reading environment variable, using fallback value",
			"key", r.key, "error", r.err, "fallback", v)
	}

	return v
}

// DoWithValue calls f with the value when it is present and valid.
func (r Reader[A]) DoWithValue(f func(A)) {
	if r.present && r.err == nil {
		f(r.value)
	}
}

// HasValue reports whether the variable is set and valid.
func (r Reader[A]) HasValue() bool {
	return r.present && r.err == nil
}

// Error returns the parse error, if any.
func (r Reader[A]) Error() error {
	return r.err
}

func (r Reader[A]) String() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("%s=<error: %v>", r.key, r.err)
	case r.present:
		return fmt.Sprintf("%s=%v", r.key, r.value)
	default:
		return r.key + "=<not set>"
	}
}

// WithDefault fills in v when the variable is not set.
func (r Reader[A]) WithDefault(v A) Reader[A] { //nolint:ireturn
	if r.present {
		return r
	}

	return Reader[A]{key: r.key, present: true, err: r.err, value: v}
}

// Map transforms the value, keeping the element type.
func (r Reader[A]) Map(f func(A) (A, error)) Reader[A] { //nolint:ireturn
	return Map(r, f)
}

// Map transforms a reader's value. Missing values and earlier errors pass through.
func Map[A any, B any](r Reader[A], f func(A) (B, error)) Reader[B] {
	if !r.present || r.err != nil {
		return Reader[B]{key: r.key, present: r.present, err: r.err}
	}

	val, err := f(r.value)

	return Reader[B]{key: r.key, present: true, err: err, value: val}
}

// Option modifies a Reader. Readers apply options in order.
type Option[T any] func(Reader[T]) Reader[T]

// Default provides a value for an unset variable.
func Default[T any](dfl T) Option[T] {
	return func(r Reader[T]) Reader[T] {
		return r.WithDefault(dfl)
	}
}

// Validate runs f on the value; its error becomes the reader's error.
func Validate[T any](f func(T) error) Option[T] {
	return func(r Reader[T]) Reader[T] {
		return r.Map(func(val T) (T, error) {
			return val, f(val)
		})
	}
}

func apply[T any](r Reader[T], opts []Option[T]) Reader[T] {
	for _, opt := range opts {
		r = opt(r)
	}

	return r
}
