package statemachine

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/lottie-interactivity/logger"
	"github.com/amp-labs/lottie-interactivity/trigger"
)

// Logger provides logging hooks for state machine execution.
type Logger interface {
	StateEntered(ctx context.Context, machine, state, mode string)
	StateExited(ctx context.Context, machine, state string, duration time.Duration, err error)
	TransitionExecuted(ctx context.Context, machine, from, to string, trig trigger.Trigger)
	ListenersArmed(ctx context.Context, machine, state string, triggers []trigger.Trigger)
	SessionStopped(ctx context.Context, machine, state string, err error)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger that resolves its slog.Logger from the
// context on every call, so machine and session fields are attached.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// NewSlogLogger creates a logger that always writes to l.
func NewSlogLogger(l *slog.Logger) *DefaultLogger {
	return &DefaultLogger{logger: l}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	if l.logger != nil {
		return l.logger
	}

	return logger.Get(ctx)
}

func (l *DefaultLogger) StateEntered(ctx context.Context, machine, state, mode string) {
	l.get(ctx).DebugContext(ctx, "State entered",
		"machine", machine,
		"state", state,
		"mode", mode,
	)
}

func (l *DefaultLogger) StateExited(ctx context.Context, machine, state string, duration time.Duration, err error) {
	fields := []any{
		"machine", machine,
		"state", state,
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "State exited with error", append(fields, "error", err)...)
	} else {
		l.get(ctx).DebugContext(ctx, "State exited", fields...)
	}
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, machine, from, to string, trig trigger.Trigger) {
	l.get(ctx).InfoContext(ctx, "Transition executed",
		"machine", machine,
		"from", from,
		"to", to,
		"trigger", trig.String(),
	)
}

func (l *DefaultLogger) ListenersArmed(ctx context.Context, machine, state string, triggers []trigger.Trigger) {
	names := make([]string, len(triggers))
	for i, t := range triggers {
		names[i] = t.String()
	}

	l.get(ctx).DebugContext(ctx, "Listeners armed",
		"machine", machine,
		"state", state,
		"triggers", names,
	)
}

func (l *DefaultLogger) SessionStopped(ctx context.Context, machine, state string, err error) {
	if err != nil {
		l.get(ctx).ErrorContext(ctx, "Session stopped with error",
			"machine", machine,
			"state", state,
			"error", err,
		)

		return
	}

	l.get(ctx).InfoContext(ctx, "Session stopped",
		"machine", machine,
		"state", state,
	)
}
