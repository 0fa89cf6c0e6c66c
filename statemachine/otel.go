package statemachine

import (
	"context"
	"log/slog"

	"github.com/amp-labs/lottie-interactivity/trigger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startSessionSpan creates the root span for Start.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func (m *Manager) startSessionSpan(ctx context.Context, machine string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.start")
	span.SetAttributes(attribute.String("machine", machine))
	m.logSpanDebug(ctx, "started", "statemachine.start", span)

	return ctx, span
}

// startTransitionSpan creates a span for one event-driven transition.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func (m *Manager) startTransitionSpan(
	ctx context.Context,
	sess *Session,
	from, to string,
	trig trigger.Trigger,
) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "statemachine.transition")
	span.SetAttributes(
		attribute.String("machine", sess.Machine.ID),
		attribute.String("session_id", sess.ID),
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("trigger", trig.String()),
	)
	m.logSpanDebug(ctx, "started", "statemachine.transition", span)

	return ctx, span
}

// startEntrySpan creates a child span for a state's entry command.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func (m *Manager) startEntrySpan(ctx context.Context, sess *Session, state string) (context.Context, trace.Span) {
	spanName := "state." + state + ".entry"
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("machine", sess.Machine.ID),
		attribute.String("session_id", sess.ID),
		attribute.String("state", state),
	)
	m.logSpanDebug(ctx, "started", spanName, span)

	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}

// logSpanDebug logs span creation when span debugging is enabled.
func (m *Manager) logSpanDebug(ctx context.Context, phase string, spanName string, span trace.Span) {
	if !m.spanDebug {
		return
	}

	spanCtx := span.SpanContext()
	slog.InfoContext(ctx, "OTEL Span "+phase,
		"span_name", spanName,
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	)
}
