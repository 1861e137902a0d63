// Tracing instrumentation for CLI commands.
package main

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/runtrace/internal/telemetry"
)

// startCommandSpan starts the root span for a command invocation.
func (a *app) startCommandSpan(command, file string) (context.Context, oteltrace.Span) {
	ctx, span := a.tracer.Start(a.ctx, "runtrace."+command)
	span.SetAttributes(
		attribute.String("runtrace.command", command),
		attribute.String("runtrace.run_id", a.runID),
		attribute.String("runlog.path", file),
	)
	return ctx, span
}

// startLoadSpan starts a span for reading the run log.
func (a *app) startLoadSpan(ctx context.Context, path string) (context.Context, oteltrace.Span) {
	ctx, span := a.tracer.Start(ctx, "runtrace.load")
	span.SetAttributes(attribute.String("runlog.path", path))
	return ctx, span
}

// endLoadSpan ends the load span with the record count.
func (a *app) endLoadSpan(span oteltrace.Span, records int, err error) {
	span.SetAttributes(attribute.Int("runlog.records", records))
	telemetry.EndSpan(span, err)
}

// startReconcileSpan starts a span for the reconciliation pipeline.
func (a *app) startReconcileSpan(ctx context.Context, records int) (context.Context, oteltrace.Span) {
	ctx, span := a.tracer.Start(ctx, "runtrace.reconcile")
	span.SetAttributes(attribute.Int("trace.input_records", records))
	return ctx, span
}

// endReconcileSpan ends the reconcile span with the top-level node count.
func (a *app) endReconcileSpan(span oteltrace.Span, topLevel int) {
	span.SetAttributes(attribute.Int("trace.top_level_nodes", topLevel))
	span.End()
}

// startRenderSpan starts a span for producing output.
func (a *app) startRenderSpan(ctx context.Context, output string) (context.Context, oteltrace.Span) {
	ctx, span := a.tracer.Start(ctx, "runtrace.render")
	span.SetAttributes(attribute.String("render.output", output))
	return ctx, span
}
