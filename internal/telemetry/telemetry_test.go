package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vinayprograms/runtrace/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{}, nil)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	_, span := p.Tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("expected noop span")
	}
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	p, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Exporter: "stdout", ServiceName: "test"}, &buf)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	_, span := p.Tracer.Start(context.Background(), "runtrace.reconcile")
	EndSpan(span, errors.New("boom"))

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "runtrace.reconcile") {
		t.Errorf("expected span in output, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("expected recorded error in output, got %q", out)
	}
}

func TestSetup_OTLP(t *testing.T) {
	cfg := config.TelemetryConfig{Enabled: true, Exporter: "otlp", Endpoint: "localhost:4318", Insecure: true}
	p, err := Setup(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("setup error: %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown error: %v", err)
	}
}

func TestSetup_UnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
	if !strings.Contains(err.Error(), "zipkin") {
		t.Errorf("expected exporter name in error, got %v", err)
	}
}
