package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/runtrace/internal/config"
	"github.com/vinayprograms/runtrace/internal/logging"
	"github.com/vinayprograms/runtrace/internal/runlog"
	"github.com/vinayprograms/runtrace/internal/telemetry"
	"github.com/vinayprograms/runtrace/internal/trace"
)

// app carries the per-invocation state bound into every command's Run.
type app struct {
	ctx         context.Context
	cfg         *config.Config
	log         *logging.Logger
	tracer      oteltrace.Tracer
	provider    *telemetry.Provider
	runID       string
	locale      string
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
}

// newApp loads config and sets up logging and telemetry for one invocation.
func newApp(cli *CLI, stdout, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}

	runID := uuid.NewString()
	logger := logging.New().WithRunID(runID)
	logger.SetOutput(stderr)
	logger.SetLevel(logging.ParseLevel(level))

	ctx := context.Background()
	provider, err := telemetry.Setup(ctx, cfg.Telemetry, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}

	return &app{
		ctx:      ctx,
		cfg:      cfg,
		log:      logger,
		tracer:   provider.Tracer,
		provider: provider,
		runID:    runID,
		locale:   cli.Locale,
		stdout:   stdout,
		stderr:   stderr,
	}, nil
}

// close flushes telemetry.
func (a *app) close() {
	if a.provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.log.Warn("telemetry_shutdown_failed", logging.Fields{"error": err.Error()})
	}
}

// load reads the run log selected by in.
func (a *app) load(ctx context.Context, in InputFlags) ([]*trace.Record, error) {
	_, span := a.startLoadSpan(ctx, in.File)

	format, err := resolveFormat(in)
	if err != nil {
		a.endLoadSpan(span, 0, err)
		return nil, err
	}

	f, err := os.Open(in.File)
	if err != nil {
		err = fmt.Errorf("failed to read run log: %w", err)
		a.endLoadSpan(span, 0, err)
		return nil, err
	}
	defer f.Close()

	records, err := runlog.Decode(f, format, runlog.WithMaxErrorSize(a.cfg.Render.MaxErrorSize))
	if err != nil {
		err = fmt.Errorf("failed to load %s: %w", in.File, err)
		a.endLoadSpan(span, 0, err)
		return nil, err
	}
	a.endLoadSpan(span, len(records), nil)
	a.log.LoadComplete(in.File, string(format), len(records))
	return records, nil
}

// reconcile loads the run log and builds the display tree.
func (a *app) reconcile(ctx context.Context, in InputFlags) ([]*trace.Record, error) {
	records, err := a.load(ctx, in)
	if err != nil {
		return nil, err
	}

	_, span := a.startReconcileSpan(ctx, len(records))
	tree := trace.Reconcile(records,
		a.cfg.LabelProvider(a.locale),
		trace.WithLogger(a.log.WithComponent("trace")),
	)
	a.endReconcileSpan(span, len(tree))
	return tree, nil
}

func resolveFormat(in InputFlags) (runlog.Format, error) {
	if in.Format == "" || in.Format == "auto" {
		return runlog.DetectFormat(in.File)
	}
	return runlog.ParseFormat(in.Format)
}
