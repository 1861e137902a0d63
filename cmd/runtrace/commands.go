package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vinayprograms/runtrace/internal/logging"
	"github.com/vinayprograms/runtrace/internal/render"
	"github.com/vinayprograms/runtrace/internal/runlog"
	"github.com/vinayprograms/runtrace/internal/telemetry"
)

// Run renders the reconciled trace, through the pager when interactive.
func (c *ShowCmd) Run(a *app) (err error) {
	ctx, span := a.startCommandSpan("show", c.File)
	defer func() { telemetry.EndSpan(span, err) }()

	verbosity := c.Verbose
	if verbosity == 0 {
		verbosity = a.cfg.Render.Verbosity
	}
	opts := []render.Option{render.WithMaxPayloadSize(a.cfg.Render.MaxPayloadSize)}

	renderFunc := func() (string, error) {
		tree, err := a.reconcile(ctx, c.InputFlags)
		if err != nil {
			return "", err
		}
		_, rspan := a.startRenderSpan(ctx, "pager")
		content, err := render.New(nil, verbosity, opts...).RenderString(tree)
		telemetry.EndSpan(rspan, err)
		return content, err
	}

	usePager := !c.NoPager && a.cfg.Render.Pager && a.interactive
	if !usePager {
		if c.Follow {
			a.log.Warn("follow_ignored", logging.Fields{"reason": "pager disabled"})
		}
		tree, err := a.reconcile(ctx, c.InputFlags)
		if err != nil {
			return err
		}
		_, rspan := a.startRenderSpan(ctx, "stdout")
		err = render.New(a.stdout, verbosity, opts...).Render(tree)
		telemetry.EndSpan(rspan, err)
		return err
	}

	title := "Trace: " + filepath.Base(c.File)
	if c.Follow {
		return render.PageLive(title+" (LIVE)", c.File, renderFunc)
	}
	content, err := renderFunc()
	if err != nil {
		return err
	}
	return render.Page(title, content)
}

// Run writes the reconciled tree as JSON.
func (c *JSONCmd) Run(a *app) (err error) {
	ctx, span := a.startCommandSpan("json", c.File)
	defer func() { telemetry.EndSpan(span, err) }()

	tree, err := a.reconcile(ctx, c.InputFlags)
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = "stdout"
	}
	_, rspan := a.startRenderSpan(ctx, output)
	if c.Output == "" {
		err = runlog.Write(a.stdout, tree)
	} else {
		err = runlog.WriteFile(c.Output, tree)
	}
	telemetry.EndSpan(rspan, err)
	if err != nil {
		return fmt.Errorf("failed to write tree: %w", err)
	}
	if c.Output != "" {
		a.log.Info("tree_written", logging.Fields{"path": c.Output, "records": len(tree)})
	}
	return nil
}

// Run prints aggregate counts and optionally exports them as metrics.
func (c *StatsCmd) Run(a *app) (err error) {
	ctx, span := a.startCommandSpan("stats", c.File)
	defer func() { telemetry.EndSpan(span, err) }()

	tree, err := a.reconcile(ctx, c.InputFlags)
	if err != nil {
		return err
	}

	stats := render.ComputeStats(tree)
	render.PrintStats(a.stdout, stats)

	if c.Textfile != "" {
		_, rspan := a.startRenderSpan(ctx, c.Textfile)
		err = render.WriteTextfile(c.Textfile, stats)
		telemetry.EndSpan(rspan, err)
		if err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		a.log.Info("textfile_written", logging.Fields{"path": c.Textfile})
	}
	return nil
}

// Run prints build information.
func (c *VersionCmd) Run(a *app) error {
	fmt.Fprintln(a.stdout, versionString())
	return nil
}

func versionString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "runtrace %s", version)
	if commit != "unknown" {
		fmt.Fprintf(&b, " (commit: %s)", commit)
	}
	if buildTime != "unknown" {
		fmt.Fprintf(&b, " built %s", buildTime)
	}
	return b.String()
}
