// Package main is the entry point for the runtrace CLI.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env for RUNTRACE_* overrides
	_ = godotenv.Load()
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("runtrace"),
		kong.Description("Reconcile workflow run logs into a readable execution trace."),
		kong.UsageOnError(),
		kongVars(),
	)

	a, err := newApp(&cli, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
	a.interactive = isTerminal(os.Stdout)

	err = ctx.Run(a)
	a.close()
	ctx.FatalIfErrorf(err)
}

// isTerminal checks if the file is a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
