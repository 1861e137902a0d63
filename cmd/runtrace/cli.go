// Package main defines the CLI structure using kong.
package main

import "github.com/alecthomas/kong"

// CLI defines the command-line interface.
type CLI struct {
	Config   string `help:"Config file path (default: RUNTRACE_CONFIG or ./runtrace.toml)" placeholder:"PATH"`
	LogLevel string `help:"Log level: debug, info, warn, error (overrides config)" placeholder:"LEVEL"`
	Locale   string `help:"Label locale, e.g. en-US, zh-Hans, ja-JP (overrides config)" placeholder:"TAG"`

	Show    ShowCmd    `cmd:"" help:"Show the reconciled execution trace"`
	JSON    JSONCmd    `cmd:"" name:"json" help:"Write the reconciled tree as JSON"`
	Stats   StatsCmd   `cmd:"" help:"Show trace statistics"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// InputFlags selects the run log to read.
type InputFlags struct {
	File   string `arg:"" help:"Run log file (json, jsonl or yaml)" type:"path"`
	Format string `enum:"auto,json,jsonl,yaml" default:"auto" help:"Run log format (${enum})"`
}

// ShowCmd renders the trace as a timeline.
type ShowCmd struct {
	InputFlags `embed:""`
	Verbose    int  `short:"v" type:"counter" help:"Verbosity level (-v, -vv)"`
	NoPager    bool `help:"Disable pager for output"`
	Follow     bool `short:"f" help:"Re-render when the file changes (pager only)"`
}

// JSONCmd writes the reconciled tree.
type JSONCmd struct {
	InputFlags `embed:""`
	Output     string `short:"o" help:"Output file (default: stdout)" placeholder:"PATH"`
}

// StatsCmd prints aggregate counts.
type StatsCmd struct {
	InputFlags `embed:""`
	Textfile   string `help:"Also write Prometheus textfile metrics to PATH" placeholder:"PATH"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
