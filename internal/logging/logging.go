// Package logging provides levelled, component-scoped logging.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Fields are key=value pairs appended to a log line.
type Fields map[string]interface{}

// Logger writes human-readable log lines.
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	runID     string
	now       func() time.Time
}

// New creates a Logger writing to stderr at INFO level.
func New() *Logger {
	return &Logger{
		mu:       &sync.Mutex{},
		output:   os.Stderr,
		minLevel: LevelInfo,
		now:      time.Now,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	l := New()
	l.output = io.Discard
	l.minLevel = LevelError
	return l
}

// ParseLevel normalizes a user-provided level string.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	lvl := Level(strings.ToUpper(strings.TrimSpace(s)))
	if lvl == "WARNING" {
		return LevelWarn
	}
	if _, ok := levelPriority[lvl]; ok {
		return lvl
	}
	return LevelInfo
}

// WithComponent returns a child logger tagged with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	c := l.clone()
	c.component = component
	return c
}

// WithRunID returns a child logger tagged with a workflow run ID.
func (l *Logger) WithRunID(runID string) *Logger {
	c := l.clone()
	c.runID = runID
	return c
}

func (l *Logger) clone() *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		runID:     l.runID,
		now:       l.now,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return levelPriority[level] >= levelPriority[l.minLevel]
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats fields as key=value pairs sorted by key.
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a line in the format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...Fields) {
	if !l.Enabled(level) {
		return
	}

	timestamp := l.now().UTC().Format("2006-01-02T15:04:05.000Z")

	merged := Fields{}
	if l.runID != "" {
		merged["run_id"] = l.runID
	}
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	fieldStr := formatFields(merged)

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// StageComplete logs the outcome of one reconciliation stage.
func (l *Logger) StageComplete(stage string, records int, duration time.Duration) {
	l.Debug("stage_complete", Fields{
		"stage":    stage,
		"records":  records,
		"duration": duration.String(),
	})
}

// LoadComplete logs a finished run-log load.
func (l *Logger) LoadComplete(path, format string, records int) {
	l.Info("load_complete", Fields{
		"path":    path,
		"format":  format,
		"records": records,
	})
}
