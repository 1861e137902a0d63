// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/runtrace/internal/trace"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "runtrace.toml"

// Environment overrides.
const (
	EnvConfig = "RUNTRACE_CONFIG"
	EnvLocale = "RUNTRACE_LOCALE"
)

// DefaultLocale is used when no locale is configured or the configured one is unknown.
const DefaultLocale = "en-US"

// Config represents the runtrace configuration.
type Config struct {
	Render    RenderConfig    `toml:"render"`
	Labels    LabelsConfig    `toml:"labels"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// RenderConfig controls the text view.
type RenderConfig struct {
	Verbosity      int  `toml:"verbosity"`        // 0=normal, 1=verbose, 2=very verbose
	Pager          bool `toml:"pager"`            // Use the interactive pager on a terminal
	MaxErrorSize   int  `toml:"max_error_size"`   // Truncate record errors on load (0 = unlimited)
	MaxPayloadSize int  `toml:"max_payload_size"` // Truncate inputs/outputs in the view
}

// LabelsConfig selects and defines the parallel/branch label text.
type LabelsConfig struct {
	Locale  string                 `toml:"locale"`
	Locales map[string]LocaleLabels `toml:"locales"`
}

// LocaleLabels is the label text for one locale.
type LocaleLabels struct {
	Parallel string `toml:"parallel"`
	Branch   string `toml:"branch"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level string `toml:"level"` // debug|info|warn|error
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	Enabled     bool              `toml:"enabled"`
	Exporter    string            `toml:"exporter"`     // stdout or otlp
	Endpoint    string            `toml:"endpoint"`     // OTLP/HTTP endpoint (e.g., localhost:4318)
	Insecure    bool              `toml:"insecure"`     // Disable TLS
	Headers     map[string]string `toml:"headers"`      // Auth headers for the collector
	ServiceName string            `toml:"service_name"` // Resource service.name
}

func builtinLocales() map[string]LocaleLabels {
	return map[string]LocaleLabels{
		"en-US":   {Parallel: "Parallel", Branch: "Branch"},
		"zh-Hans": {Parallel: "并行", Branch: "分支"},
		"ja-JP":   {Parallel: "並列", Branch: "分岐"},
	}
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Render: RenderConfig{
			Pager:          true,
			MaxErrorSize:   4 * 1024,
			MaxPayloadSize: 2 * 1024,
		},
		Labels: LabelsConfig{
			Locale:  DefaultLocale,
			Locales: builtinLocales(),
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Telemetry: TelemetryConfig{
			Exporter:    "stdout",
			ServiceName: "runtrace",
		},
	}
}

// LoadFile loads configuration from a TOML file. Built-in locales stay
// available unless the file redefines them.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Labels.Locales == nil {
		cfg.Labels.Locales = make(map[string]LocaleLabels)
	}
	for tag, labels := range builtinLocales() {
		if _, ok := cfg.Labels.Locales[tag]; !ok {
			cfg.Labels.Locales[tag] = labels
		}
	}
	return cfg, nil
}

// Load resolves the config path and applies environment overrides.
// An empty path means $RUNTRACE_CONFIG, then runtrace.toml in the current
// directory; if neither exists the defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, DefaultFile)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = New()
	}

	if locale := os.Getenv(EnvLocale); locale != "" {
		cfg.Labels.Locale = locale
	}
	return cfg, nil
}

// Locale returns the label text for tag. Unknown tags fall back to the
// configured locale and then to en-US; missing keys fall back per key.
func (c *Config) Locale(tag string) LocaleLabels {
	english := builtinLocales()[DefaultLocale]
	labels, ok := c.lookup(tag)
	if !ok {
		labels, ok = c.lookup(c.Labels.Locale)
	}
	if !ok {
		return english
	}
	if labels.Parallel == "" {
		labels.Parallel = english.Parallel
	}
	if labels.Branch == "" {
		labels.Branch = english.Branch
	}
	return labels
}

// lookup matches tags case-insensitively and treats "_" like "-".
func (c *Config) lookup(tag string) (LocaleLabels, bool) {
	if tag == "" {
		return LocaleLabels{}, false
	}
	want := strings.ReplaceAll(tag, "_", "-")
	if l, ok := c.Labels.Locales[want]; ok {
		return l, true
	}
	for k, l := range c.Labels.Locales {
		if strings.EqualFold(k, want) {
			return l, true
		}
	}
	return LocaleLabels{}, false
}

// LabelProvider returns the label function for tag ("" = configured locale).
func (c *Config) LabelProvider(tag string) trace.LabelFunc {
	labels := c.Locale(tag)
	return func(key string) string {
		switch key {
		case trace.LabelParallel:
			return labels.Parallel
		case trace.LabelBranch:
			return labels.Branch
		}
		return key
	}
}
