package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinayprograms/runtrace/internal/trace"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtrace.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()
	assert.True(t, cfg.Render.Pager)
	assert.Equal(t, 4096, cfg.Render.MaxErrorSize)
	assert.Equal(t, DefaultLocale, cfg.Labels.Locale)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Contains(t, cfg.Labels.Locales, "zh-Hans")
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[render]
verbosity = 2
pager = false

[labels]
locale = "fr-FR"

[labels.locales.fr-FR]
parallel = "Parallèle"
branch = "Branche"

[logging]
level = "debug"

[telemetry]
enabled = true
exporter = "otlp"
endpoint = "localhost:4318"
insecure = true
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Render.Verbosity)
	assert.False(t, cfg.Render.Pager)
	assert.Equal(t, 2048, cfg.Render.MaxPayloadSize, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "otlp", cfg.Telemetry.Exporter)
	assert.True(t, cfg.Telemetry.Insecure)
	assert.Equal(t, "Parallèle", cfg.Locale("").Parallel)
	assert.Equal(t, "Parallel", cfg.Locale("en-US").Parallel, "built-in locales survive")
}

func TestLoadFile_Invalid(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "[render\n"))
	assert.Error(t, err)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvLocale, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"error\"\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvLocale, "ja-JP")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "ja-JP", cfg.Labels.Locale)
	assert.Equal(t, "並列", cfg.LabelProvider("")(trace.LabelParallel))
}

func TestLocale_Fallbacks(t *testing.T) {
	cfg := New()
	cfg.Labels.Locales["de-DE"] = LocaleLabels{Parallel: "Parallel"}

	assert.Equal(t, "分支", cfg.Locale("zh_hans").Branch)
	assert.Equal(t, "Branch", cfg.Locale("de-DE").Branch, "missing key falls back to English")
	assert.Equal(t, "Parallel", cfg.Locale("xx-XX").Parallel)

	cfg.Labels.Locale = "ja-JP"
	assert.Equal(t, "分岐", cfg.Locale("xx-XX").Branch, "unknown tag uses configured locale")
}

func TestLabelProvider(t *testing.T) {
	labels := New().LabelProvider("en-US")
	assert.Equal(t, "Parallel", labels(trace.LabelParallel))
	assert.Equal(t, "Branch", labels(trace.LabelBranch))
	assert.Equal(t, "other", labels("other"))
}
