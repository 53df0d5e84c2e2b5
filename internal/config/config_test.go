package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingRequiredFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("TANDA_TEST_SESSION", "podcast")
	path := writeConfig(t, `
log_level: debug
session: ${TANDA_TEST_SESSION}
shift_step: 10
export:
  header: false
  indent: ascii
`)

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "podcast", cfg.Session)
	assert.Equal(t, 10, cfg.ShiftStep)
	assert.False(t, cfg.Export.Header)

	opts := cfg.Export.Options()
	assert.True(t, opts.ASCIIIndent)
	assert.False(t, opts.Header)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "session: lecture\n")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "lecture", cfg.Session)
	assert.Equal(t, 5, cfg.ShiftStep)
	assert.True(t, cfg.Export.Header)
	assert.Equal(t, IndentFullWidth, cfg.Export.Indent)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"step too large": "shift_step: 7200\n",
		"bad indent":     "export:\n  indent: tabs\n",
		"bad yaml":       "session: [unclosed\n",
		"bad log level":  "log_level: loud\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content), false)
			assert.Error(t, err)
		})
	}
}
