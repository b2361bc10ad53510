package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/bananadeck/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BANANADECK_DB", "")
	t.Setenv("BANANADECK_ADDR", "")
	t.Setenv("BANANADECK_LOG_LEVEL", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bananadeck.db", filepath.Base(cfg.DBPath))
	assert.Equal(t, defaultAddr, cfg.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("BANANADECK_DB", "/tmp/deck.db")
	t.Setenv("BANANADECK_ADDR", ":9000")
	t.Setenv("BANANADECK_LOG_LEVEL", "debug")
	t.Setenv("BANANADECK_LLM_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/deck.db", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
}

func TestLoad_BadLogLevel(t *testing.T) {
	t.Setenv("BANANADECK_DB", "/tmp/deck.db")
	t.Setenv("BANANADECK_LOG_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}

func writeStyleFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "styles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadStylePresets(t *testing.T) {
	path := writeStyleFile(t, `
default: midnight
presets:
  midnight:
    palette: ["#0b132b", "#1c2541", "#5bc0be"]
    font: IBM Plex Sans
  paper:
    mood: warm editorial
`)

	presets, err := LoadStylePresets(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"midnight", "paper"}, presets.Names())

	def, err := presets.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "IBM Plex Sans", def.Font)
	assert.Equal(t, domain.DefaultStyle().Mood, def.Mood)

	paper, err := presets.Resolve("paper")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStyle().Palette, paper.Palette)
	assert.Equal(t, "warm editorial", paper.Mood)

	_, err = presets.Resolve("neon")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestLoadStylePresets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "presets:\n  a:\n    colour: red\n"},
		{"bad color", "presets:\n  a:\n    palette: [\"blue\"]\n"},
		{"missing default", "default: b\npresets:\n  a:\n    font: Inter\n"},
		{"empty", "default: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadStylePresets(writeStyleFile(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestResolveStyle(t *testing.T) {
	cfg := Config{}
	s, err := cfg.ResolveStyle()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStyle(), s)

	cfg.Style = "midnight"
	_, err = cfg.ResolveStyle()
	assert.Error(t, err)

	cfg.StyleFile = writeStyleFile(t, "presets:\n  midnight:\n    font: Futura\n")
	s, err = cfg.ResolveStyle()
	require.NoError(t, err)
	assert.Equal(t, "Futura", s.Font)
}
