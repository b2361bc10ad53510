// Package config assembles process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/bananadeck/internal/llm"
)

const defaultAddr = "127.0.0.1:8080"

type Config struct {
	DBPath    string
	Addr      string
	StyleFile string
	Style     string // preset name; empty selects the file's default
	LogLevel  slog.Level
	LLM       llm.LLMConfig
}

// Load reads BANANADECK_* variables, falling back to defaults for any unset
// value. The database defaults to ~/.bananadeck/bananadeck.db.
func Load() (Config, error) {
	cfg := Config{
		DBPath:    os.Getenv("BANANADECK_DB"),
		Addr:      os.Getenv("BANANADECK_ADDR"),
		StyleFile: os.Getenv("BANANADECK_STYLE_FILE"),
		Style:     os.Getenv("BANANADECK_STYLE"),
		LogLevel:  slog.LevelInfo,
		LLM:       llm.LoadConfig(),
	}
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".bananadeck", "bananadeck.db")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if v := os.Getenv("BANANADECK_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return Config{}, fmt.Errorf("BANANADECK_LOG_LEVEL: %w", err)
		}
	}
	return cfg, nil
}

// NewLogger returns a text logger at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
