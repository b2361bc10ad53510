package llm

import (
	"os"
	"strconv"
	"strings"
)

// TaskType identifies the kind of generation call being performed.
type TaskType string

const (
	TaskStructure TaskType = "structure"
	TaskExpansion TaskType = "expansion"
	TaskVisual    TaskType = "visual"
)

// TaskConfig holds per-task model parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the model subsystem.
type LLMConfig struct {
	LogCalls          bool
	Endpoint          string
	APIKey            string
	Model             string
	ImageModel        string
	ImageSize         string
	TimeoutMs         int
	MaxRetries        int
	RequestsPerSecond float64 // <= 0 disables pacing
	Burst             int
	Tasks             map[TaskType]TaskConfig
}

const defaultEndpoint = "https://api.openai.com/v1"

// DefaultConfig returns an LLMConfig with sensible defaults.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		LogCalls:          false,
		Endpoint:          defaultEndpoint,
		Model:             "gpt-4o-mini",
		ImageModel:        "gpt-image-1",
		ImageSize:         "1536x1024",
		TimeoutMs:         30000,
		MaxRetries:        1,
		RequestsPerSecond: 1,
		Burst:             1,
		Tasks: map[TaskType]TaskConfig{
			TaskStructure: {Temperature: 0.4, MaxTokens: 4096, TimeoutMs: 60000},
			TaskExpansion: {Temperature: 0.5, MaxTokens: 2048, TimeoutMs: 45000},
			TaskVisual:    {TimeoutMs: 120000},
		},
	}
}

// LoadConfig reads configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("BANANADECK_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("BANANADECK_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = strings.TrimSuffix(v, "/")
	}
	cfg.APIKey = os.Getenv("BANANADECK_LLM_API_KEY")
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if v := os.Getenv("BANANADECK_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("BANANADECK_LLM_IMAGE_MODEL"); v != "" {
		cfg.ImageModel = v
	}
	if v := os.Getenv("BANANADECK_LLM_IMAGE_SIZE"); v != "" {
		cfg.ImageSize = v
	}
	if v := os.Getenv("BANANADECK_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("BANANADECK_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("BANANADECK_LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RequestsPerSecond = f
		}
	}
	if v := os.Getenv("BANANADECK_LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Burst = n
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskStructure, "BANANADECK_LLM_STRUCTURE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskExpansion, "BANANADECK_LLM_EXPANSION_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskVisual, "BANANADECK_LLM_VISUAL_TIMEOUT_MS")

	return cfg
}

// Validate reports configuration that cannot produce a working client.
// Self-hosted OpenAI-compatible endpoints may run without a key.
func (c LLMConfig) Validate() error {
	if c.APIKey == "" && c.Endpoint == defaultEndpoint {
		return ErrMissingAPIKey
	}
	return nil
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
