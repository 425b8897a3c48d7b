package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of model call being made.
type TaskType string

const (
	// TaskDeconstruct turns a business idea into candidate strategy names.
	TaskDeconstruct TaskType = "deconstruct"
	// TaskDescribe drafts a one-paragraph hypothesis for a strategy.
	TaskDescribe TaskType = "describe"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
}

// LLMConfig holds all configuration for the model client.
type LLMConfig struct {
	Enabled       bool
	LogCalls      bool
	Endpoint      string
	Model         string
	TimeoutMs     int
	MaxRetries    int
	MaxCandidates int
	Tasks         map[TaskType]TaskConfig
}

// DefaultConfig returns an LLMConfig with the model disabled.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:       false,
		LogCalls:      false,
		Endpoint:      "http://localhost:11434",
		Model:         "llama3.2",
		TimeoutMs:     10000,
		MaxRetries:    1,
		MaxCandidates: 8,
		Tasks: map[TaskType]TaskConfig{
			TaskDeconstruct: {Temperature: 0.4, MaxTokens: 1024, TimeoutMs: 20000},
			TaskDescribe:    {Temperature: 0.3, MaxTokens: 512, TimeoutMs: 8000},
		},
	}
}

// LoadConfig reads ELEMENTAL_LLM_* variables over the defaults. Malformed
// values are ignored.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()

	if v := os.Getenv("ELEMENTAL_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ELEMENTAL_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ELEMENTAL_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("ELEMENTAL_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if n, ok := envInt("ELEMENTAL_LLM_TIMEOUT_MS"); ok && n > 0 {
		cfg.TimeoutMs = n
	}
	if n, ok := envInt("ELEMENTAL_LLM_MAX_RETRIES"); ok && n >= 0 {
		cfg.MaxRetries = n
	}
	if n, ok := envInt("ELEMENTAL_LLM_MAX_CANDIDATES"); ok && n > 0 {
		cfg.MaxCandidates = n
	}
	if n, ok := envInt("ELEMENTAL_LLM_DECONSTRUCT_TIMEOUT_MS"); ok && n > 0 {
		tc := cfg.Tasks[TaskDeconstruct]
		tc.TimeoutMs = n
		cfg.Tasks[TaskDeconstruct] = tc
	}

	return cfg
}

// TaskTimeout returns the task-specific timeout, or the global one.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
