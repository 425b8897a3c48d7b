// Package config reads ELEMENTAL_* environment variables and lets cobra
// flags override them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/elementalai/elemental/internal/llm"
	"github.com/elementalai/elemental/internal/persist"
)

// Config is the resolved runtime configuration.
type Config struct {
	DBPath            string
	RedisAddr         string
	RedisTTL          time.Duration
	PersistDebounce   time.Duration
	PersistMaxRetries int
	LogUseCases       bool
	LLM               llm.LLMConfig
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	p := persist.DefaultConfig()
	return Config{
		RedisTTL:          10 * time.Minute,
		PersistDebounce:   p.Debounce,
		PersistMaxRetries: p.MaxRetries,
		LLM:               llm.DefaultConfig(),
	}
}

// Load resolves the configuration from the environment. The database path
// defaults to ~/.elemental/elemental.db.
func Load() (Config, error) {
	cfg := Default()
	cfg.LLM = llm.LoadConfig()

	cfg.DBPath = os.Getenv("ELEMENTAL_DB")
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".elemental", "elemental.db")
	}
	cfg.RedisAddr = os.Getenv("ELEMENTAL_REDIS_ADDR")

	if n, ok := envInt("ELEMENTAL_REDIS_TTL_SEC"); ok && n >= 0 {
		cfg.RedisTTL = time.Duration(n) * time.Second
	}
	if n, ok := envInt("ELEMENTAL_PERSIST_DEBOUNCE_MS"); ok && n >= 0 {
		cfg.PersistDebounce = time.Duration(n) * time.Millisecond
	}
	if n, ok := envInt("ELEMENTAL_PERSIST_MAX_RETRIES"); ok && n >= 0 {
		cfg.PersistMaxRetries = n
	}
	if v := os.Getenv("ELEMENTAL_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
	return cfg, nil
}

// RegisterFlags adds persistent flags whose defaults are the current values,
// so an explicit flag wins over the environment.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database path (ELEMENTAL_DB)")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address for the board cache; empty disables it (ELEMENTAL_REDIS_ADDR)")
	fs.DurationVar(&c.RedisTTL, "redis-ttl", c.RedisTTL, "board cache TTL")
	fs.DurationVar(&c.PersistDebounce, "persist-debounce", c.PersistDebounce, "quiet period before a board is saved")
	fs.IntVar(&c.PersistMaxRetries, "persist-retries", c.PersistMaxRetries, "save retries before giving up")
	fs.BoolVar(&c.LogUseCases, "log-use-cases", c.LogUseCases, "log one line per use case to stderr")
	fs.BoolVar(&c.LLM.Enabled, "llm", c.LLM.Enabled, "use the Ollama model to deconstruct ideas (ELEMENTAL_LLM_ENABLED)")
	fs.StringVar(&c.LLM.Model, "llm-model", c.LLM.Model, "Ollama model name")
}

// Persist returns the dispatcher settings.
func (c Config) Persist() persist.Config {
	p := persist.DefaultConfig()
	p.Debounce = c.PersistDebounce
	p.MaxRetries = c.PersistMaxRetries
	return p
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
