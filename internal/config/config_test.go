package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ELEMENTAL_DB", "")
	t.Setenv("ELEMENTAL_REDIS_ADDR", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cfg.DBPath, filepath.Join(".elemental", "elemental.db")))
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.PersistDebounce)
	assert.Equal(t, 3, cfg.PersistMaxRetries)
	assert.False(t, cfg.LLM.Enabled)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ELEMENTAL_DB", ":memory:")
	t.Setenv("ELEMENTAL_REDIS_ADDR", "localhost:6379")
	t.Setenv("ELEMENTAL_REDIS_TTL_SEC", "30")
	t.Setenv("ELEMENTAL_PERSIST_DEBOUNCE_MS", "0")
	t.Setenv("ELEMENTAL_PERSIST_MAX_RETRIES", "bogus")
	t.Setenv("ELEMENTAL_LOG_USE_CASES", "true")
	t.Setenv("ELEMENTAL_LLM_ENABLED", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.RedisTTL)
	assert.Equal(t, time.Duration(0), cfg.PersistDebounce)
	assert.Equal(t, 3, cfg.PersistMaxRetries, "malformed value keeps default")
	assert.True(t, cfg.LogUseCases)
	assert.True(t, cfg.LLM.Enabled)

	p := cfg.Persist()
	assert.Equal(t, time.Duration(0), p.Debounce)
	assert.Equal(t, 3, p.MaxRetries)
}

func TestRegisterFlags_OverrideEnv(t *testing.T) {
	t.Setenv("ELEMENTAL_DB", "/tmp/from-env.db")
	cfg, err := Load()
	require.NoError(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--db", ":memory:", "--persist-debounce", "1s", "--llm"}))

	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, time.Second, cfg.PersistDebounce)
	assert.True(t, cfg.LLM.Enabled)

	unset := Default()
	unset.DBPath = "/tmp/from-env.db"
	fs = pflag.NewFlagSet("test", pflag.ContinueOnError)
	unset.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, "/tmp/from-env.db", unset.DBPath)
}
