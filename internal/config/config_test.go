package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/smt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, engine.DefaultLimits(), cfg.EngineLimits())
	assert.Equal(t, string(smt.FailOpen), cfg.Solver.Policy)
	assert.Empty(t, cfg.Solver.URL)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
limits:
  max_depth: 20
  timeout: 2s
solver:
  url: http://localhost:8000
  policy: fail_closed
cache:
  backend: none
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Limits.MaxDepth)
	assert.Equal(t, engine.DefaultMaxNodes, cfg.Limits.MaxNodes)
	assert.Equal(t, 2*time.Second, cfg.Limits.Timeout)
	assert.Equal(t, "http://localhost:8000", cfg.Solver.URL)
	assert.Equal(t, "fail_closed", cfg.Solver.Policy)
	assert.Equal(t, smt.DefaultConcurrency, cfg.Solver.Concurrency)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "limits:\n  max_dept: 3\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Line)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOrDefault("", dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("limits:\n  max_nodes: 7\n"), 0o644))
	cfg, err = LoadOrDefault("", dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Limits.MaxNodes)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
		tag   string
	}{
		{"zero depth", func(c *Config) { c.Limits.MaxDepth = 0 }, "limits.max_depth", "gt"},
		{"negative nodes", func(c *Config) { c.Limits.MaxNodes = -1 }, "limits.max_nodes", "gt"},
		{"zero timeout", func(c *Config) { c.Limits.Timeout = 0 }, "limits.timeout", "gt"},
		{"bad policy", func(c *Config) { c.Solver.Policy = "maybe" }, "solver.policy", "oneof"},
		{"bad url scheme", func(c *Config) { c.Solver.URL = "ftp://solver" }, "solver.url", "endpoint"},
		{"url without host", func(c *Config) { c.Solver.URL = "http://" }, "solver.url", "endpoint"},
		{"too much concurrency", func(c *Config) { c.Solver.Concurrency = 65 }, "solver.concurrency", "lte"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend", "oneof"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis }, "cache.addr", "required_if"},
		{"no server addr", func(c *Config) { c.Server.Addr = "" }, "server.addr", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(cfg)
			err := Validate(cfg)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.tag, ve.Tag)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeConfig(t, "solver:\n  policy: sometimes\n"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "solver.policy", ve.Field)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckerDisabledWithoutURL(t *testing.T) {
	checker, closer := Default().Checker(quietLogger())
	assert.Nil(t, checker)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())
}

func TestCheckerFromConfig(t *testing.T) {
	cfg := Default()
	cfg.Solver.URL = "http://localhost:8000"
	cfg.Solver.Policy = string(smt.FailClosed)
	cfg.Solver.Concurrency = 2

	checker, closer := cfg.Checker(quietLogger())
	defer closer.Close()
	require.NotNil(t, checker)
	assert.Equal(t, smt.FailClosed, checker.Policy())
	assert.Equal(t, 2, checker.Concurrency())
}

func TestCheckerWithRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := Default()
	cfg.Solver.URL = "http://localhost:8000"
	cfg.Cache.Backend = CacheRedis
	cfg.Cache.Addr = mr.Addr()
	require.NoError(t, Validate(cfg))

	checker, closer := cfg.Checker(quietLogger())
	require.NotNil(t, checker)
	assert.NoError(t, closer.Close())
}
