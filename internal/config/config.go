// Package config loads efsmcheck.yaml: exploration limits, the SMT
// collaborator endpoint and fallback policy, the verdict cache, the run
// history database, and the HTTP listener.
//
// Values missing from the file keep their defaults. Command-line flags
// override the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/smt"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "efsmcheck.yaml"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the root of efsmcheck.yaml.
type Config struct {
	Limits LimitsConfig `yaml:"limits"`
	Solver SolverConfig `yaml:"solver"`
	Cache  CacheConfig  `yaml:"cache"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
}

// LimitsConfig bounds configuration exploration.
type LimitsConfig struct {
	MaxDepth int           `yaml:"max_depth" validate:"gt=0"`
	MaxNodes int           `yaml:"max_nodes" validate:"gt=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

// SolverConfig locates the SMT collaborator. An empty URL disables it and
// the structural checks fall back to their local approximations.
type SolverConfig struct {
	URL         string        `yaml:"url" validate:"endpoint"`
	Policy      string        `yaml:"policy" validate:"oneof=fail_open fail_closed"`
	Concurrency int           `yaml:"concurrency" validate:"gt=0,lte=64"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// CacheConfig selects where collaborator verdicts are cached.
type CacheConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=none memory redis"`
	Addr     string        `yaml:"addr" validate:"required_if=Backend redis"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
	Prefix   string        `yaml:"prefix"`
}

// StoreConfig locates the run history database. An empty path disables
// history.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures `efsmcheck serve`.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			MaxDepth: engine.DefaultMaxDepth,
			MaxNodes: engine.DefaultMaxNodes,
			Timeout:  engine.DefaultTimeout,
		},
		Solver: SolverConfig{
			Policy:      string(smt.DefaultPolicy),
			Concurrency: smt.DefaultConcurrency,
			Timeout:     smt.DefaultHTTPTimeout,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     24 * time.Hour,
			Prefix:  smt.DefaultRedisPrefix,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: time.Minute,
		},
	}
}

// ParseError reports a configuration file that could not be read or
// decoded.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Line: extractLine(err), Err: err}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when given. Otherwise it loads DefaultFileName
// from dir if that file exists, and falls back to the defaults.
func LoadOrDefault(path, dir string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	candidate := DefaultFileName
	if dir != "" {
		candidate = dir + string(os.PathSeparator) + DefaultFileName
	}
	if _, err := os.Stat(candidate); err != nil {
		return Default(), nil
	}
	return Load(candidate)
}

func extractLine(err error) int {
	m := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0
	}
	line, _ := strconv.Atoi(m[1])
	return line
}

// EngineLimits converts the limits section for the explorer.
func (c *Config) EngineLimits() engine.Limits {
	return engine.Limits{
		MaxDepth: c.Limits.MaxDepth,
		MaxNodes: c.Limits.MaxNodes,
		Timeout:  c.Limits.Timeout,
	}
}
