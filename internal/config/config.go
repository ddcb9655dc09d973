// Package config loads tool configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration shared by the command line tools.
type Config struct {
	Logging  LoggingConfig
	Subgraph SubgraphConfig
	Model    ModelConfig
	Storage  StorageConfig

	OutputDir   string
	MetricsAddr string // empty disables the /metrics listener
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string
	Development bool
}

// SubgraphConfig holds subgraph client configuration.
type SubgraphConfig struct {
	Network    string
	Endpoints  map[string]string // network -> endpoint overrides
	Timeout    time.Duration
	PageSize   int
	PageDelay  time.Duration
	MaxRetries int
	CacheTTL   time.Duration // order info cache
}

// ModelConfig holds model file parsing configuration.
type ModelConfig struct {
	OutputSkipRows int // header rows before the model output table
	InputSkipRows  int
}

// StorageConfig holds database connection strings. Empty disables a backend.
type StorageConfig struct {
	PostgresDSN      string
	PostgresMaxConns int // 0 keeps the driver default
	ClickhouseDSN    string
}

const subgraphURLPrefix = "SUBGRAPH_URL_"

// Load reads a .env file from the working directory or its parent, when
// present, and then the process environment. Malformed values are errors.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var p parser

	cfg := &Config{
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: p.bool("LOG_DEV", false),
		},
		Subgraph: SubgraphConfig{
			Network:    strings.ToLower(getEnv("NETWORK", "flare")),
			Endpoints:  subgraphOverrides(),
			Timeout:    p.duration("SUBGRAPH_TIMEOUT", 60*time.Second),
			PageSize:   p.int("SUBGRAPH_PAGE_SIZE", 100),
			PageDelay:  p.duration("SUBGRAPH_PAGE_DELAY", 500*time.Millisecond),
			MaxRetries: p.int("SUBGRAPH_MAX_RETRIES", 3),
			CacheTTL:   p.duration("ORDER_CACHE_TTL", 10*time.Minute),
		},
		Model: ModelConfig{
			OutputSkipRows: p.int("MODEL_OUTPUT_SKIP_ROWS", 22),
			InputSkipRows:  p.int("MODEL_INPUT_SKIP_ROWS", 0),
		},
		Storage: StorageConfig{
			PostgresDSN:      getEnv("POSTGRES_DSN", ""),
			PostgresMaxConns: p.int("POSTGRES_MAX_CONNS", 0),
			ClickhouseDSN:    getEnv("CLICKHOUSE_DSN", ""),
		},
		OutputDir:   getEnv("OUTPUT_DIR", "out"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	if err := p.err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Subgraph.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("SUBGRAPH_PAGE_SIZE must be positive, got %d", c.Subgraph.PageSize))
	}
	if c.Subgraph.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SUBGRAPH_MAX_RETRIES must not be negative, got %d", c.Subgraph.MaxRetries))
	}
	if c.Subgraph.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("SUBGRAPH_TIMEOUT must be positive, got %s", c.Subgraph.Timeout))
	}
	if c.Subgraph.PageDelay < 0 {
		errs = append(errs, fmt.Errorf("SUBGRAPH_PAGE_DELAY must not be negative, got %s", c.Subgraph.PageDelay))
	}
	if c.Model.OutputSkipRows < 0 || c.Model.InputSkipRows < 0 {
		errs = append(errs, errors.New("MODEL_*_SKIP_ROWS must not be negative"))
	}
	if c.Storage.PostgresMaxConns < 0 {
		errs = append(errs, fmt.Errorf("POSTGRES_MAX_CONNS must not be negative, got %d", c.Storage.PostgresMaxConns))
	}
	return errors.Join(errs...)
}

// subgraphOverrides collects SUBGRAPH_URL_<NETWORK> variables.
func subgraphOverrides() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, subgraphURLPrefix) || value == "" {
			continue
		}
		network := strings.ToLower(strings.TrimPrefix(key, subgraphURLPrefix))
		out[network] = value
	}
	return out
}

func getEnv(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultVal
}

// parser collects conversion errors so all malformed keys are reported at once.
type parser struct {
	errs []error
}

func (p *parser) int(key string, defaultVal int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return defaultVal
	}
	return v
}

func (p *parser) bool(key string, defaultVal bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return defaultVal
	}
	return v
}

func (p *parser) duration(key string, defaultVal time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return defaultVal
	}
	return v
}

func (p *parser) err() error {
	return errors.Join(p.errs...)
}
