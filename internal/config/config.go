// Package config loads pinbatch settings from ~/.pinbatch/config.yaml and
// PINBATCH_* environment variables.
//
// Precedence, lowest to highest: built-in defaults, the YAML file, environment
// variables, then CLI flags (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/pinbatch/internal/engine/batch"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigPath        = "PINBATCH_CONFIG"
	EnvBatchSize         = "PINBATCH_BATCH_SIZE"
	EnvConcurrency       = "PINBATCH_CONCURRENCY"
	EnvRetryAttempts     = "PINBATCH_RETRY_ATTEMPTS"
	EnvRetryDelay        = "PINBATCH_RETRY_DELAY"
	EnvBackoffMultiplier = "PINBATCH_BACKOFF_MULTIPLIER"
	EnvMaxRetryDelay     = "PINBATCH_MAX_RETRY_DELAY"
	EnvDedup             = "PINBATCH_DEDUP"
	EnvLogLevel          = "PINBATCH_LOG_LEVEL"
	EnvLogFormat         = "PINBATCH_LOG_FORMAT"
	EnvLogFile           = "PINBATCH_LOG_FILE"
	EnvOutputFormat      = "PINBATCH_OUTPUT"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// LookupEnv matches os.LookupEnv and is injected for tests.
type LookupEnv func(key string) (string, bool)

// Config is the complete pinbatch configuration.
//
// Example:
//
//	batch:
//	  max_batch_size: 20
//	  max_concurrency: 4
//	  retry_attempts: 3
//	  retry_delay: 500ms
//	  enable_optimization: true
//	logging:
//	  level: debug
//	  format: console
//	output:
//	  format: json
type Config struct {
	Batch   BatchConfig   `yaml:"batch"   json:"batch"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Output  OutputConfig  `yaml:"output"  json:"output"`
}

// BatchConfig mirrors batch.Options in YAML form.
type BatchConfig struct {
	MaxBatchSize       int           `yaml:"max_batch_size"               json:"max_batch_size"`
	MaxConcurrency     int           `yaml:"max_concurrency"              json:"max_concurrency"`
	RetryAttempts      int           `yaml:"retry_attempts"               json:"retry_attempts"`
	RetryDelay         time.Duration `yaml:"retry_delay"                  json:"retry_delay"`
	BackoffMultiplier  float64       `yaml:"backoff_multiplier,omitempty" json:"backoff_multiplier,omitempty"`
	MaxRetryDelay      time.Duration `yaml:"max_retry_delay,omitempty"    json:"max_retry_delay,omitempty"`
	EnableOptimization bool          `yaml:"enable_optimization"          json:"enable_optimization"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Batch: BatchConfig{
			MaxBatchSize:       batch.DefaultBatchSize,
			MaxConcurrency:     batch.DefaultConcurrency,
			RetryAttempts:      batch.DefaultRetryAttempts,
			RetryDelay:         batch.DefaultRetryDelay,
			EnableOptimization: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			Format: OutputTable,
		},
	}
}

// DefaultPath returns ~/.pinbatch/config.yaml, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pinbatch", "config.yaml")
}

// Load builds the configuration from defaults, the file at path and the environment.
// An empty path falls back to PINBATCH_CONFIG, then DefaultPath; a missing
// default file is not an error, a missing explicit file is.
func Load(path string, lookup LookupEnv) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if envPath, ok := lookup(EnvConfigPath); ok && envPath != "" {
			path = envPath
			explicit = true
		} else {
			path = DefaultPath()
		}
	}

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file at path over the current values.
// Unknown keys are rejected so typos do not go unnoticed.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err = dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides values from PINBATCH_* variables.
func (c *Config) ApplyEnv(lookup LookupEnv) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	ints := map[string]*int{
		EnvBatchSize:     &c.Batch.MaxBatchSize,
		EnvConcurrency:   &c.Batch.MaxConcurrency,
		EnvRetryAttempts: &c.Batch.RetryAttempts,
	}
	for key, target := range ints {
		if raw, ok := lookup(key); ok && raw != "" {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, key, raw)
			}
			*target = v
		}
	}

	durations := map[string]*time.Duration{
		EnvRetryDelay:    &c.Batch.RetryDelay,
		EnvMaxRetryDelay: &c.Batch.MaxRetryDelay,
	}
	for key, target := range durations {
		if raw, ok := lookup(key); ok && raw != "" {
			v, err := time.ParseDuration(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("%w: %s=%q is not a duration", ErrInvalidConfig, key, raw)
			}
			*target = v
		}
	}

	if raw, ok := lookup(EnvBackoffMultiplier); ok && raw != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, EnvBackoffMultiplier, raw)
		}
		c.Batch.BackoffMultiplier = v
	}

	if raw, ok := lookup(EnvDedup); ok && raw != "" {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvDedup, raw)
		}
		c.Batch.EnableOptimization = v
	}

	strs := map[string]*string{
		EnvLogLevel:     &c.Logging.Level,
		EnvLogFormat:    &c.Logging.Format,
		EnvLogFile:      &c.Logging.File,
		EnvOutputFormat: &c.Output.Format,
	}
	for key, target := range strs {
		if raw, ok := lookup(key); ok && raw != "" {
			*target = strings.TrimSpace(raw)
		}
	}

	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Batch.ToOptions().Validate(); err != nil {
		return fmt.Errorf("%w: batch: %w", ErrInvalidConfig, err)
	}
	if c.Batch.RetryDelay < 0 {
		return fmt.Errorf("%w: batch: retry_delay cannot be negative", ErrInvalidConfig)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	switch c.Output.Format {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("%w: output.format must be %q or %q, got %q",
			ErrInvalidConfig, OutputTable, OutputJSON, c.Output.Format)
	}
	return nil
}

// ToOptions converts the batch section to engine options.
// A zero retry delay means "retry immediately" in configuration.
func (b BatchConfig) ToOptions() batch.Options {
	delay := b.RetryDelay
	if delay == 0 {
		delay = -1
	}
	return batch.Options{
		MaxBatchSize:       b.MaxBatchSize,
		MaxConcurrency:     b.MaxConcurrency,
		RetryAttempts:      b.RetryAttempts,
		RetryDelay:         delay,
		BackoffMultiplier:  b.BackoffMultiplier,
		MaxRetryDelay:      b.MaxRetryDelay,
		EnableOptimization: batch.Bool(b.EnableOptimization),
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
