package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Filter      FilterConfig      `mapstructure:"filter" yaml:"filter"`
	Auth        domain.Auth       `mapstructure:"auth" yaml:"auth"`
	Source      SourceConfig      `mapstructure:"source" yaml:"source"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit" yaml:"rate_limit"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	File      string `mapstructure:"file" yaml:"file,omitempty"`
	Clipboard bool   `mapstructure:"clipboard" yaml:"clipboard"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int           `mapstructure:"workers" yaml:"workers"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FilterConfig holds the skip policy inputs
type FilterConfig struct {
	SkipDirs       []string `mapstructure:"skip_dirs" yaml:"skip_dirs"`
	SkipFiles      []string `mapstructure:"skip_files" yaml:"skip_files"`
	SkipExtensions []string `mapstructure:"skip_extensions" yaml:"skip_extensions"`
	MaxFileSize    string   `mapstructure:"max_file_size" yaml:"max_file_size"`
}

// SourceConfig selects where the tree is read from
type SourceConfig struct {
	Mode       string `mapstructure:"mode" yaml:"mode"`
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url,omitempty"`
}

// RateLimitConfig contains settings for quota handling against the host API
type RateLimitConfig struct {
	MaxWait           time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	Retries           int           `mapstructure:"retries" yaml:"retries"`
	WarnThreshold     int           `mapstructure:"warn_threshold" yaml:"warn_threshold"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// CacheConfig contains settings for the run-scoped response cache
type CacheConfig struct {
	Enabled  bool `mapstructure:"enabled" yaml:"enabled"`
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration. Out-of-range numbers fall back to
// defaults; malformed values are rejected.
func (c *Config) Validate() error {
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout <= 0 {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.RateLimit.MaxWait <= 0 {
		c.RateLimit.MaxWait = DefaultRateLimitMaxWait
	}
	if c.RateLimit.Retries < 0 {
		c.RateLimit.Retries = DefaultRateLimitRetries
	}
	if c.RateLimit.WarnThreshold < 0 {
		c.RateLimit.WarnThreshold = DefaultRateLimitWarnThreshold
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return domain.NewValidationError("rate_limit.requests_per_minute", "must not be negative")
	}

	if _, err := domain.ParseFormat(c.Output.Format); err != nil {
		return domain.NewValidationError("output.format", err.Error())
	}

	switch domain.SourceMode(strings.ToLower(c.Source.Mode)) {
	case "":
		c.Source.Mode = string(domain.SourceAPI)
	case domain.SourceAPI, domain.SourceClone:
	default:
		return domain.NewValidationError("source.mode", fmt.Sprintf("unknown mode %q (want api or clone)", c.Source.Mode))
	}

	if c.Filter.MaxFileSize == "" {
		c.Filter.MaxFileSize = DefaultMaxFileSize
	} else if _, err := ParseSize(c.Filter.MaxFileSize); err != nil {
		return fmt.Errorf("invalid filter.max_file_size: %w", err)
	}

	if c.Auth.Token == "" && (c.Auth.Username == "") != (c.Auth.Password == "") {
		return domain.NewValidationError("auth", "username and password must be given together")
	}
	return nil
}

// FormatValue returns the parsed output format
func (c *Config) FormatValue() domain.Format {
	f, err := domain.ParseFormat(c.Output.Format)
	if err != nil {
		return domain.FormatText
	}
	return f
}

// SourceMode returns the parsed source mode
func (c *Config) SourceMode() domain.SourceMode {
	if c.Source.Mode == "" {
		return domain.SourceAPI
	}
	return domain.SourceMode(strings.ToLower(c.Source.Mode))
}

// MaxFileBytes returns the parsed size cap; 0 disables it
func (c *Config) MaxFileBytes() int64 {
	n, err := ParseSize(c.Filter.MaxFileSize)
	if err != nil {
		return 0
	}
	return n
}

// ParseSize parses sizes such as "500", "64KB", "1MB" or "2GB"
func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
