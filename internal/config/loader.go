package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (REPO2LLM_OUTPUT_FORMAT, ...)
const EnvPrefix = "REPO2LLM"

// Load loads configuration from file, environment, and defaults into a
// fresh viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom loads configuration through v. Flags bound to v before the call
// take precedence over the file and the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Config file settings
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables (REPO2LLM_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth.token", EnvPrefix+"_AUTH_TOKEN", "GITHUB_TOKEN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate and apply defaults for invalid values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Output defaults
	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.file", "")
	v.SetDefault("output.clipboard", false)

	// Concurrency defaults
	v.SetDefault("concurrency.workers", DefaultWorkers)
	v.SetDefault("concurrency.timeout", DefaultTimeout)

	// Filter defaults
	v.SetDefault("filter.skip_dirs", DefaultSkipDirs)
	v.SetDefault("filter.skip_files", DefaultSkipFiles)
	v.SetDefault("filter.skip_extensions", DefaultSkipExtensions)
	v.SetDefault("filter.max_file_size", DefaultMaxFileSize)

	// Auth defaults
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	// Source defaults
	v.SetDefault("source.mode", DefaultSourceMode)
	v.SetDefault("source.api_base_url", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.max_wait", DefaultRateLimitMaxWait)
	v.SetDefault("rate_limit.retries", DefaultRateLimitRetries)
	v.SetDefault("rate_limit.warn_threshold", DefaultRateLimitWarnThreshold)
	v.SetDefault("rate_limit.requests_per_minute", 0)

	// Cache defaults
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.compress", DefaultCacheCompress)

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
