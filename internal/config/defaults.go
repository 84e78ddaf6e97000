package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Output defaults
	DefaultFormat = "text"

	// Concurrency defaults
	DefaultWorkers = 5
	DefaultTimeout = 30 * time.Second

	// Filter defaults
	DefaultMaxFileSize = "1MB"

	// Source defaults
	DefaultSourceMode = "api"

	// Rate limit defaults
	DefaultRateLimitMaxWait       = 60 * time.Second
	DefaultRateLimitRetries       = 3
	DefaultRateLimitWarnThreshold = 10

	// Cache defaults
	DefaultCacheEnabled  = true
	DefaultCacheCompress = true

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultSkipDirs are directory basenames never descended into
var DefaultSkipDirs = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	"dist",
	"build",
	".next",
	".nuxt",
	".idea",
	".vscode",
	"coverage",
	"target",
}

// DefaultSkipFiles are exact filenames excluded from the output
var DefaultSkipFiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
	"poetry.lock",
	"composer.lock",
	"Gemfile.lock",
	".DS_Store",
	"Thumbs.db",
}

// DefaultSkipExtensions are lowercase extensions excluded from the output
var DefaultSkipExtensions = []string{
	// images
	".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".tiff", ".psd",
	// media
	".mp3", ".mp4", ".wav", ".ogg", ".avi", ".mov", ".webm", ".flac",
	// archives
	".zip", ".gz", ".tgz", ".tar", ".rar", ".7z", ".bz2", ".xz",
	// fonts
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	// compiled
	".exe", ".dll", ".so", ".dylib", ".o", ".a", ".class", ".jar", ".pyc", ".wasm", ".bin",
	// documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".repo2llm"
	}
	return filepath.Join(home, ".repo2llm")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: DefaultFormat,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
			Timeout: DefaultTimeout,
		},
		Filter: FilterConfig{
			SkipDirs:       append([]string(nil), DefaultSkipDirs...),
			SkipFiles:      append([]string(nil), DefaultSkipFiles...),
			SkipExtensions: append([]string(nil), DefaultSkipExtensions...),
			MaxFileSize:    DefaultMaxFileSize,
		},
		Source: SourceConfig{
			Mode: DefaultSourceMode,
		},
		RateLimit: RateLimitConfig{
			MaxWait:       DefaultRateLimitMaxWait,
			Retries:       DefaultRateLimitRetries,
			WarnThreshold: DefaultRateLimitWarnThreshold,
		},
		Cache: CacheConfig{
			Enabled:  DefaultCacheEnabled,
			Compress: DefaultCacheCompress,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
