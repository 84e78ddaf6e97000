package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads repository manifests
type Loader struct{}

// NewLoader creates a new manifest loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the manifest at path. The extension picks the decoder.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return l.LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes decodes a manifest, normalizes its sources, fills in the
// option defaults and validates the result.
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	for i := range cfg.Sources {
		normalizeSource(&cfg.Sources[i])
	}
	cfg.Options = withDefaults(cfg.Options)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeSource trims the URL and format and rewrites skip extensions to
// the lowercase dotted form the skip policy matches on.
func normalizeSource(src *Source) {
	src.URL = strings.TrimSpace(src.URL)
	src.Format = strings.ToLower(strings.TrimSpace(src.Format))
	src.Output = strings.TrimSpace(src.Output)
	for i, ext := range src.SkipExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		src.SkipExtensions[i] = ext
	}
}

// withDefaults fills unset options and caps the concurrency
func withDefaults(opts Options) Options {
	defaults := DefaultOptions()
	if opts.Output == "" {
		opts.Output = defaults.Output
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaults.Concurrency
	}
	opts.Concurrency = min(opts.Concurrency, MaxConcurrency)
	return opts
}
