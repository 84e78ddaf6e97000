package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/resolve"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// MaxConcurrency caps how many repositories are bundled at once
const MaxConcurrency = 3

// Config represents the complete manifest configuration
type Config struct {
	Sources []Source `yaml:"sources" json:"sources"`
	Options Options  `yaml:"options" json:"options"`
}

// Source is one repository to bundle
type Source struct {
	URL            string   `yaml:"url" json:"url"`
	Format         string   `yaml:"format,omitempty" json:"format,omitempty"`
	Output         string   `yaml:"output,omitempty" json:"output,omitempty"`
	SkipDirs       []string `yaml:"skip_dirs,omitempty" json:"skip_dirs,omitempty"`
	SkipFiles      []string `yaml:"skip_files,omitempty" json:"skip_files,omitempty"`
	SkipExtensions []string `yaml:"skip_extensions,omitempty" json:"skip_extensions,omitempty"`
}

// Options represents global manifest options
type Options struct {
	ContinueOnError bool   `yaml:"continue_on_error" json:"continue_on_error"`
	Output          string `yaml:"output,omitempty" json:"output,omitempty"`
	Concurrency     int    `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// Validate checks that every source names a repository, uses a known
// format and, when it sets one, writes to a usable file of its own.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	outputs := make(map[string]int, len(c.Sources))
	for i, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %d: %w", i, ErrEmptyURL)
		}
		if _, err := resolve.ParseURL(src.URL); err != nil {
			return fmt.Errorf("source %d: %w: %w", i, ErrInvalidURL, err)
		}
		if src.Format != "" {
			if _, err := domain.ParseFormat(src.Format); err != nil {
				return fmt.Errorf("source %d: %w", i, err)
			}
		}
		if src.Output == "" {
			continue
		}
		if !utils.IsValidFilename(filepath.Base(src.Output)) {
			return fmt.Errorf("source %d: %w: %q", i, ErrInvalidOutput, src.Output)
		}
		key := filepath.Clean(src.Output)
		if prev, ok := outputs[key]; ok {
			return fmt.Errorf("sources %d and %d: %w: %s", prev, i, ErrDuplicateOutput, src.Output)
		}
		outputs[key] = i
	}
	return nil
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		ContinueOnError: false,
		Output:          ".",
		Concurrency:     2,
	}
}
