package domain

import (
	"fmt"
	"strings"
)

// Format selects the output shape
type Format string

// Output formats
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts the canonical names and common aliases
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "flat", "plain":
		return FormatText, nil
	case "markdown", "md", "document":
		return FormatMarkdown, nil
	case "json", "record":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want text, markdown or json)", ErrInvalidInput, s)
}

// Extension returns the file extension conventionally used for the format
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// SourceMode selects how the tree is read
type SourceMode string

// Source modes
const (
	SourceAPI   SourceMode = "api"
	SourceClone SourceMode = "clone"
)

// Auth holds the credentials for a run. At most one of Token or
// Username/Password is used; Token wins.
type Auth struct {
	Token    string `mapstructure:"token" yaml:"token,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

// IsZero returns true when no credentials are configured
func (a Auth) IsZero() bool {
	return a.Token == "" && a.Username == "" && a.Password == ""
}
