package manifest

import "errors"

// Errors returned while loading a manifest
var (
	ErrNoSources       = errors.New("manifest lists no repositories")
	ErrEmptyURL        = errors.New("repository URL is empty")
	ErrInvalidURL      = errors.New("not a repository URL")
	ErrInvalidOutput   = errors.New("invalid output file name")
	ErrDuplicateOutput = errors.New("output file used by more than one repository")
	ErrInvalidFormat   = errors.New("manifest must be valid YAML or JSON")
	ErrFileNotFound    = errors.New("manifest file not found")
	ErrUnsupportedExt  = errors.New("unsupported manifest extension (use .yaml, .yml or .json)")
)
