// Package manifest loads batch files that list several repositories to
// bundle in one invocation, each with its own format and skip additions.
//
// # Manifest Format
//
// Manifests can be written in YAML or JSON format:
//
//	sources:
//	  - url: https://github.com/org/api
//	    format: markdown
//	    skip_dirs: [testdata]
//	  - url: https://github.com/org/web/tree/main/src
//	    output: ./bundles/web-src.txt
//	options:
//	  continue_on_error: true
//	  output: ./bundles
//	  concurrency: 2
//
// Sources without an explicit output are written to options.output under a
// name derived from the repository, e.g. org-api.md.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoSources: manifest has no sources defined
//   - ErrEmptyURL: source is missing required URL field
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: manifest file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package manifest
