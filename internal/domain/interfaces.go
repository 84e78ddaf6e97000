package domain

import (
	"context"
	"net/http"
	"time"
)

// Fetcher defines the interface for rate-limit aware HTTP fetching
type Fetcher interface {
	// Get fetches content from a URL
	Get(ctx context.Context, url string) (*Response, error)
	// Close releases resources
	Close() error
}

// Response represents a buffered HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
	FromCache   bool
}

// Clone returns a copy that shares nothing with r
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Body = append([]byte(nil), r.Body...)
	out.Headers = r.Headers.Clone()
	return &out
}

// Cache defines the interface for the run-scoped response cache
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache
	Set(ctx context.Context, key string, value []byte) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Close releases cache resources
	Close() error
}

// TreeSource lists and reads a repository tree. The GitHub API source and the
// local filesystem source both implement it.
type TreeSource interface {
	// DefaultBranch returns the branch to walk when the URL names none
	DefaultBranch(ctx context.Context, repo Repository) (string, error)
	// ListDir returns the entries of one directory ("" is the root)
	ListDir(ctx context.Context, repo Repository, path string) ([]TreeEntry, error)
	// FetchFile returns the raw bytes of a file entry
	FetchFile(ctx context.Context, repo Repository, entry TreeEntry) (Blob, error)
}

// Blob is the raw content of a file plus what the source knows about it
type Blob struct {
	Content      []byte
	LastModified *time.Time
}

// ProgressSink observes progress events. Emit must not block for long.
type ProgressSink interface {
	Emit(event ProgressEvent)
}

// Writer delivers a rendered artifact
type Writer interface {
	Write(ctx context.Context, content string) error
}

