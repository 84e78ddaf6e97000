package cache

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Entry is the replayable form of a completed response
type Entry struct {
	URL         string      `json:"url"`
	StatusCode  int         `json:"status_code"`
	Headers     http.Header `json:"headers,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	Body        []byte      `json:"body"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// NewEntry captures resp for later replay
func NewEntry(resp *domain.Response, fetchedAt time.Time) *Entry {
	return &Entry{
		URL:         resp.URL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Headers,
		ContentType: resp.ContentType,
		Body:        resp.Body,
		FetchedAt:   fetchedAt,
	}
}

// Response rebuilds a response marked as served from cache
func (e *Entry) Response() *domain.Response {
	return &domain.Response{
		StatusCode:  e.StatusCode,
		Body:        e.Body,
		Headers:     e.Headers,
		ContentType: e.ContentType,
		URL:         e.URL,
		FromCache:   true,
	}
}

// Encode serializes the entry
func (e *Entry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry parses an encoded entry
func DecodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Options contains cache configuration options
type Options struct {
	// Compress stores values s2-compressed
	Compress bool
	// Logger enables badger's internal logging
	Logger bool
}

// DefaultOptions returns default cache options
func DefaultOptions() Options {
	return Options{
		Compress: true,
		Logger:   false,
	}
}
