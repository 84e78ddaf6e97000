package domain

import (
	"fmt"
	"maps"
	"path"
	"strings"
	"time"
)

// DefaultBranchFallback is used when the metadata fetch does not name a
// default branch.
const DefaultBranchFallback = "main"

// Repository identifies a remote repository.
type Repository struct {
	Host          string `json:"host"`
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	DefaultBranch string `json:"default_branch,omitempty"`

	// Ref and SubPath come from /tree/<ref>/<subpath> URLs.
	Ref     string `json:"ref,omitempty"`
	SubPath string `json:"sub_path,omitempty"`
}

// FullName returns "owner/name"
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// URL returns the canonical HTTPS URL of the repository
func (r Repository) URL() string {
	return fmt.Sprintf("https://%s/%s/%s", r.Host, r.Owner, r.Name)
}

// Branch returns the ref to walk: an explicit ref, the discovered default
// branch, or the fallback.
func (r Repository) Branch() string {
	switch {
	case r.Ref != "":
		return r.Ref
	case r.DefaultBranch != "":
		return r.DefaultBranch
	}
	return DefaultBranchFallback
}

// EntryType tags a TreeEntry
type EntryType string

// Entry types
const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// TreeEntry is one element of a directory listing.
type TreeEntry struct {
	Name         string
	Path         string
	Type         EntryType
	Size         int64
	DownloadURL  string
	LastModified *time.Time
}

// IsDir returns true for directory entries
func (e TreeEntry) IsDir() bool {
	return e.Type == EntryDir
}

// FileRecord is a text file accepted into the output.
type FileRecord struct {
	Path            string     `json:"path"`
	Content         string     `json:"content"`
	ByteSize        int64      `json:"size"`
	LineCount       int        `json:"lines"`
	EstimatedTokens int        `json:"estimated_tokens"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
}

// Extension returns the lowercase extension including the dot, or ""
func (f FileRecord) Extension() string {
	return Extension(f.Path)
}

// Dir returns the directory part of the path, "" for the root
func (f FileRecord) Dir() string {
	dir := path.Dir(f.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// Extension returns the lowercase substring of the basename from the last
// dot onward. Names without a dot have no extension.
func Extension(p string) string {
	base := path.Base(p)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(base[idx:])
}

// Decision is the verdict of the skip policy.
type Decision string

// Skip decisions
const (
	Accept          Decision = "accept"
	SkipByDir       Decision = "skip-by-dir"
	SkipByName      Decision = "skip-by-name"
	SkipByExtension Decision = "skip-by-extension"
	SkipBySize      Decision = "skip-by-size"
	SkipBinary      Decision = "skip-binary"

	// SkipFetchFailed marks a file whose blob could not be fetched.
	SkipFetchFailed Decision = "fetch-failed"
)

// Skipped returns true for every decision other than Accept
func (d Decision) Skipped() bool {
	return d != Accept
}

// Stats aggregates run statistics.
type Stats struct {
	TotalFiles   int              `json:"total_files"`
	TotalBytes   int64            `json:"total_bytes"`
	TotalTokens  int              `json:"total_tokens"`
	TotalLines   int              `json:"total_lines"`
	SkippedFiles int              `json:"skipped_files"`
	SkippedBytes int64            `json:"skipped_bytes"`
	SkipReasons  map[Decision]int `json:"skip_reasons,omitempty"`
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end,omitzero"`
	Elapsed      time.Duration    `json:"-"`
	ElapsedMS    int64            `json:"elapsed_ms"`
}

// AddRecord counts an accepted file
func (s *Stats) AddRecord(rec FileRecord) {
	s.TotalFiles++
	s.TotalBytes += rec.ByteSize
	s.TotalTokens += rec.EstimatedTokens
	s.TotalLines += rec.LineCount
}

// AddSkip counts a skipped file
func (s *Stats) AddSkip(reason Decision, size int64) {
	s.SkippedFiles++
	s.SkippedBytes += size
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[Decision]int)
	}
	s.SkipReasons[reason]++
}

// Finish stamps the end time and reconciles the token total with records.
func (s *Stats) Finish(end time.Time, records []FileRecord) {
	tokens := 0
	for _, rec := range records {
		tokens += rec.EstimatedTokens
	}
	s.TotalTokens = tokens
	s.End = end
	s.Elapsed = end.Sub(s.Start)
	s.ElapsedMS = s.Elapsed.Milliseconds()
}

// Clone returns a deep copy safe to hand to observers
func (s Stats) Clone() Stats {
	out := s
	out.SkipReasons = maps.Clone(s.SkipReasons)
	return out
}

// Phase is the stage a progress event belongs to.
type Phase string

// Progress phases
const (
	PhaseInitializing Phase = "initializing"
	PhaseFetching     Phase = "fetching"
	PhaseProcessing   Phase = "processing"
	PhaseGenerating   Phase = "generating"
	PhaseComplete     Phase = "complete"
	PhaseError        Phase = "error"
	PhaseWarning      Phase = "warning"
	PhaseWaiting      Phase = "waiting"
	PhaseRetrying     Phase = "retrying"
	PhaseAborted      Phase = "aborted"
)

// Terminal returns true for phases that end a run
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError || p == PhaseAborted
}

// ProgressEvent is delivered to a ProgressSink.
type ProgressEvent struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Progress  *float64  `json:"progress,omitempty"`
	Stats     Stats     `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
}

// Fraction returns a pointer to done/total clamped to [0,1], or nil when the
// denominator is unknown.
func Fraction(done, total int) *float64 {
	if total <= 0 {
		return nil
	}
	f := float64(done) / float64(total)
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return &f
}
