// Package skip decides which repository files make it into the output.
package skip

import (
	"path"
	"strings"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// Options configures a Policy
type Options struct {
	SkipDirs       []string
	SkipFiles      []string
	SkipExtensions []string
	MaxFileBytes   int64 // 0 disables the size rule
}

// Candidate is a file or directory under consideration. Size and Head are
// optional; rules that need them are not applied when they are absent.
type Candidate struct {
	Path    string
	IsDir   bool
	Size    int64
	HasSize bool
	Head    []byte
}

// Policy applies the skip rules in a fixed order. It holds no mutable state
// and is safe for concurrent use.
type Policy struct {
	dirs     map[string]struct{}
	files    map[string]struct{}
	exts     map[string]struct{}
	maxBytes int64
}

// New creates a Policy. Extensions are lowercased and given a leading dot.
func New(opts Options) *Policy {
	p := &Policy{
		dirs:     toSet(opts.SkipDirs, nil),
		files:    toSet(opts.SkipFiles, nil),
		exts:     toSet(opts.SkipExtensions, normalizeExt),
		maxBytes: opts.MaxFileBytes,
	}
	if p.maxBytes < 0 {
		p.maxBytes = 0
	}
	return p
}

// Classify runs every applicable rule and returns the first that matches:
// dir, name, extension, size, binary. Directories only see the dir and name
// rules.
func (p *Policy) Classify(c Candidate) domain.Decision {
	if d := p.CheckPath(c.Path, c.IsDir); d.Skipped() || c.IsDir {
		return d
	}
	if c.HasSize {
		if d := p.CheckSize(c.Size); d.Skipped() {
			return d
		}
	}
	if c.Head != nil {
		return p.CheckContent(c.Head)
	}
	return domain.Accept
}

// CheckPath applies the path-level rules. For a directory the dir rule is
// also applied to its own basename.
func (p *Policy) CheckPath(filePath string, isDir bool) domain.Decision {
	clean := strings.Trim(path.Clean("/"+filePath), "/")
	if clean == "" {
		return domain.Accept
	}

	parts := strings.Split(clean, "/")
	dirParts := parts[:len(parts)-1]
	if isDir {
		dirParts = parts
	}
	for _, part := range dirParts {
		if _, ok := p.dirs[part]; ok {
			return domain.SkipByDir
		}
	}

	base := parts[len(parts)-1]
	if _, ok := p.files[base]; ok {
		return domain.SkipByName
	}
	if isDir {
		return domain.Accept
	}

	if ext := domain.Extension(base); ext != "" {
		if _, ok := p.exts[ext]; ok {
			return domain.SkipByExtension
		}
	}
	return domain.Accept
}

// CheckSize applies the size cap
func (p *Policy) CheckSize(size int64) domain.Decision {
	if p.maxBytes > 0 && size > p.maxBytes {
		return domain.SkipBySize
	}
	return domain.Accept
}

// CheckContent applies the binary test to the first bytes of a blob
func (p *Policy) CheckContent(head []byte) domain.Decision {
	if IsBinary(head) {
		return domain.SkipBinary
	}
	return domain.Accept
}

// MaxFileBytes returns the configured cap, 0 when disabled
func (p *Policy) MaxFileBytes() int64 {
	return p.maxBytes
}

func toSet(items []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if norm != nil {
			item = norm(item)
		}
		if item != "" {
			set[item] = struct{}{}
		}
	}
	return set
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
