// Package resolve turns user input into a repository identity and request
// credentials. Nothing here performs I/O.
package resolve

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

var (
	httpsPattern = regexp.MustCompile(`^https://([^/\s@]+)/([A-Za-z0-9._-]+)/([A-Za-z0-9._-]+?)(?:\.git)?(/.*)?$`)
	sshPattern   = regexp.MustCompile(`^git@([^:/\s]+):([A-Za-z0-9._-]+)/([A-Za-z0-9._-]+?)(?:\.git)?/?$`)
	treePattern  = regexp.MustCompile(`^/tree/([^/]+)(?:/(.+?))?/?$`)
)

// ParseURL parses https://<host>/<owner>/<repo>[.git][/...] or
// git@<host>:<owner>/<repo>[.git]. The SSH shape is rewritten to HTTPS. A
// trailing /tree/<ref>[/<path>] selects a ref and a sub-directory.
func ParseURL(raw string) (domain.Repository, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Repository{}, domain.NewValidationError("url", "repository URL is empty")
	}

	if m := sshPattern.FindStringSubmatch(raw); m != nil {
		return newRepository(m[1], m[2], m[3])
	}

	// query and fragment never carry repository identity
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	m := httpsPattern.FindStringSubmatch(raw)
	if m == nil {
		return domain.Repository{}, domain.NewValidationError("url",
			fmt.Sprintf("unsupported repository URL %q", raw))
	}

	repo, err := newRepository(m[1], m[2], m[3])
	if err != nil {
		return repo, err
	}

	if tm := treePattern.FindStringSubmatch(m[4]); tm != nil {
		repo.Ref = unescape(tm[1])
		repo.SubPath = NormalizePath(tm[2])
	}
	return repo, nil
}

// CanonicalURL is ParseURL followed by Repository.URL
func CanonicalURL(raw string) (string, error) {
	repo, err := ParseURL(raw)
	if err != nil {
		return "", err
	}
	return repo.URL(), nil
}

func newRepository(host, owner, name string) (domain.Repository, error) {
	for _, part := range []string{owner, name} {
		if part == "." || part == ".." {
			return domain.Repository{}, domain.NewValidationError("url",
				fmt.Sprintf("invalid owner or repository name %q", part))
		}
	}
	return domain.Repository{
		Host:  strings.ToLower(host),
		Owner: owner,
		Name:  name,
	}, nil
}

// NormalizePath cleans a repository-relative path: forward slashes, no
// leading or trailing slash, "" for the root.
func NormalizePath(p string) string {
	p = unescape(p)
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return ""
	}
	return p
}

func unescape(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}
