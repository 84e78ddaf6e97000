package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/google/go-querystring/query"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// PublicAPIBase is the REST endpoint of github.com
const PublicAPIBase = "https://api.github.com"

// APIBaseURL returns the REST endpoint for host. Hosts other than
// github.com are treated as GitHub Enterprise installations.
func APIBaseURL(host string) string {
	host = strings.ToLower(host)
	if host == "github.com" || host == "www.github.com" {
		return PublicAPIBase
	}
	return "https://" + host + "/api/v3"
}

// GitHub reads repository trees through the REST contents API
type GitHub struct {
	fetcher domain.Fetcher
	apiBase string
	logger  *utils.Logger
}

// contentsQuery is the query string of a contents request
type contentsQuery struct {
	Ref string `url:"ref,omitempty"`
}

// NewGitHub creates a GitHub source. An empty apiBase is derived from the
// repository host on each call.
func NewGitHub(fetcher domain.Fetcher, apiBase string, logger *utils.Logger) *GitHub {
	return &GitHub{
		fetcher: fetcher,
		apiBase: strings.TrimRight(apiBase, "/"),
		logger:  logger.OrNop().WithComponent("source.github"),
	}
}

// DefaultBranch fetches the repository metadata
func (s *GitHub) DefaultBranch(ctx context.Context, repo domain.Repository) (string, error) {
	resp, err := s.fetcher.Get(ctx, s.repoURL(repo))
	if err != nil {
		return "", fmt.Errorf("repository %s: %w", repo.FullName(), err)
	}

	var meta github.Repository
	if err := json.Unmarshal(resp.Body, &meta); err != nil {
		return "", fmt.Errorf("repository %s: %w: decode metadata: %v", repo.FullName(), domain.ErrServer, err)
	}

	if branch := meta.GetDefaultBranch(); branch != "" {
		return branch, nil
	}
	s.logger.Debug().Str("repository", repo.FullName()).Msg("No default branch reported, using fallback")
	return domain.DefaultBranchFallback, nil
}

// ListDir lists one directory. Symlinks and submodules are left out.
func (s *GitHub) ListDir(ctx context.Context, repo domain.Repository, dir string) ([]domain.TreeEntry, error) {
	u, err := s.contentsURL(repo, dir)
	if err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("list %s:/%s: %w", repo.FullName(), dir, err)
	}

	contents, err := decodeListing(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("list %s:/%s: %w: decode listing: %v", repo.FullName(), dir, domain.ErrServer, err)
	}

	entries := make([]domain.TreeEntry, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}

		var typ domain.EntryType
		switch c.GetType() {
		case "file":
			typ = domain.EntryFile
		case "dir":
			typ = domain.EntryDir
		default:
			s.logger.Debug().Str("path", c.GetPath()).Str("type", c.GetType()).Msg("Ignoring entry")
			continue
		}

		entries = append(entries, domain.TreeEntry{
			Name:        c.GetName(),
			Path:        c.GetPath(),
			Type:        typ,
			Size:        int64(c.GetSize()),
			DownloadURL: c.GetDownloadURL(),
		})
	}
	return entries, nil
}

// FetchFile downloads a blob. Entries without a download URL are read
// through the contents API, which returns them base64 encoded.
func (s *GitHub) FetchFile(ctx context.Context, repo domain.Repository, entry domain.TreeEntry) (domain.Blob, error) {
	if entry.DownloadURL != "" {
		resp, err := s.fetcher.Get(ctx, entry.DownloadURL)
		if err != nil {
			return domain.Blob{}, fmt.Errorf("fetch %s: %w", entry.Path, err)
		}
		return domain.Blob{Content: resp.Body, LastModified: lastModified(resp.Headers)}, nil
	}

	u, err := s.contentsURL(repo, entry.Path)
	if err != nil {
		return domain.Blob{}, err
	}
	resp, err := s.fetcher.Get(ctx, u)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("fetch %s: %w", entry.Path, err)
	}

	var rc github.RepositoryContent
	if err := json.Unmarshal(resp.Body, &rc); err != nil {
		return domain.Blob{}, fmt.Errorf("fetch %s: %w: decode content: %v", entry.Path, domain.ErrServer, err)
	}
	content, err := rc.GetContent()
	if err != nil {
		return domain.Blob{}, fmt.Errorf("fetch %s: %w: %v", entry.Path, domain.ErrServer, err)
	}
	return domain.Blob{Content: []byte(content), LastModified: lastModified(resp.Headers)}, nil
}

func (s *GitHub) base(repo domain.Repository) string {
	if s.apiBase != "" {
		return s.apiBase
	}
	return APIBaseURL(repo.Host)
}

func (s *GitHub) repoURL(repo domain.Repository) string {
	return fmt.Sprintf("%s/repos/%s/%s", s.base(repo), url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
}

func (s *GitHub) contentsURL(repo domain.Repository, dir string) (string, error) {
	u := s.repoURL(repo) + "/contents"
	if dir != "" {
		u += "/" + escapePath(dir)
	}

	q, err := query.Values(contentsQuery{Ref: repo.Branch()})
	if err != nil {
		return "", fmt.Errorf("contents query: %w", err)
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u, nil
}

// escapePath escapes each segment of a slash-separated path
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// decodeListing accepts both a directory array and a single file object
func decodeListing(body []byte) ([]*github.RepositoryContent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*github.RepositoryContent
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var single github.RepositoryContent
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []*github.RepositoryContent{&single}, nil
}

func lastModified(h http.Header) *time.Time {
	v := h.Get("Last-Modified")
	if v == "" {
		return nil
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
