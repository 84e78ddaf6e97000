// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/quantmind-br/repo2llm/internal/domain"
)

// FixedModTime is the Last-Modified time of every raw file
var FixedModTime = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

// Override replaces the response for one request path
type Override struct {
	Status int
	Header map[string]string
	Body   string
	// Times limits how often the override applies; 0 means always
	Times int
}

// FakeGitHub serves an in-memory file tree through the REST contents API
// shape: repository metadata, directory listings and raw downloads.
type FakeGitHub struct {
	*httptest.Server

	Owner         string
	Name          string
	DefaultBranch string
	// Delay is added to every raw download
	Delay time.Duration

	mu        sync.Mutex
	files     map[string][]byte
	overrides map[string]*Override
	hits      map[string]int
	refs      []string

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// NewFakeGitHub starts a fake API serving files for owner/name
func NewFakeGitHub(t *testing.T, owner, name string, files map[string]string) *FakeGitHub {
	t.Helper()

	f := &FakeGitHub{
		Owner:         owner,
		Name:          name,
		DefaultBranch: "main",
		files:         make(map[string][]byte, len(files)),
		overrides:     make(map[string]*Override),
		hits:          make(map[string]int),
	}
	for p, content := range files {
		f.files[p] = []byte(content)
	}

	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// SetFile adds or replaces a file
func (f *FakeGitHub) SetFile(p string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = content
}

// Override registers a scripted response for an exact request path
func (f *FakeGitHub) Override(requestPath string, o Override) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[requestPath] = &o
}

// Repository returns the identity the fake serves
func (f *FakeGitHub) Repository() domain.Repository {
	return domain.Repository{Host: "github.com", Owner: f.Owner, Name: f.Name}
}

// RepoPath is the metadata request path
func (f *FakeGitHub) RepoPath() string {
	return "/repos/" + f.Owner + "/" + f.Name
}

// ContentsPath is the listing request path of dir
func (f *FakeGitHub) ContentsPath(dir string) string {
	if dir == "" {
		return f.RepoPath() + "/contents"
	}
	return f.RepoPath() + "/contents/" + dir
}

// RawPath is the download request path of a file
func (f *FakeGitHub) RawPath(p string) string {
	return "/raw/" + p
}

// Hits returns how often requestPath was served
func (f *FakeGitHub) Hits(requestPath string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[requestPath]
}

// TotalHits returns the number of requests served
func (f *FakeGitHub) TotalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.hits {
		n += c
	}
	return n
}

// Refs returns the ref query values seen on contents requests
func (f *FakeGitHub) Refs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refs...)
}

// MaxInFlight returns the highest number of concurrent requests observed
func (f *FakeGitHub) MaxInFlight() int64 {
	return f.maxInFlight.Load()
}

func (f *FakeGitHub) serve(w http.ResponseWriter, r *http.Request) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.hits[r.URL.Path]++
	override := f.overrides[r.URL.Path]
	if override != nil && override.Times > 0 {
		override.Times--
		if override.Times == 0 {
			delete(f.overrides, r.URL.Path)
		}
	}
	if strings.HasPrefix(r.URL.Path, f.RepoPath()+"/contents") {
		f.refs = append(f.refs, r.URL.Query().Get("ref"))
	}
	f.mu.Unlock()

	if override != nil {
		for k, v := range override.Header {
			w.Header().Set(k, v)
		}
		w.WriteHeader(override.Status)
		_, _ = w.Write([]byte(override.Body))
		return
	}

	switch p := r.URL.Path; {
	case p == f.RepoPath():
		f.writeJSON(w, &github.Repository{
			Name:          github.String(f.Name),
			FullName:      github.String(f.Owner + "/" + f.Name),
			DefaultBranch: github.String(f.DefaultBranch),
		})
	case p == f.RepoPath()+"/contents" || strings.HasPrefix(p, f.RepoPath()+"/contents/"):
		rel := strings.Trim(strings.TrimPrefix(p, f.RepoPath()+"/contents"), "/")
		f.serveContents(w, rel)
	case strings.HasPrefix(p, "/raw/"):
		f.serveRaw(w, r, strings.TrimPrefix(p, "/raw/"))
	default:
		f.notFound(w)
	}
}

func (f *FakeGitHub) serveContents(w http.ResponseWriter, rel string) {
	f.mu.Lock()
	content, isFile := f.files[rel]
	children := f.children(rel)
	f.mu.Unlock()

	if isFile {
		f.writeJSON(w, &github.RepositoryContent{
			Type:     github.String("file"),
			Name:     github.String(path.Base(rel)),
			Path:     github.String(rel),
			Size:     github.Int(len(content)),
			Encoding: github.String("base64"),
			Content:  github.String(base64.StdEncoding.EncodeToString(content)),
		})
		return
	}
	if children == nil {
		f.notFound(w)
		return
	}
	f.writeJSON(w, children)
}

// children lists the direct entries of dir; nil when dir does not exist
func (f *FakeGitHub) children(dir string) []*github.RepositoryContent {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seen := make(map[string]bool)
	var out []*github.RepositoryContent
	for p, content := range f.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true

		full := prefix + name
		if nested {
			out = append(out, &github.RepositoryContent{
				Type: github.String("dir"),
				Name: github.String(name),
				Path: github.String(full),
				Size: github.Int(0),
			})
			continue
		}
		out = append(out, &github.RepositoryContent{
			Type:        github.String("file"),
			Name:        github.String(name),
			Path:        github.String(full),
			Size:        github.Int(len(content)),
			DownloadURL: github.String(f.URL + f.RawPath(full)),
		})
	}

	if out == nil && dir != "" {
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	if out == nil {
		out = []*github.RepositoryContent{}
	}
	return out
}

func (f *FakeGitHub) serveRaw(w http.ResponseWriter, r *http.Request, rel string) {
	if f.Delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(f.Delay):
		}
	}

	f.mu.Lock()
	content, ok := f.files[rel]
	f.mu.Unlock()
	if !ok {
		f.notFound(w)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Last-Modified", FixedModTime.Format(http.TimeFormat))
	_, _ = w.Write(content)
}

func (f *FakeGitHub) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeGitHub) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"message":"Not Found","documentation_url":"https://docs.github.com/rest"}`))
}
