package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/quantmind-br/repo2llm/internal/domain"
)

// RealClient implements Client using go-git
type RealClient struct{}

// NewClient creates a new RealClient
func NewClient() *RealClient {
	return &RealClient{}
}

// PlainCloneContext calls git.PlainCloneContext
func (c *RealClient) PlainCloneContext(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
	return git.PlainCloneContext(ctx, path, isBare, o)
}

// CloneRequest describes a shallow clone
type CloneRequest struct {
	URL string
	// Ref is a branch or tag; empty clones the remote HEAD
	Ref      string
	Username string
	Password string
	Progress io.Writer
}

// ShallowClone clones req.URL into dest at depth 1 and returns the branch
// that was checked out.
func ShallowClone(ctx context.Context, client Client, dest string, req CloneRequest) (string, error) {
	opts := cloneOptions(req, plumbing.ReferenceName(""))
	if req.Ref != "" {
		opts = cloneOptions(req, plumbing.NewBranchReferenceName(req.Ref))
	}

	repo, err := client.PlainCloneContext(ctx, dest, false, opts)
	if err != nil && req.Ref != "" && isMissingRef(err) {
		// not a branch, try it as a tag
		repo, err = client.PlainCloneContext(ctx, dest, false, cloneOptions(req, plumbing.NewTagReferenceName(req.Ref)))
	}
	if err != nil {
		return "", classify(ctx, req.URL, err)
	}

	if branch := HeadBranch(repo); branch != "" {
		return branch, nil
	}
	if req.Ref != "" {
		return req.Ref, nil
	}
	return domain.DefaultBranchFallback, nil
}

func cloneOptions(req CloneRequest, ref plumbing.ReferenceName) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:          req.URL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
		Progress:     req.Progress,
	}
	if ref != "" {
		opts.ReferenceName = ref
	}
	if req.Username != "" || req.Password != "" {
		opts.Auth = &githttp.BasicAuth{
			Username: req.Username,
			Password: req.Password,
		}
	}
	return opts
}

// HeadBranch returns the short name of the checked-out branch, or "" for a
// detached HEAD.
func HeadBranch(repo *git.Repository) string {
	if repo == nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	refName := head.Name().String()
	if strings.HasPrefix(refName, "refs/heads/") {
		return strings.TrimPrefix(refName, "refs/heads/")
	}
	return ""
}

func isMissingRef(err error) bool {
	return errors.Is(err, git.NoMatchingRefSpecError{}) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

// classify maps go-git failures onto the error taxonomy
func classify(ctx context.Context, url string, err error) error {
	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("clone %s: %w: %w", url, domain.ErrCancelled, ctx.Err())
	case errors.Is(err, transport.ErrAuthenticationRequired), errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("clone %s: %w: %v", url, domain.ErrAuthFailed, err)
	case errors.Is(err, transport.ErrRepositoryNotFound), isMissingRef(err):
		return fmt.Errorf("clone %s: %w: %v", url, domain.ErrNotFound, err)
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("clone %s: %w: repository is empty", url, domain.ErrNotFound)
	}
	return fmt.Errorf("clone %s: %w: %v", url, domain.ErrNetwork, err)
}
