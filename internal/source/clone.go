package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/git"
	"github.com/quantmind-br/repo2llm/internal/resolve"
	"github.com/quantmind-br/repo2llm/internal/utils"
)

// Clone is a Local source over a shallow clone in a temporary directory.
// Close removes the clone.
type Clone struct {
	*Local
	dir string
}

// CloneOptions contains options for NewClone
type CloneOptions struct {
	Client      git.Client
	Credentials resolve.Credentials
	// TempDir is the parent of the clone directory; empty uses os.TempDir
	TempDir  string
	Progress io.Writer
	Logger   *utils.Logger
}

// NewClone clones repo at depth 1 and serves the working tree
func NewClone(ctx context.Context, repo domain.Repository, opts CloneOptions) (*Clone, error) {
	logger := opts.Logger.OrNop().WithComponent("gitclone")
	client := opts.Client
	if client == nil {
		client = git.NewClient()
	}

	dir, err := os.MkdirTemp(opts.TempDir, "repo2llm-clone-*")
	if err != nil {
		return nil, fmt.Errorf("create clone directory: %w", err)
	}

	req := git.CloneRequest{
		URL:      repo.URL() + ".git",
		Ref:      repo.Ref,
		Progress: opts.Progress,
	}
	if user, pass, ok := opts.Credentials.BasicAuth(); ok {
		req.Username, req.Password = user, pass
	}

	logger.Info().Str("url", req.URL).Str("ref", repo.Ref).Msg("Cloning repository")
	branch, err := git.ShallowClone(ctx, client, dir, req)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	local, err := NewLocal(dir, opts.Logger)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	local.branch = branch

	logger.Debug().Str("dir", dir).Str("branch", branch).Msg("Clone ready")
	return &Clone{Local: local, dir: dir}, nil
}

// Close removes the clone from disk
func (c *Clone) Close() error {
	return os.RemoveAll(c.dir)
}
