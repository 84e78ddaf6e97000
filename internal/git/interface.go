package git

import (
	"context"

	"github.com/go-git/go-git/v5"
)

// Client performs the clone behind source.mode=clone. ShallowClone drives
// it; tests replace it with mocks.MockGitClient.
type Client interface {
	PlainCloneContext(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error)
}

var _ Client = (*RealClient)(nil)
