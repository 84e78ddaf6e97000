package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/internal/mocks"
	"github.com/quantmind-br/repo2llm/internal/resolve"
	"github.com/quantmind-br/repo2llm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// populate returns a clone stand-in that commits files into the destination
func populate(t *testing.T, files map[string]string) func(string) (*git.Repository, error) {
	return func(dest string) (*git.Repository, error) {
		repo, err := git.PlainInit(dest, false)
		if err != nil {
			return nil, err
		}
		testutil.WriteTree(t, dest, files)

		wt, err := repo.Worktree()
		if err != nil {
			return nil, err
		}
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return nil, err
		}
		_, err = wt.Commit("init", &git.CommitOptions{
			Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
		})
		return repo, err
	}
}

func TestNewClone(t *testing.T) {
	client := new(mocks.MockGitClient)
	client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.MatchedBy(func(o *git.CloneOptions) bool {
		auth, ok := o.Auth.(*githttp.BasicAuth)
		return o.URL == "https://github.com/octo/hello.git" &&
			o.Depth == 1 &&
			ok && auth.Username == "x-access-token" && auth.Password == "tok"
	})).Return(populate(t, map[string]string{
		"README.md":   "# hello\n",
		"src/main.go": "package main\n",
	}), nil)

	creds, err := resolve.ResolveCredentials(domain.Auth{Token: "tok"})
	require.NoError(t, err)

	repo := domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"}
	clone, err := NewClone(context.Background(), repo, CloneOptions{
		Client:      client,
		Credentials: creds,
		TempDir:     t.TempDir(),
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	branch, err := clone.DefaultBranch(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	entries, err := clone.ListDir(context.Background(), repo, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"README.md", "src"}, names(entries), ".git is never listed")

	dir := clone.Root()
	require.NoError(t, clone.Close())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestNewClone_FailureRemovesDirectory(t *testing.T) {
	client := new(mocks.MockGitClient)
	client.On("PlainCloneContext", mock.Anything, mock.Anything, false, mock.Anything).
		Return(nil, git.ErrRepositoryNotExists)

	parent := t.TempDir()
	_, err := NewClone(context.Background(), domain.Repository{Host: "github.com", Owner: "octo", Name: "gone"}, CloneOptions{
		Client:  client,
		TempDir: parent,
	})
	require.Error(t, err)

	leftovers, err := filepath.Glob(filepath.Join(parent, "repo2llm-clone-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
