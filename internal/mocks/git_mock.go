package mocks

import (
	"context"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/mock"
)

// MockGitClient mocks git.Client
type MockGitClient struct {
	mock.Mock
}

// PlainCloneContext mocks the git clone operation. When the first return
// value is a func(path string) (*git.Repository, error) it is called with
// the destination so that tests can populate the clone.
func (m *MockGitClient) PlainCloneContext(ctx context.Context, path string, isBare bool, o *git.CloneOptions) (*git.Repository, error) {
	args := m.Called(ctx, path, isBare, o)
	switch v := args.Get(0).(type) {
	case nil:
		return nil, args.Error(1)
	case func(string) (*git.Repository, error):
		return v(path)
	}
	return args.Get(0).(*git.Repository), args.Error(1)
}
