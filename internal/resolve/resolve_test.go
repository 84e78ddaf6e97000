package resolve

import (
	"net/http"
	"testing"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.Repository
		wantErr bool
	}{
		{
			name:  "https",
			input: "https://github.com/octo/hello",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{
			name:  "https with .git suffix",
			input: "https://github.com/octo/hello.git",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{
			name:  "trailing slash and whitespace",
			input: "  https://github.com/octo/hello/  ",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{
			name:  "dots inside names are kept",
			input: "https://github.com/my.org/repo.github.io",
			want:  domain.Repository{Host: "github.com", Owner: "my.org", Name: "repo.github.io"},
		},
		{
			name:  "enterprise host is lowercased",
			input: "https://GHE.Example.com/team/svc",
			want:  domain.Repository{Host: "ghe.example.com", Owner: "team", Name: "svc"},
		},
		{
			name:  "ssh shape",
			input: "git@github.com:octo/hello.git",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{
			name:  "ssh without suffix",
			input: "git@github.com:octo/hello",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{
			name:  "tree URL selects ref and sub path",
			input: "https://github.com/octo/hello/tree/dev/docs/guide",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello", Ref: "dev", SubPath: "docs/guide"},
		},
		{
			name:  "tree URL without sub path",
			input: "https://github.com/octo/hello/tree/v1.0.0",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello", Ref: "v1.0.0"},
		},
		{
			name:  "other trailing segments are ignored",
			input: "https://github.com/octo/hello/issues?q=open",
			want:  domain.Repository{Host: "github.com", Owner: "octo", Name: "hello"},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "plain http rejected", input: "http://github.com/octo/hello", wantErr: true},
		{name: "missing repo", input: "https://github.com/octo", wantErr: true},
		{name: "bad characters", input: "https://github.com/oc to/hello", wantErr: true},
		{name: "dot dot", input: "https://github.com/../hello", wantErr: true},
		{name: "ssh with nested path", input: "git@github.com:octo/hello/extra", wantErr: true},
		{name: "not a URL", input: "octo/hello", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	got, err := CanonicalURL("git@github.com:octo/hello.git")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/octo/hello", got)

	_, err = CanonicalURL("ftp://x/y/z")
	assert.Error(t, err)
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"docs/", "docs"},
		{"/docs//api/", "docs/api"},
		{`docs\api`, "docs/api"},
		{"docs%20v2", "docs v2"},
		{"a/./b", "a/b"},
		{"../etc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePath(tt.in))
		})
	}
}

func TestResolveCredentials(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c, err := ResolveCredentials(domain.Auth{})
		require.NoError(t, err)

		assert.Equal(t, CredentialNone, c.Kind())
		assert.False(t, c.Authenticated())
		assert.Empty(t, c.Header())
		assert.Equal(t, AnonymousFingerprint, c.Fingerprint())

		_, _, ok := c.BasicAuth()
		assert.False(t, ok)
	})

	t.Run("token", func(t *testing.T) {
		c, err := ResolveCredentials(domain.Auth{Token: "ghp_abc"})
		require.NoError(t, err)

		assert.Equal(t, CredentialToken, c.Kind())
		assert.Equal(t, "token ghp_abc", c.Header())

		user, pass, ok := c.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "x-access-token", user)
		assert.Equal(t, "ghp_abc", pass)
	})

	t.Run("basic", func(t *testing.T) {
		c, err := ResolveCredentials(domain.Auth{Username: "user", Password: "pass"})
		require.NoError(t, err)

		assert.Equal(t, CredentialBasic, c.Kind())
		assert.Equal(t, "Basic dXNlcjpwYXNz", c.Header())
	})

	t.Run("token wins", func(t *testing.T) {
		c, err := ResolveCredentials(domain.Auth{Token: "t", Username: "u", Password: "p"})
		require.NoError(t, err)
		assert.Equal(t, CredentialToken, c.Kind())
	})

	t.Run("half basic rejected", func(t *testing.T) {
		_, err := ResolveCredentials(domain.Auth{Username: "user"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCredentials_Fingerprint(t *testing.T) {
	a, _ := ResolveCredentials(domain.Auth{Token: "one"})
	b, _ := ResolveCredentials(domain.Auth{Token: "one"})
	c, _ := ResolveCredentials(domain.Auth{Token: "two"})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotContains(t, a.Fingerprint(), "one")
	assert.Len(t, a.Fingerprint(), 16)
	assert.NotContains(t, a.String(), "one")
}

func TestCredentials_Apply(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://api.github.com", nil)
	require.NoError(t, err)

	none, _ := ResolveCredentials(domain.Auth{})
	none.Apply(req)
	assert.Empty(t, req.Header.Get("Authorization"))

	tok, _ := ResolveCredentials(domain.Auth{Token: "abc"})
	tok.Apply(req)
	assert.Equal(t, "token abc", req.Header.Get("Authorization"))
}
