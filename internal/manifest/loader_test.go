package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Load_FileNotFound(t *testing.T) {
	cfg, err := NewLoader().Load("/nonexistent/path/manifest.yaml")

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoader_Load_ValidYAML(t *testing.T) {
	path := writeManifest(t, "repos.yaml", `
sources:
  - url: https://github.com/org/api
    format: markdown
    skip_dirs: [testdata]
  - url: https://github.com/org/web/tree/main/src
    output: ./bundles/web.txt
options:
  output: ./bundles
  continue_on_error: true
`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "https://github.com/org/api", cfg.Sources[0].URL)
	assert.Equal(t, "markdown", cfg.Sources[0].Format)
	assert.Equal(t, []string{"testdata"}, cfg.Sources[0].SkipDirs)
	assert.Equal(t, "./bundles/web.txt", cfg.Sources[1].Output)
	assert.True(t, cfg.Options.ContinueOnError)
	assert.Equal(t, "./bundles", cfg.Options.Output)
	assert.Equal(t, DefaultOptions().Concurrency, cfg.Options.Concurrency)
}

func TestLoader_Load_ValidJSON(t *testing.T) {
	path := writeManifest(t, "repos.json", `{
		"sources": [
			{"url": "https://github.com/org/api", "skip_extensions": [".svg"]}
		],
		"options": {"concurrency": 10}
	}`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{".svg"}, cfg.Sources[0].SkipExtensions)
	assert.Equal(t, MaxConcurrency, cfg.Options.Concurrency, "concurrency is capped")
	assert.Equal(t, ".", cfg.Options.Output)
}

func TestLoader_LoadFromBytes_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		ext     string
		wantErr error
	}{
		{"unsupported extension", "sources: []", ".toml", ErrUnsupportedExt},
		{"invalid yaml", "sources: [", ".yaml", ErrInvalidFormat},
		{"invalid json", "{", ".json", ErrInvalidFormat},
		{"no sources", "sources: []", ".yml", ErrNoSources},
		{"empty url", "sources:\n  - format: text\n", ".yaml", ErrEmptyURL},
		{"unknown format", "sources:\n  - url: https://github.com/o/r\n    format: yaml\n", ".yaml", domain.ErrInvalidInput},
		{"not a repository", "sources:\n  - url: https://github.com/only-owner\n", ".yaml", ErrInvalidURL},
		{"reserved output name", "sources:\n  - url: https://github.com/o/r\n    output: out/CON\n", ".yaml", ErrInvalidOutput},
		{"invalid output characters", "sources:\n  - url: https://github.com/o/r\n    output: \"out/a<b>.md\"\n", ".yaml", ErrInvalidOutput},
		{"shared output", "sources:\n  - url: https://github.com/o/a\n    output: out/x.md\n  - url: https://github.com/o/b\n    output: ./out/x.md\n", ".yaml", ErrDuplicateOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewLoader().LoadFromBytes([]byte(tt.data), tt.ext)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoader_LoadFromBytes_UppercaseExtension(t *testing.T) {
	cfg, err := NewLoader().LoadFromBytes([]byte("sources:\n  - url: https://github.com/o/r\n"), ".YAML")
	require.NoError(t, err)
	assert.Len(t, cfg.Sources, 1)
}

func TestLoader_LoadFromBytes_NormalizesSources(t *testing.T) {
	cfg, err := NewLoader().LoadFromBytes([]byte(`
sources:
  - url: "  https://github.com/o/r  "
    format: Markdown
    skip_extensions: [SVG, " .PNG "]
`), ".yaml")
	require.NoError(t, err)

	src := cfg.Sources[0]
	assert.Equal(t, "https://github.com/o/r", src.URL)
	assert.Equal(t, "markdown", src.Format)
	assert.Equal(t, []string{".svg", ".png"}, src.SkipExtensions)
}

func TestLoader_Load_SSHURL(t *testing.T) {
	path := writeManifest(t, "repos.yml", "sources:\n  - url: git@github.com:org/api.git\n")

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:org/api.git", cfg.Sources[0].URL)
}
