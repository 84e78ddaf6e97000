package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	repo := Repository{Host: "github.com", Owner: "octo", Name: "hello"}

	assert.Equal(t, "octo/hello", repo.FullName())
	assert.Equal(t, "https://github.com/octo/hello", repo.URL())
	assert.Equal(t, DefaultBranchFallback, repo.Branch())

	repo.DefaultBranch = "develop"
	assert.Equal(t, "develop", repo.Branch())

	repo.Ref = "v1.2.0"
	assert.Equal(t, "v1.2.0", repo.Branch())
}

func TestExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/index.js", ".js"},
		{"README.MD", ".md"},
		{"archive.tar.gz", ".gz"},
		{".gitignore", ".gitignore"},
		{"Makefile", ""},
		{"dir.d/noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Extension(tt.path))
		})
	}
}

func TestFileRecord_Dir(t *testing.T) {
	assert.Equal(t, "", FileRecord{Path: "README.md"}.Dir())
	assert.Equal(t, "src/lib", FileRecord{Path: "src/lib/a.go"}.Dir())
}

func TestStats(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := Stats{Start: start}

	recs := []FileRecord{
		{Path: "a", ByteSize: 10, LineCount: 2, EstimatedTokens: 4},
		{Path: "b", ByteSize: 5, LineCount: 1, EstimatedTokens: 3},
	}
	for _, rec := range recs {
		stats.AddRecord(rec)
	}
	stats.AddSkip(SkipBinary, 1234)
	stats.AddSkip(SkipBySize, 500)

	// drift introduced by a partial increment must be reconciled
	stats.TotalTokens += 99
	stats.Finish(start.Add(1500*time.Millisecond), recs)

	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, int64(15), stats.TotalBytes)
	assert.Equal(t, 7, stats.TotalTokens)
	assert.Equal(t, 3, stats.TotalLines)
	assert.Equal(t, 2, stats.SkippedFiles)
	assert.Equal(t, int64(1734), stats.SkippedBytes)
	assert.Equal(t, 1, stats.SkipReasons[SkipBinary])
	assert.Equal(t, int64(1500), stats.ElapsedMS)
}

func TestStats_Clone(t *testing.T) {
	stats := Stats{}
	stats.AddSkip(SkipByName, 1)

	clone := stats.Clone()
	clone.SkipReasons[SkipByName] = 42

	assert.Equal(t, 1, stats.SkipReasons[SkipByName])
}

func TestFraction(t *testing.T) {
	assert.Nil(t, Fraction(3, 0))

	f := Fraction(17, 42)
	require.NotNil(t, f)
	assert.InDelta(t, 17.0/42.0, *f, 1e-9)

	assert.Equal(t, 1.0, *Fraction(5, 4))
}

func TestPhase_Terminal(t *testing.T) {
	assert.True(t, PhaseComplete.Terminal())
	assert.True(t, PhaseAborted.Terminal())
	assert.True(t, PhaseError.Terminal())
	assert.False(t, PhaseWaiting.Terminal())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"flat", FormatText, false},
		{"MD", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResponse_Clone(t *testing.T) {
	orig := &Response{StatusCode: 200, Body: []byte("abc"), Headers: map[string][]string{"X": {"1"}}}
	clone := orig.Clone()
	clone.Body[0] = 'z'
	clone.Headers.Set("X", "2")

	assert.Equal(t, "abc", string(orig.Body))
	assert.Equal(t, "1", orig.Headers.Get("X"))

	var nilResp *Response
	assert.Nil(t, nilResp.Clone())
}
