// Package output renders collected file records as flat text, a markdown
// document or a JSON record, and delivers the artifact.
package output

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/quantmind-br/repo2llm/pkg/version"
)

// Document is everything a renderer needs
type Document struct {
	Repository  domain.Repository
	URL         string
	Files       []domain.FileRecord
	Stats       domain.Stats
	GeneratedAt time.Time
	Version     string
}

// NewDocument builds a Document with its records sorted by path. The input
// slice is not modified.
func NewDocument(repo domain.Repository, files []domain.FileRecord, stats domain.Stats, generatedAt time.Time) Document {
	sorted := append([]domain.FileRecord(nil), files...)
	SortRecords(sorted)

	return Document{
		Repository:  repo,
		URL:         repo.URL(),
		Files:       sorted,
		Stats:       stats.Clone(),
		GeneratedAt: generatedAt.UTC(),
		Version:     version.Short(),
	}
}

// SortRecords orders records by byte-wise path comparison
func SortRecords(files []domain.FileRecord) {
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}

// TotalLines sums the line counts of the records
func (d Document) TotalLines() int {
	n := 0
	for _, f := range d.Files {
		n += f.LineCount
	}
	return n
}

// TotalTokens sums the token estimates of the records
func (d Document) TotalTokens() int {
	n := 0
	for _, f := range d.Files {
		n += f.EstimatedTokens
	}
	return n
}

// Render produces the artifact for format
func Render(format domain.Format, doc Document) (string, error) {
	switch format {
	case domain.FormatText, "":
		return RenderText(doc), nil
	case domain.FormatMarkdown:
		return RenderMarkdown(doc), nil
	case domain.FormatJSON:
		return RenderJSON(doc)
	}
	return "", fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
}
