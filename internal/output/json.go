package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// Record is the JSON shape
type Record struct {
	Files []RecordFile `json:"files"`
	Stats domain.Stats `json:"stats"`
	Meta  RecordMeta   `json:"meta"`
}

// RecordFile is one file of a Record
type RecordFile struct {
	Path         string     `json:"path"`
	Size         int64      `json:"size"`
	Lines        int        `json:"lines"`
	Extension    string     `json:"extension"`
	LastModified *time.Time `json:"last_modified"`
	Content      string     `json:"content"`
}

// RecordMeta describes the run that produced a Record
type RecordMeta struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Version     string        `json:"version"`
	Format      domain.Format `json:"format"`
	TotalTokens int           `json:"total_tokens"`
	TotalLines  int           `json:"total_lines"`
	Repository  string        `json:"repository"`
}

// NewRecord converts doc to its JSON shape
func NewRecord(doc Document) Record {
	files := make([]RecordFile, 0, len(doc.Files))
	for _, f := range doc.Files {
		files = append(files, RecordFile{
			Path:         f.Path,
			Size:         f.ByteSize,
			Lines:        f.LineCount,
			Extension:    f.Extension(),
			LastModified: f.LastModified,
			Content:      f.Content,
		})
	}

	stats := doc.Stats.Clone()
	stats.TotalTokens = doc.TotalTokens()

	return Record{
		Files: files,
		Stats: stats,
		Meta: RecordMeta{
			GeneratedAt: doc.GeneratedAt.UTC(),
			Version:     doc.Version,
			Format:      domain.FormatJSON,
			TotalTokens: stats.TotalTokens,
			TotalLines:  doc.TotalLines(),
			Repository:  doc.URL,
		},
	}
}

// RenderJSON renders the structured record shape, indented, without HTML
// escaping.
func RenderJSON(doc Document) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewRecord(doc)); err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return buf.String(), nil
}
