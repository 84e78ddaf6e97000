package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	textFilePrefix = "FILE: "
	textRule       = "--------------------------------------------------"
)

// RenderText renders the flat text shape: a summary header followed by one
// block per file.
func RenderText(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s\n\n", doc.URL)
	fmt.Fprintf(&b, "Generated at: %s\n", doc.GeneratedAt.UTC().Format(time.RFC3339))
	for _, line := range summaryLines(doc) {
		fmt.Fprintf(&b, "%s: %s\n", line.key, line.value)
	}
	b.WriteString("\n")
	b.WriteString(Assessment(doc.TotalTokens()))
	b.WriteString("\n\n")

	for _, f := range doc.Files {
		header := textFilePrefix + f.Path
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", len(header)))
		b.WriteString("\n")
		fmt.Fprintf(&b, "Size: %s\n", formatSize(int64(len(f.Content))))
		fmt.Fprintf(&b, "Lines: %d\n", f.LineCount)
		if f.LastModified != nil {
			fmt.Fprintf(&b, "Last modified: %s\n", f.LastModified.UTC().Format(time.RFC3339))
		}
		b.WriteString(textRule)
		b.WriteString("\n")
		writeContent(&b, f.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

type summaryLine struct {
	key   string
	value string
}

// summaryLines is the stats block shared by the text and markdown shapes
func summaryLines(doc Document) []summaryLine {
	s := doc.Stats
	return []summaryLine{
		{"Files", humanize.Comma(int64(len(doc.Files)))},
		{"Total size", formatSize(totalBytes(doc))},
		{"Total lines", humanize.Comma(int64(doc.TotalLines()))},
		{"Estimated tokens", humanize.Comma(int64(doc.TotalTokens()))},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Skipped", fmt.Sprintf("%s files (%s)", humanize.Comma(int64(s.SkippedFiles)), humanize.Bytes(uint64(max(s.SkippedBytes, 0))))},
	}
}

func totalBytes(doc Document) int64 {
	var n int64
	for _, f := range doc.Files {
		n += f.ByteSize
	}
	return n
}

// formatSize renders "1.2 kB (1,234 bytes)". The exact count lets parsers
// recover content byte for byte.
func formatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%s (%s bytes)", humanize.Bytes(uint64(n)), humanize.Comma(n))
}

// writeContent writes content and terminates it with a newline if it has
// none of its own.
func writeContent(b *strings.Builder, content string) {
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
}
