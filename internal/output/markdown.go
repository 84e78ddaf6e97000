package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

const (
	markdownTitle = "Repository Content"
	markdownTOC   = "Table of Contents"
	rootHeading   = "(root)"
)

// dirGroup is the records of one directory in path order
type dirGroup struct {
	dir     string
	anchor  string
	files   []domain.FileRecord
	anchors []string
}

// RenderMarkdown renders the structured document shape: title, summary,
// table of contents grouped by directory, then one section per directory
// with a fenced block per file.
func RenderMarkdown(doc Document) string {
	slugs := newSlugger()
	slugs.add(markdownTitle)
	slugs.add(markdownTOC)
	groups := groupByDir(doc.Files, slugs)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", markdownTitle)
	fmt.Fprintf(&b, "- **Repository:** %s\n", doc.URL)
	fmt.Fprintf(&b, "- **Generated at:** %s\n", doc.GeneratedAt.UTC().Format(time.RFC3339))
	for _, line := range summaryLines(doc) {
		fmt.Fprintf(&b, "- **%s:** %s\n", line.key, line.value)
	}
	b.WriteString("\n")
	b.WriteString(Assessment(doc.TotalTokens()))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## %s\n\n", markdownTOC)
	for _, g := range groups {
		fmt.Fprintf(&b, "- [%s](#%s)\n", dirTitle(g.dir), g.anchor)
		for i, f := range g.files {
			fmt.Fprintf(&b, "  - [%s](#%s)\n", baseName(f.Path), g.anchors[i])
		}
	}
	b.WriteString("\n")

	for _, g := range groups {
		fmt.Fprintf(&b, "## %s\n\n", dirTitle(g.dir))
		for _, f := range g.files {
			writeMarkdownFile(&b, f)
		}
	}
	return b.String()
}

func writeMarkdownFile(b *strings.Builder, f domain.FileRecord) {
	fmt.Fprintf(b, "### %s\n\n", baseName(f.Path))
	fmt.Fprintf(b, "- **Path:** %s\n", codeSpan(f.Path))
	fmt.Fprintf(b, "- **Size:** %s\n", formatSize(int64(len(f.Content))))
	fmt.Fprintf(b, "- **Lines:** %d\n", f.LineCount)
	if f.LastModified != nil {
		fmt.Fprintf(b, "- **Last modified:** %s\n", f.LastModified.UTC().Format(time.RFC3339))
	}
	b.WriteString("\n")

	fence := fenceFor(f.Content)
	b.WriteString(fence)
	b.WriteString(Language(f.Path))
	b.WriteString("\n")
	writeContent(b, f.Content)
	b.WriteString(fence)
	b.WriteString("\n\n")
}

func groupByDir(files []domain.FileRecord, slugs *slugger) []dirGroup {
	var groups []dirGroup
	index := make(map[string]int)
	for _, f := range files {
		dir := f.Dir()
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, dirGroup{dir: dir})
		}
		groups[i].files = append(groups[i].files, f)
	}

	// anchors follow heading order, which is group order
	for i := range groups {
		g := &groups[i]
		g.anchor = slugs.add(dirTitle(g.dir))
		for _, f := range g.files {
			g.anchors = append(g.anchors, slugs.add(baseName(f.Path)))
		}
	}
	return groups
}

func dirTitle(dir string) string {
	if dir == "" {
		return rootHeading
	}
	return dir
}

func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// fenceFor returns a backtick fence longer than any backtick run in content
func fenceFor(content string) string {
	return strings.Repeat("`", max(3, longestBacktickRun(content)+1))
}

// codeSpan wraps s in an inline code span that survives embedded backticks
func codeSpan(s string) string {
	n := longestBacktickRun(s)
	if n == 0 {
		return "`" + s + "`"
	}
	ticks := strings.Repeat("`", n+1)
	return ticks + " " + s + " " + ticks
}

func longestBacktickRun(s string) int {
	longest, run := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return longest
}

// slugger produces GitHub-style heading anchors, numbering repeats
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: make(map[string]int)}
}

func (s *slugger) add(heading string) string {
	base := slugify(heading)
	n, ok := s.seen[base]
	s.seen[base] = n + 1
	if !ok {
		return base
	}
	slug := base + "-" + strconv.Itoa(n)
	s.seen[slug]++
	return slug
}

// slugify lowercases heading, drops punctuation other than '-' and '_', and
// turns spaces into hyphens.
func slugify(heading string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}
