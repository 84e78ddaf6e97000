package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/repo2llm/internal/domain"
)

// ParsedFile is a (path, content) pair recovered from a rendered artifact
type ParsedFile struct {
	Path    string
	Content string
}

// ErrMalformed is returned when an artifact does not have the expected shape
var ErrMalformed = errors.New("malformed artifact")

// Parse recovers the files of an artifact rendered in format
func Parse(format domain.Format, data string) ([]ParsedFile, error) {
	switch format {
	case domain.FormatText, "":
		return parseText(data)
	case domain.FormatMarkdown:
		return parseMarkdown(data)
	case domain.FormatJSON:
		return parseJSON(data)
	}
	return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
}

func parseJSON(data string) ([]ParsedFile, error) {
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	out := make([]ParsedFile, 0, len(rec.Files))
	for _, f := range rec.Files {
		out = append(out, ParsedFile{Path: f.Path, Content: f.Content})
	}
	return out, nil
}

func parseText(data string) ([]ParsedFile, error) {
	sc := &scanner{data: data}
	if !sc.seekLine(func(line string) bool { return strings.HasPrefix(line, textFilePrefix) }) {
		return nil, nil
	}

	var out []ParsedFile
	for !sc.done() {
		header, _ := sc.line()
		if !strings.HasPrefix(header, textFilePrefix) {
			return nil, sc.errorf("expected %q line, got %q", textFilePrefix, header)
		}
		p := strings.TrimPrefix(header, textFilePrefix)
		if underline, _ := sc.line(); underline != strings.Repeat("=", len(header)) {
			return nil, sc.errorf("missing underline for %s", p)
		}

		size := -1
		for {
			line, ok := sc.line()
			if !ok {
				return nil, sc.errorf("unterminated header for %s", p)
			}
			if line == textRule {
				break
			}
			if v, ok := strings.CutPrefix(line, "Size: "); ok {
				size = exactSize(v)
			}
		}
		if size < 0 {
			return nil, sc.errorf("missing size for %s", p)
		}

		content, err := sc.content(size)
		if err != nil {
			return nil, err
		}
		if !sc.skip("\n\n") {
			return nil, sc.errorf("missing trailer after %s", p)
		}
		out = append(out, ParsedFile{Path: p, Content: content})
	}
	return out, nil
}

func parseMarkdown(data string) ([]ParsedFile, error) {
	sc := &scanner{data: data}

	var out []ParsedFile
	for sc.seekLine(func(line string) bool { return strings.HasPrefix(line, "### ") }) {
		sc.line()

		p, size := "", -1
		for {
			line, ok := sc.line()
			if !ok {
				return nil, sc.errorf("unterminated file section")
			}
			if strings.HasPrefix(line, "```") {
				break
			}
			if v, ok := strings.CutPrefix(line, "- **Path:** "); ok {
				p = unCodeSpan(v)
			}
			if v, ok := strings.CutPrefix(line, "- **Size:** "); ok {
				size = exactSize(v)
			}
		}
		if p == "" || size < 0 {
			return nil, sc.errorf("file section without path or size")
		}

		content, err := sc.content(size)
		if err != nil {
			return nil, err
		}
		if fence, _ := sc.line(); !strings.HasPrefix(fence, "```") {
			return nil, sc.errorf("missing closing fence for %s", p)
		}
		out = append(out, ParsedFile{Path: p, Content: content})
	}
	return out, nil
}

// exactSize extracts N from "1.2 kB (1,234 bytes)"
func exactSize(v string) int {
	open := strings.LastIndex(v, "(")
	if open < 0 {
		return -1
	}
	num, ok := strings.CutSuffix(v[open+1:], " bytes)")
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(strings.ReplaceAll(num, ",", ""))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

func unCodeSpan(v string) string {
	ticks := 0
	for ticks < len(v) && v[ticks] == '`' {
		ticks++
	}
	if ticks == 0 {
		return v
	}
	fence := v[:ticks]
	inner, ok := strings.CutSuffix(v[ticks:], fence)
	if !ok {
		return v
	}
	if ticks > 1 && len(inner) >= 2 && inner[0] == ' ' && inner[len(inner)-1] == ' ' {
		inner = inner[1 : len(inner)-1]
	}
	return inner
}

// scanner walks an artifact line by line while allowing exact byte reads
type scanner struct {
	data string
	pos  int
}

func (s *scanner) done() bool {
	return s.pos >= len(s.data)
}

// line returns the next line without its newline
func (s *scanner) line() (string, bool) {
	if s.done() {
		return "", false
	}
	rest := s.data[s.pos:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		s.pos += i + 1
		return rest[:i], true
	}
	s.pos = len(s.data)
	return rest, true
}

// seekLine advances to the start of the next line matching match
func (s *scanner) seekLine(match func(string) bool) bool {
	for !s.done() {
		start := s.pos
		line, _ := s.line()
		if match(line) {
			s.pos = start
			return true
		}
	}
	return false
}

// content reads n bytes followed by the newline added to unterminated
// content.
func (s *scanner) content(n int) (string, error) {
	if s.pos+n > len(s.data) {
		return "", s.errorf("content of %d bytes runs past the end", n)
	}
	c := s.data[s.pos : s.pos+n]
	s.pos += n
	if !strings.HasSuffix(c, "\n") && !s.skip("\n") {
		return "", s.errorf("content not followed by a newline")
	}
	return c, nil
}

func (s *scanner) skip(prefix string) bool {
	if strings.HasPrefix(s.data[s.pos:], prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformed, s.pos, fmt.Sprintf(format, args...))
}
