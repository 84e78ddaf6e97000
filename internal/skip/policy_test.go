package skip

import (
	"bytes"
	"strings"
	"testing"

	"github.com/quantmind-br/repo2llm/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testPolicy() *Policy {
	return New(Options{
		SkipDirs:       []string{"node_modules", ".git", "dist"},
		SkipFiles:      []string{"package-lock.json", ".DS_Store", "dist"},
		SkipExtensions: []string{".png", "JPG", "lock"},
		MaxFileBytes:   100,
	})
}

func TestPolicy_Classify(t *testing.T) {
	p := testPolicy()
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	tests := []struct {
		name string
		c    Candidate
		want domain.Decision
	}{
		{"plain source", Candidate{Path: "src/main.go", Size: 10, HasSize: true, Head: []byte("package main\n")}, domain.Accept},
		{"nested skip dir", Candidate{Path: "web/node_modules/react/index.js"}, domain.SkipByDir},
		{"skip dir at root", Candidate{Path: ".git/config"}, domain.SkipByDir},
		{"directory itself", Candidate{Path: "app/node_modules", IsDir: true}, domain.SkipByDir},
		{"accepted directory", Candidate{Path: "src/lib", IsDir: true}, domain.Accept},
		{"directory named like a skipped file", Candidate{Path: "x/package-lock.json", IsDir: true}, domain.SkipByName},
		{"directories ignore extension rule", Candidate{Path: "assets.png", IsDir: true}, domain.Accept},
		{"filename", Candidate{Path: "package-lock.json"}, domain.SkipByName},
		{"filename nested", Candidate{Path: "a/b/.DS_Store"}, domain.SkipByName},
		{"extension", Candidate{Path: "img/logo.png"}, domain.SkipByExtension},
		{"extension case-insensitive", Candidate{Path: "IMG/PHOTO.JpG"}, domain.SkipByExtension},
		{"extension without dot in config", Candidate{Path: "Cargo.lock"}, domain.SkipByExtension},
		{"size over cap", Candidate{Path: "big.txt", Size: 500, HasSize: true}, domain.SkipBySize},
		{"size at cap", Candidate{Path: "edge.txt", Size: 100, HasSize: true}, domain.Accept},
		{"unknown size skips size rule", Candidate{Path: "big.txt", Size: 500}, domain.Accept},
		{"binary signature", Candidate{Path: "logo.bin", Size: 10, HasSize: true, Head: png}, domain.SkipBinary},
		{"no head skips binary rule", Candidate{Path: "logo.bin"}, domain.Accept},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.c))
		})
	}
}

// Overlapping rules resolve in the fixed order dir, name, extension, size,
// binary; each is reachable on its own.
func TestPolicy_RuleOrder(t *testing.T) {
	p := testPolicy()
	png := []byte{0x89, 0x50, 0x4E, 0x47}

	tests := []struct {
		name string
		c    Candidate
		want domain.Decision
	}{
		{"dir beats name", Candidate{Path: "dist/package-lock.json"}, domain.SkipByDir},
		{"dir beats everything", Candidate{Path: "node_modules/x.png", Size: 999, HasSize: true, Head: png}, domain.SkipByDir},
		{"name beats extension", Candidate{Path: ".DS_Store"}, domain.SkipByName},
		{"extension beats size", Candidate{Path: "huge.png", Size: 999, HasSize: true}, domain.SkipByExtension},
		{"size beats binary", Candidate{Path: "huge.dat", Size: 999, HasSize: true, Head: png}, domain.SkipBySize},
		{"binary last", Candidate{Path: "small.dat", Size: 4, HasSize: true, Head: png}, domain.SkipBinary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.c))
		})
	}
}

func TestPolicy_CapDisabled(t *testing.T) {
	p := New(Options{MaxFileBytes: 0})
	assert.Equal(t, domain.Accept, p.CheckSize(1<<40))
	assert.Equal(t, int64(0), p.MaxFileBytes())

	negative := New(Options{MaxFileBytes: -5})
	assert.Equal(t, domain.Accept, negative.CheckSize(10))
}

func TestPolicy_EmptyPath(t *testing.T) {
	p := testPolicy()
	assert.Equal(t, domain.Accept, p.CheckPath("", true))
	assert.Equal(t, domain.Accept, p.CheckPath("/", true))
}

func TestPolicy_Pure(t *testing.T) {
	p := testPolicy()
	c := Candidate{Path: "src/a.go", Size: 5, HasSize: true, Head: []byte("hello")}

	first := p.Classify(c)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Classify(c))
	}
}

func TestSignature(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G'}, "png"},
		{"gif", []byte("GIF89a"), "gif"},
		{"zip", []byte{'P', 'K', 3, 4}, "zip"},
		{"gzip", []byte{0x1F, 0x8B, 8}, "gzip"},
		{"pdf", []byte("%PDF-1.7"), "pdf"},
		{"mp3", []byte("ID3\x03"), "mp3"},
		{"mp4", []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'm'}, "mp4"},
		{"text", []byte("hello"), ""},
		{"short", []byte{0x89}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Signature(tt.head))
		})
	}
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want bool
	}{
		{"empty", nil, false},
		{"ascii source", []byte("func main() {\n\tprintln(\"hi\")\n}\n"), false},
		{"utf8 prose", []byte(strings.Repeat("日本語のテキスト ", 50)), false},
		{"one null tolerated", append([]byte("abcdefghij"), 0), false},
		{"two nulls", []byte("a\x00b\x00c"), true},
		{"nulls past first KiB ignored", append(bytes.Repeat([]byte("a"), SniffLen), 0, 0, 0), false},
		{"control bytes", bytes.Repeat([]byte{0x01, 0x02, 'a'}, 100), true},
		{"invalid utf8", bytes.Repeat([]byte{0xC3, 0x28, 0xFF, 'a', 'b'}, 50), true},
		{"signature wins", []byte("%PDF just text"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBinary(tt.head))
		})
	}
}

func TestPrintableRatio(t *testing.T) {
	assert.Equal(t, 1.0, PrintableRatio(nil))
	assert.Equal(t, 1.0, PrintableRatio([]byte("plain\ttext\r\n")))
	assert.Equal(t, 0.5, PrintableRatio([]byte{'a', 0x01}))

	// a multi-byte rune split by the sniff window still counts as printable
	cut := append(bytes.Repeat([]byte("a"), 10), 0xE6, 0x97)
	assert.Equal(t, 1.0, PrintableRatio(cut))
}
