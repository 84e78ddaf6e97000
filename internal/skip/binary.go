package skip

import (
	"bytes"
	"unicode/utf8"
)

// SniffLen is the number of leading bytes the binary heuristic inspects.
const SniffLen = 1024

// MinPrintableRatio is the printable share below which a blob is binary.
const MinPrintableRatio = 0.8

// MaxNullBytes is the number of NUL bytes tolerated in the sniffed prefix.
const MaxNullBytes = 1

// signatures are magic numbers of common binary formats
var signatures = []struct {
	name  string
	magic []byte
}{
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"png", []byte{0x89, 0x50, 0x4E, 0x47}},
	{"gif", []byte{0x47, 0x49, 0x46}},
	{"zip", []byte{0x50, 0x4B, 0x03, 0x04}},
	{"gzip", []byte{0x1F, 0x8B}},
	{"pdf", []byte{0x25, 0x50, 0x44, 0x46}},
	{"mp3", []byte{0x49, 0x44, 0x33}},
	{"mp4", []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70}},
}

// Signature returns the name of the binary format head starts with, or "".
func Signature(head []byte) string {
	for _, sig := range signatures {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.name
		}
	}
	return ""
}

// IsBinary reports whether head looks like binary content: a known
// signature, more than one NUL in the first KiB, or a printable share below
// 80%. Bytes of well-formed multi-byte UTF-8 runes count as printable.
func IsBinary(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	if Signature(head) != "" {
		return true
	}

	sample := head
	if len(sample) > SniffLen {
		sample = sample[:SniffLen]
	}
	if bytes.Count(sample, []byte{0}) > MaxNullBytes {
		return true
	}
	return PrintableRatio(sample) < MinPrintableRatio
}

// PrintableRatio returns the share of bytes in sample that are printable
// ASCII, common whitespace, or part of a valid multi-byte UTF-8 rune.
func PrintableRatio(sample []byte) float64 {
	if len(sample) == 0 {
		return 1
	}

	printable := 0
	for i := 0; i < len(sample); {
		b := sample[i]
		if b < utf8.RuneSelf {
			if isPrintableASCII(b) {
				printable++
			}
			i++
			continue
		}

		r, size := utf8.DecodeRune(sample[i:])
		switch {
		case r != utf8.RuneError || size > 1:
			printable += size
			i += size
		case !utf8.FullRune(sample[i:]):
			// rune cut by the sniff window
			printable += len(sample) - i
			i = len(sample)
		default:
			i++
		}
	}
	return float64(printable) / float64(len(sample))
}

func isPrintableASCII(b byte) bool {
	switch b {
	case '\t', '\n', '\r', '\f':
		return true
	}
	return b >= 0x20 && b < 0x7F
}
