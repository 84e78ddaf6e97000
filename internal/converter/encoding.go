// Package converter normalizes fetched blobs to UTF-8 text.
package converter

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names reported by this package
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeBOM strips a UTF-8 BOM and decodes BOM-marked UTF-16 to UTF-8.
// Content without a BOM is returned unchanged with an empty name. It runs
// before binary sniffing, which would otherwise reject UTF-16 text for its
// NUL bytes.
func DecodeBOM(content []byte) ([]byte, string) {
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		return content[len(bomUTF8):], EncodingUTF8
	case bytes.HasPrefix(content, bomUTF16LE):
		if out, err := decodeUTF16(content, unicode.LittleEndian); err == nil {
			return out, EncodingUTF16LE
		}
	case bytes.HasPrefix(content, bomUTF16BE):
		if out, err := decodeUTF16(content, unicode.BigEndian); err == nil {
			return out, EncodingUTF16BE
		}
	}
	return content, ""
}

func decodeUTF16(content []byte, order unicode.Endianness) ([]byte, error) {
	dec := unicode.UTF16(order, unicode.ExpectBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, content)
	return out, err
}

// DetectEncoding names the encoding of text content. Valid UTF-8 is
// reported as such; anything else goes through charset sniffing, which
// falls back to windows-1252.
func DetectEncoding(content []byte) string {
	if utf8.Valid(content) {
		return EncodingUTF8
	}
	_, name, _ := charset.DetermineEncoding(content, "text/plain")
	if name == "" {
		return EncodingUTF8
	}
	return name
}

// ConvertToUTF8 converts content from its detected encoding to UTF-8 and
// returns the encoding it was read as.
func ConvertToUTF8(content []byte) ([]byte, string, error) {
	if utf8.Valid(content) {
		return content, EncodingUTF8, nil
	}

	enc, name, _ := charset.DetermineEncoding(content, "text/plain")
	out, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return nil, name, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, name, nil
}

// IsUTF8 checks if content is valid UTF-8
func IsUTF8(content []byte) bool {
	return utf8.Valid(content)
}
