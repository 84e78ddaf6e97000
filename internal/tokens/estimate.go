// Package tokens provides the deterministic token heuristic used for file
// records and run totals. It does not model any real tokenizer.
package tokens

import (
	"math"
	"strings"
	"unicode"
)

// Estimate returns max(1, round((W + ceil(C/4)) / 2)) for non-empty text,
// where W counts whitespace-separated words after every punctuation or
// symbol rune is padded with spaces and C is the byte length. Empty text
// yields 0.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	c := len(text)
	w := Words(text)
	est := int(math.Round(float64(w+(c+3)/4) / 2))
	if est < 1 {
		return 1
	}
	return est
}

// Words counts words the way Estimate does: punctuation and symbol runes
// stand alone, everything else splits on whitespace.
func Words(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			inWord = false
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			words++
			inWord = false
		default:
			if !inWord {
				words++
				inWord = true
			}
		}
	}
	return words
}

// Lines returns the number of "\n"-separated segments. A trailing newline
// opens a final empty segment, so "a\n" has two.
func Lines(text string) int {
	return strings.Count(text, "\n") + 1
}
