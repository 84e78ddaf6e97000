package output

import "fmt"

// Band is a token-size assessment range, inclusive of Min and exclusive of
// Max. The last band has Max 0 and no upper bound.
type Band struct {
	Min    int
	Max    int
	Label  string
	Advice string
}

// Bands lists the assessment ranges in ascending order
var Bands = []Band{
	{0, 1000, "very small", "fits easily in any model's context window"},
	{1000, 4000, "small", "fits comfortably in most context windows"},
	{4000, 8000, "medium", "fits in most current models; older models may truncate it"},
	{8000, 16000, "large", "needs a model with a large context window"},
	{16000, 0, "very large", "likely exceeds many context windows; consider narrowing the tree"},
}

// Assess returns the band containing tokens
func Assess(tokens int) Band {
	if tokens < 0 {
		tokens = 0
	}
	for _, b := range Bands {
		if tokens >= b.Min && (b.Max == 0 || tokens < b.Max) {
			return b
		}
	}
	return Bands[len(Bands)-1]
}

// Assessment renders the token assessment paragraph
func Assessment(tokens int) string {
	b := Assess(tokens)
	return fmt.Sprintf("Token assessment: %s (%d estimated tokens). The content %s.", b.Label, tokens, b.Advice)
}
