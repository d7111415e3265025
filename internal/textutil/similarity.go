package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

// NormalizeTitle case-folds and trims a title for comparison and cache keys.
func NormalizeTitle(value string) string {
	return strings.Join(strings.Fields(cases.Fold().String(value)), " ")
}

// Similarity returns an edit-distance ratio in [0,1] between two titles after
// normalization. Identical titles score 1.0 and the result is symmetric.
func Similarity(a, b string) float64 {
	a = NormalizeTitle(a)
	b = NormalizeTitle(b)
	if a == b {
		return 1.0
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}
	distance := fuzzy.LevenshteinDistance(a, b)
	ratio := 1.0 - float64(distance)/float64(longest)
	if ratio < 0 {
		return 0
	}
	return ratio
}
