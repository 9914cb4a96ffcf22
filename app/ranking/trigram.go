// Package ranking orders posts for the similar-posts box and the title search.
//
// Stores that cannot push ranking down into their query engine load the
// candidate posts and rank them here. The trigram metric mirrors PostgreSQL's
// pg_trgm so that both store families return the same order.
package ranking

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the similarity a title must exceed to appear in search results.
const DefaultThreshold = 0.1

// Trigrams returns the set of trigrams of s. Words are lower-cased runs of
// letters and digits, each padded with two spaces in front and one behind.
func Trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity returns the share of trigrams a and b have in common, in [0,1].
func Similarity(a, b string) float64 {
	ta, tb := Trigrams(a), Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return float64(common) / float64(len(ta)+len(tb)-common)
}
