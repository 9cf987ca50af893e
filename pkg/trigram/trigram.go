// Package trigram computes pg_trgm style similarity between short strings.
package trigram

import (
	"strings"
	"unicode"
)

// Set returns the trigrams of s the way pg_trgm extracts them: lower-cased
// alphanumeric words, each padded with two leading spaces and one trailing space.
func Set(s string) map[string]struct{} {
	out := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			out[string(padded[i:i+3])] = struct{}{}
		}
	}
	return out
}

// Similarity returns |A∩B| / |A∪B| over the trigram sets of a and b, in [0,1].
func Similarity(a, b string) float64 {
	ta, tb := Set(a), Set(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}
