// Package textutil normalises Vietnamese product and search text so that
// "ao so mi" matches "áo sơ mi".
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the input and strips combining diacritical marks. The
// Vietnamese đ/Đ letters fall outside the Mn class and are mapped by hand.
func Fold(input string) string {
	folded, _, err := transform.String(foldTransformer, input)
	if err != nil {
		folded = input
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "đ", "d")
	return strings.TrimSpace(folded)
}

// Keywords splits the folded input into unique lowercase tokens suitable
// for array-contains search indexing.
func Keywords(input string) []string {
	fields := strings.Fields(Fold(input))
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return out
}
