package extraction

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	lowerUpperRe = regexp.MustCompile(`([a-zäöüß0-9])([A-ZÄÖÜ])`)
	acronymRe    = regexp.MustCompile(`([A-ZÄÖÜ]+)([A-ZÄÖÜ][a-zäöüß])`)
)

// brandPrefixes are all-caps product lines that vendors glue onto the next
// all-caps run ("CERECMTL").
var brandPrefixes = []string{"CEREC", "KATANA", "VITA", "BEGO", "IPS"}

// SplitCompound spaces out a camel-case compound token: a space goes before
// each capitalized run, at every all-caps-to-Capitalized boundary, and after
// a known brand prefix fused to another capital run of two or more letters.
func SplitCompound(token string) string {
	s := lowerUpperRe.ReplaceAllString(token, "$1 $2")
	s = acronymRe.ReplaceAllString(s, "$1 $2")

	words := strings.Fields(s)
	out := make([]string, 0, len(words)+1)
	for _, w := range words {
		out = append(out, splitBrand(w)...)
	}
	return strings.Join(out, " ")
}

func splitBrand(word string) []string {
	if !isUpper(word) {
		return []string{word}
	}
	for _, p := range brandPrefixes {
		if len(word) >= len(p)+2 && strings.HasPrefix(word, p) {
			return []string{p, word[len(p):]}
		}
	}
	return []string{word}
}

func isUpper(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			return false
		}
	}
	return s != ""
}
