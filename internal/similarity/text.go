package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text into case-folded word tokens of at least two word
// characters (letters, digits, underscore) and drops English stop words.
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	folded := cases.Fold().String(norm.NFKC.String(text))

	var out []string
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := folded[start:end]
		start = -1
		if len([]rune(tok)) < 2 || IsStopWord(tok) {
			return
		}
		out = append(out, tok)
	}
	for i, r := range folded {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(folded))
	return out
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
