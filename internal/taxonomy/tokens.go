package taxonomy

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it into skill tokens. Letters, digits, '+',
// '#' and '&' always belong to a token; '.' belongs to a token only when a letter
// or digit follows it, so "node.js" and ".net" survive while sentence dots do
// not. Everything else separates tokens.
func Tokenize(s string) []string {
	runes := []rune(strings.ToLower(s))
	tokens := make([]string, 0, len(runes)/5)

	var word strings.Builder
	flush := func() {
		if word.Len() == 0 {
			return
		}
		tokens = append(tokens, word.String())
		word.Reset()
	}

	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '&':
			word.WriteRune(r)
		case r == '.' && i+1 < len(runes) && (unicode.IsLetter(runes[i+1]) || unicode.IsDigit(runes[i+1])):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return tokens
}

// Key is the lookup key of a token sequence.
func Key(tokens []string) string {
	return strings.Join(tokens, " ")
}
