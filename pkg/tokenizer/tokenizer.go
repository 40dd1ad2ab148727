// Package tokenizer normalizes identifiers and query words into the
// stemmed lowercase tokens the scanner and ranker match on.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/surgebase/porter2"
)

// stemMinLength guards the stemmer against mangling short tokens like "go" or "id".
const stemMinLength = 3

// stemExclusions are tokens the stemmer must never rewrite. Mostly primitive
// type names that stem into unrelated words.
var stemExclusions = map[string]bool{
	"string": true,
	"bytes":  true,
	"async":  true,
	"axios":  true,
}

// Options controls tokenization behavior.
type Options struct {
	// Stem applies snowball stemming to each token. Disabled for exact-match
	// normalization.
	Stem bool
	// Dict enables compound splitting of long tokens. Nil disables.
	Dict *Dictionary
}

// Tokenize splits input into normalized tokens: separator split, camelCase
// split, letter/digit split, optional compound decomposition, lowercase,
// stem, stopword removal.
func Tokenize(input string, opts Options) []string {
	var tokens []string
	for _, word := range splitWords(input) {
		for _, part := range SplitIdentifier(word) {
			for _, tok := range expandCompound(part, opts.Dict) {
				tok = strings.ToLower(tok)
				if opts.Stem {
					tok = Stem(tok)
				}
				if tok == "" || IsStopword(tok) {
					continue
				}
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// Stem returns the porter2 stem of a lowercase token. Short tokens and
// exclusions pass through unchanged.
func Stem(token string) string {
	if len(token) < stemMinLength || stemExclusions[token] {
		return token
	}
	return porter2.Stem(token)
}

// splitWords breaks input on anything that is not alphanumeric or underscore.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// SplitIdentifier splits one identifier into its parts: underscore, hyphen
// and dot separators first, then camelCase boundaries, then letter/digit
// boundaries. "getHTTPClient2" -> [get HTTP Client 2].
func SplitIdentifier(s string) []string {
	var parts []string
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	}) {
		parts = append(parts, splitCamel(seg)...)
	}
	return parts
}

// splitCamel splits on lower->Upper, Upper->UpperLower and letter<->digit
// boundaries.
func splitCamel(s string) []string {
	runes := []rune(s)
	if len(runes) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]

		split := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			// getUser -> get|User
			split = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			// HTTPClient -> HTTP|Client
			split = true
		case unicode.IsLetter(prev) && unicode.IsDigit(cur):
			split = true
		case unicode.IsDigit(prev) && unicode.IsLetter(cur):
			split = true
		}

		if split {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

// expandCompound decomposes a long token into dictionary words when possible.
// The original token is dropped in favor of its parts only when the whole
// token is not itself a dictionary word.
func expandCompound(token string, dict *Dictionary) []string {
	if dict == nil {
		return []string{token}
	}
	parts := dict.Split(strings.ToLower(token))
	if len(parts) <= 1 {
		return []string{token}
	}
	return parts
}
