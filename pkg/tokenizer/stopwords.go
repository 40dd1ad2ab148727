package tokenizer

// Stopwords filtered out of queries and block content before matching.
// English filler plus words too generic to rank code by.
var stopwords = map[string]bool{
	// Articles
	"a": true, "an": true, "the": true,
	// Prepositions
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "into": true,
	// Conjunctions
	"and": true, "or": true, "but": true, "if": true, "then": true, "else": true,
	// Common verbs
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"can": true, "will": true, "should": true, "would": true,
	// Question words (not useful for code search)
	"how": true, "what": true, "where": true, "when": true, "why": true, "which": true,
	// Search phrasing
	"find": true, "show": true, "get": true, "list": true, "all": true,
	"this": true, "that": true, "it": true, "its": true, "me": true, "my": true,
}

// IsStopword reports whether a lowercase token carries no search signal.
func IsStopword(token string) bool {
	return len(token) < 2 || stopwords[token]
}
