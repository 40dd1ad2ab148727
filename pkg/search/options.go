package search

import "github.com/XiaoConstantine/probe/pkg/rank"

// defaultMaxTokens caps total returned tokens for LLM context compatibility.
const defaultMaxTokens = 10000

// Options configures one search request.
type Options struct {
	// Query is the elastic-style boolean query.
	Query string
	// Path is the search root.
	Path string
	// AllowTests includes test files and lifts the test-block penalty.
	AllowTests bool
	// Exact disables stemming and matches literal substrings.
	Exact bool
	// AnyTerm joins bare terms with OR instead of AND.
	AnyTerm bool
	// IncludeComments keeps comment text in matching and indexing.
	IncludeComments bool
	// MaxResults caps the number of returned blocks. 0 means unbounded.
	MaxResults int
	// MaxTokens caps the total token count of returned blocks.
	MaxTokens int
	// Language restricts the search to one registry language.
	Language string
	// PathGlob restricts files to a doublestar pattern, e.g. "**/handlers/*.go".
	PathGlob string
	// SessionID suppresses blocks already returned in this session. The
	// value "new" allocates a fresh session id, reported on the result.
	SessionID string
	// Ranker selects the scoring mode.
	Ranker rank.Mode
	// MergeGap merges blocks separated by at most this many lines.
	MergeGap int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		IncludeComments: true,
		MaxTokens:       defaultMaxTokens,
		Ranker:          rank.ModeHybrid,
	}
}

func (o *Options) normalize() {
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	if o.Ranker == "" {
		o.Ranker = rank.ModeHybrid
	}
}
