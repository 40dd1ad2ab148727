// Package probe provides local, AI-oriented code search and extraction.
// Given a query and a root directory it returns the most relevant syntactic
// blocks (functions, classes, methods) ranked by relevance, under a token
// budget suitable for feeding to language models.
//
// For CLI usage, install with: go install github.com/XiaoConstantine/probe/cmd/probe@latest
//
// For library usage:
//
//	opts := probe.DefaultSearchOptions()
//	opts.Query = "authentication logic"
//	opts.Path = "/path/to/codebase"
//	result, err := probe.Search(ctx, opts)
package probe

import (
	"context"

	"github.com/XiaoConstantine/probe/pkg/extract"
	"github.com/XiaoConstantine/probe/pkg/query"
	"github.com/XiaoConstantine/probe/pkg/scanner"
	"github.com/XiaoConstantine/probe/pkg/search"
	"github.com/XiaoConstantine/probe/pkg/structural"
)

// Search options and results.
type (
	SearchOptions = search.Options
	SearchResult  = search.Result
	ResultBlock   = search.ResultBlock
)

// Structural query options and results.
type (
	QueryOptions = structural.Options
	QueryMatch   = structural.Match
)

// Extract options and results.
type (
	ExtractOptions = extract.Options
	Extraction     = extract.Extraction
)

// Error kinds surfaced to callers.
var (
	ErrMalformedQuery = query.ErrMalformed
	ErrPathNotFound   = scanner.ErrPathNotFound
	ErrSymbolNotFound = extract.ErrSymbolNotFound
	ErrCancelled      = search.ErrCancelled
)

// DefaultSearchOptions returns sensible search defaults.
func DefaultSearchOptions() SearchOptions {
	return search.DefaultOptions()
}

// Search finds the highest-ranked code blocks matching the query.
func Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	return search.Search(ctx, opts)
}

// Query matches an AST pattern with metavariables against the tree.
func Query(ctx context.Context, opts QueryOptions) ([]QueryMatch, error) {
	return structural.Query(ctx, opts)
}

// Extract resolves path:line or path#symbol targets to enclosing blocks.
// The warnings slice reports per-target failures.
func Extract(ctx context.Context, opts ExtractOptions) ([]Extraction, []string, error) {
	return extract.Extract(ctx, opts)
}
