// Package search runs the full pipeline: compile the query, scan files,
// expand matches into blocks, merge, rank, and select under a token budget.
package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/XiaoConstantine/probe/pkg/blocks"
	"github.com/XiaoConstantine/probe/pkg/language"
	"github.com/XiaoConstantine/probe/pkg/query"
	"github.com/XiaoConstantine/probe/pkg/rank"
	"github.com/XiaoConstantine/probe/pkg/scanner"
	"github.com/XiaoConstantine/probe/pkg/tokenizer"
	"github.com/XiaoConstantine/probe/pkg/tokens"
	"github.com/XiaoConstantine/probe/pkg/util"
	"github.com/bmatcuk/doublestar/v4"
)

// ErrUnknownLanguage reports a --language value outside the registry.
var ErrUnknownLanguage = errors.New("unknown language")

// candidate pairs a block with its rendered code and indexed text.
type candidate struct {
	doc  rank.Document
	code string
}

// Search executes one request.
func Search(ctx context.Context, opts Options) (*Result, error) {
	defer util.Stage("search")()
	opts.normalize()

	var lang *language.Language
	if opts.Language != "" {
		lang = language.ByName(opts.Language)
		if lang == nil {
			return nil, fmt.Errorf("%w: %q (supported: %s)",
				ErrUnknownLanguage, opts.Language, strings.Join(language.Names(), ", "))
		}
	}

	q, err := query.Compile(opts.Query, query.Options{
		AnyTerm: opts.AnyTerm,
		Exact:   opts.Exact,
		Dict:    tokenizer.DefaultDictionary(),
	})
	if err != nil {
		return nil, err
	}

	walker, err := scanner.NewWalker(opts.Path)
	if err != nil {
		return nil, err
	}
	files, err := walker.Walk()
	if err != nil {
		return nil, err
	}
	files = filterFiles(files, walker.Root(), opts, lang)

	scanStop := util.Stage("scan")
	matches, warnings, err := scanner.ScanFiles(ctx, files, q)
	scanStop()
	if err != nil {
		return nil, cancelErr(err)
	}

	expandStop := util.Stage("expand")
	candidates, expandWarnings, err := expandAll(ctx, matches, walker.Root(), opts)
	expandStop()
	if err != nil {
		return nil, cancelErr(err)
	}
	warnings = append(warnings, expandWarnings...)

	if err := ctx.Err(); err != nil {
		return nil, cancelErr(err)
	}

	rankStop := util.Stage("rank")
	docs := make([]rank.Document, len(candidates))
	for i, c := range candidates {
		docs[i] = c.doc
	}
	ranked := rank.Rank(docs, q, rank.Options{Mode: opts.Ranker, AllowTests: opts.AllowTests})
	rankStop()

	result := selectBlocks(ranked, candidates, q, opts)
	result.TotalCandidates = len(candidates)
	result.TotalConsidered = len(files)
	result.Warnings = warnings
	return result, nil
}

// filterFiles applies language, glob and test-file filters before scanning.
func filterFiles(files []string, root string, opts Options, lang *language.Language) []string {
	out := files[:0]
	for _, f := range files {
		fl := language.ByPath(f)
		if lang != nil && fl != lang {
			continue
		}
		if !opts.AllowTests && fl != nil && fl.TestFile != nil && fl.TestFile(f) {
			continue
		}
		if opts.PathGlob != "" {
			rel, err := filepath.Rel(root, f)
			if err != nil {
				continue
			}
			ok, err := doublestar.Match(opts.PathGlob, filepath.ToSlash(rel))
			if err != nil || !ok {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

// expandAll parses matched files and produces merged candidate blocks, in
// parallel across files with deterministic output order.
func expandAll(ctx context.Context, matches []*scanner.FileMatches, root string,
	opts Options) ([]candidate, []string, error) {

	expandOpts := blocks.DefaultExpandOptions()
	expandOpts.IncludeComments = opts.IncludeComments

	perFile := make([][]candidate, len(matches))
	var (
		mu       sync.Mutex
		warnings []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, fm := range matches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lang := language.ByPath(fm.Path)
			pf := blocks.Parse(fm.Path, fm.Content, lang)
			defer pf.Close()
			if lang != nil && pf.Lang == nil {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("%s: parse failed, using text blocks", fm.Path))
				mu.Unlock()
			}

			expanded := blocks.Expand(pf, fm.Lines, expandOpts)
			merged := blocks.Merge(expanded, opts.MergeGap)

			display := displayPath(root, opts.Path, fm.Path)
			out := make([]candidate, 0, len(merged))
			for _, b := range merged {
				b.File = display
				code := pf.SliceLines(b.StartLine, b.EndLine)
				text := code
				if !opts.IncludeComments {
					text = pf.SliceLinesNoComments(b.StartLine, b.EndLine)
				}
				out = append(out, candidate{
					doc:  rank.Document{Block: b, Text: text},
					code: code,
				})
			}
			perFile[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []candidate
	for _, cs := range perFile {
		all = append(all, cs...)
	}
	sort.Strings(warnings)
	return all, warnings, nil
}

// selectBlocks drains the ranked list under the session filter and token
// budget.
func selectBlocks(ranked []rank.Scored, candidates []candidate, q *query.Query, opts Options) *Result {
	defer util.Stage("select")()

	// Map ranked documents back to their rendered code.
	codeFor := make(map[blockKey]string, len(candidates))
	for _, c := range candidates {
		codeFor[keyOf(c.doc.Block)] = c.code
	}

	sessionID := opts.SessionID
	if sessionID == "new" {
		sessionID = NewSessionID()
	}
	var seen map[blockKey]bool
	if sessionID != "" {
		seen = defaultSessions.Snapshot(sessionID)
	}

	result := &Result{SessionID: sessionID, Results: []ResultBlock{}}
	var committed []blockKey
	budget := opts.MaxTokens

	for _, r := range ranked {
		k := keyOf(r.Block)
		if seen[k] {
			continue
		}
		code := codeFor[k]
		count := tokens.Count(code)

		if count > budget {
			result.Truncated = true
			if len(result.Results) == 0 {
				// The best block alone blows the budget; return it marked.
				result.Results = append(result.Results, renderBlock(r, code, count, q))
				committed = append(committed, k)
			}
			break
		}

		budget -= count
		result.Results = append(result.Results, renderBlock(r, code, count, q))
		committed = append(committed, k)

		if opts.MaxResults > 0 && len(result.Results) >= opts.MaxResults {
			break
		}
	}

	if sessionID != "" {
		defaultSessions.Commit(sessionID, committed)
	}
	return result
}

func renderBlock(r rank.Scored, code string, tokenCount int, q *query.Query) ResultBlock {
	b := r.Block
	matched := make(map[string]bool, len(b.Matches))
	for v := range b.Matches {
		matched[v] = true
	}
	return ResultBlock{
		File:         b.File,
		StartLine:    b.StartLine,
		EndLine:      b.EndLine,
		Kind:         b.Kind,
		Code:         code,
		Score:        r.Score,
		MatchedTerms: q.MatchedTerms(matched),
		Symbol:       b.Symbol,
		Preview:      preview(code, b),
		Tokens:       tokenCount,
	}
}

// preview returns the first matched line of the block, trimmed.
func preview(code string, b blocks.Block) string {
	first := 0
	for _, lines := range b.Matches {
		for _, l := range lines {
			if first == 0 || l < first {
				first = l
			}
		}
	}
	if first == 0 {
		return ""
	}
	idx := first - b.StartLine
	lines := strings.Split(code, "\n")
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	line := strings.TrimSpace(lines[idx])
	if len(line) > 120 {
		line = line[:120]
	}
	return line
}

func keyOf(b blocks.Block) blockKey {
	return blockKey{file: b.File, start: b.StartLine, end: b.EndLine}
}

// displayPath renders an absolute file path relative to the user-supplied
// root, keeping the prefix the user typed.
func displayPath(absRoot, userRoot, file string) string {
	rel, err := filepath.Rel(absRoot, file)
	if err != nil {
		return file
	}
	if userRoot == "" || userRoot == "." {
		return rel
	}
	return filepath.Join(filepath.Clean(userRoot), rel)
}

func cancelErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return err
}
