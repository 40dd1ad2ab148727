package scanner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/XiaoConstantine/probe/pkg/query"
	"github.com/XiaoConstantine/probe/pkg/tokenizer"
)

// FileMatches holds one file's scan output: per variant, the sorted
// 1-indexed lines where it occurred.
type FileMatches struct {
	Path    string
	Content []byte
	Lines   map[string][]int
}

// MatchedVariants returns the set of variants with at least one line.
func (fm *FileMatches) MatchedVariants() map[string]bool {
	out := make(map[string]bool, len(fm.Lines))
	for v := range fm.Lines {
		out[v] = true
	}
	return out
}

// ScanFiles scans files in parallel and keeps those whose matches satisfy
// the query at file granularity: files matching any forbidden term are
// dropped, as are files that cannot satisfy the expression.
func ScanFiles(ctx context.Context, files []string, q *query.Query) ([]*FileMatches, []string, error) {
	variants := q.Variants()
	dict := tokenizer.DefaultDictionary()

	var (
		mu       sync.Mutex
		results  []*FileMatches
		warnings []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fm, err := scanFile(path, variants, q.Exact, dict)
			if err != nil {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				return nil
			}
			if fm == nil || !keepFile(fm, q) {
				return nil
			}
			mu.Lock()
			results = append(results, fm)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Workers finish in arbitrary order; restore determinism before ranking.
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	sort.Strings(warnings)
	return results, warnings, nil
}

// keepFile applies the file-level required/forbidden policy.
func keepFile(fm *FileMatches, q *query.Query) bool {
	matched := fm.MatchedVariants()
	for _, t := range q.Forbidden {
		for _, v := range t.Variants {
			if matched[v] {
				return false
			}
		}
	}
	return q.EvalVariants(matched)
}

// scanFile reads one file and records matching line numbers per variant.
// Returns nil for binary files and files with no matches.
func scanFile(path string, variants []string, exact bool, dict *tokenizer.Dictionary) (*FileMatches, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if looksBinary(content) {
		return nil, nil
	}

	fm := &FileMatches{Path: path, Content: content, Lines: make(map[string][]int)}

	stems := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 64*1024), maxFileSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if exact {
			for _, v := range variants {
				if strings.Contains(line, v) {
					fm.Lines[v] = append(fm.Lines[v], lineNo)
				}
			}
			continue
		}
		tokens := lineTokens(line, stems, dict)
		if tokens == nil {
			continue
		}
		for _, v := range variants {
			if tokens[v] {
				fm.Lines[v] = append(fm.Lines[v], lineNo)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(fm.Lines) == 0 {
		return nil, nil
	}
	return fm, nil
}

// lineTokens builds the match token set for one line: each identifier run
// lowercased, its split parts, compound decompositions of the parts, and
// the stems of all of them. The stems map caches stemming across lines of
// a file.
func lineTokens(line string, stems map[string]string, dict *tokenizer.Dictionary) map[string]bool {
	tokens := make(map[string]bool)
	add := func(tok string) {
		tok = strings.ToLower(tok)
		tokens[tok] = true
		stem, ok := stems[tok]
		if !ok {
			stem = tokenizer.Stem(tok)
			stems[tok] = stem
		}
		tokens[stem] = true
	}

	start := -1
	for i := 0; i <= len(line); i++ {
		var c byte
		if i < len(line) {
			c = line[i]
		}
		if isWordByte(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			run := line[start:i]
			add(run)
			for _, part := range tokenizer.SplitIdentifier(run) {
				add(part)
				if subs := dict.Split(strings.ToLower(part)); len(subs) > 1 {
					for _, sub := range subs {
						add(sub)
					}
				}
			}
			start = -1
		}
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func isWordByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// looksBinary checks the first KB for NUL bytes.
func looksBinary(content []byte) bool {
	n := len(content)
	if n > 1024 {
		n = 1024
	}
	return bytes.IndexByte(content[:n], 0) >= 0
}
