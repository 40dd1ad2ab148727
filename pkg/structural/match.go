package structural

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/XiaoConstantine/probe/pkg/blocks"
	"github.com/XiaoConstantine/probe/pkg/language"
	"github.com/XiaoConstantine/probe/pkg/scanner"
	"github.com/XiaoConstantine/probe/pkg/util"
)

// Options configures a structural query.
type Options struct {
	// Pattern is source text of the target language with $NAME and
	// $$$NAME metavariables.
	Pattern string
	// Path is the search root.
	Path string
	// Language restricts matching to one language. Empty tries every
	// language whose grammar parses the pattern.
	Language string
	// AllowTests includes test files.
	AllowTests bool
}

// Match is one matched node rendered as a block.
type Match struct {
	File      string   `json:"file"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Kind      string   `json:"kind"`
	Code      string   `json:"code"`
	Captures  Captures `json:"captures,omitempty"`
}

// Query matches the pattern against every candidate file, ordered by file
// path then start line.
func Query(ctx context.Context, opts Options) ([]Match, error) {
	defer util.Stage("structural query")()

	walker, err := scanner.NewWalker(opts.Path)
	if err != nil {
		return nil, err
	}
	files, err := walker.Walk()
	if err != nil {
		return nil, err
	}

	// Compile the pattern once per language that can parse it.
	patterns := make(map[*language.Language]*Pattern)
	var patternsMu sync.Mutex
	defer func() {
		for _, p := range patterns {
			p.Close()
		}
	}()
	patternFor := func(lang *language.Language) *Pattern {
		patternsMu.Lock()
		defer patternsMu.Unlock()
		if p, ok := patterns[lang]; ok {
			return p
		}
		p, err := Compile(opts.Pattern, lang)
		if err != nil {
			p = nil
		}
		patterns[lang] = p
		return p
	}

	var requested *language.Language
	if opts.Language != "" {
		requested = language.ByName(opts.Language)
		if requested == nil {
			return nil, fmt.Errorf("%w: unknown language %q", ErrBadPattern, opts.Language)
		}
		if _, err := Compile(opts.Pattern, requested); err != nil {
			return nil, err
		}
	}

	var (
		mu  sync.Mutex
		out []Match
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			lang := language.ByPath(path)
			if lang == nil {
				return nil
			}
			if requested != nil && lang != requested {
				return nil
			}
			if !opts.AllowTests && lang.TestFile != nil && lang.TestFile(path) {
				return nil
			}
			p := patternFor(lang)
			if p == nil {
				return nil
			}

			ms, err := matchFile(path, walker.Root(), opts.Path, p)
			if err != nil {
				util.Debugf(util.DebugDetailed, "structural: %s: %v", path, err)
				return nil
			}
			mu.Lock()
			out = append(out, ms...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out, nil
}

func matchFile(path, absRoot, userRoot string, p *Pattern) ([]Match, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}

	pf := blocks.Parse(path, content, p.Lang)
	defer pf.Close()
	if pf.Tree == nil {
		return nil, nil
	}

	display := path
	if rel, err := filepath.Rel(absRoot, path); err == nil {
		if userRoot != "" && userRoot != "." {
			display = filepath.Join(filepath.Clean(userRoot), rel)
		} else {
			display = rel
		}
	}

	var out []Match
	walkMatches(pf.Tree.RootNode(), pf.Source, p, func(node *tree_sitter.Node, caps Captures) {
		kind := node.Kind()
		if tag, ok := p.Lang.BlockKind(kind); ok {
			kind = tag
		}
		start := int(node.StartPosition().Row) + 1
		end := int(node.EndPosition().Row) + 1
		out = append(out, Match{
			File:      display,
			StartLine: start,
			EndLine:   end,
			Kind:      kind,
			Code:      pf.SliceLines(start, end),
			Captures:  caps,
		})
	})
	return out, nil
}

// walkMatches tries the pattern at every named node. Children of a matched
// node are still visited; nested matches are distinct results.
func walkMatches(node *tree_sitter.Node, source []byte, p *Pattern,
	emit func(*tree_sitter.Node, Captures)) {

	if caps, ok := p.Match(node, source); ok {
		emit(node, caps)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			walkMatches(child, source, p, emit)
		}
	}
}
