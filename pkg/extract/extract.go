// Package extract resolves file/line/symbol references to the enclosing
// syntactic block.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/XiaoConstantine/probe/pkg/blocks"
	"github.com/XiaoConstantine/probe/pkg/language"
	"github.com/XiaoConstantine/probe/pkg/util"
)

// ErrSymbolNotFound reports a #symbol target with no matching definition.
var ErrSymbolNotFound = errors.New("symbol not found")

// defaultContextLines pads bare-line windows when no block encloses them.
const defaultContextLines = 10

// Options configures extraction.
type Options struct {
	// Targets are "path", "path:L", "path:L-L2" or "path#Symbol".
	Targets []string
	// InputContent is free-form text mined for file references, e.g. a
	// failing test log.
	InputContent string
	// AllowTests keeps blocks from test files.
	AllowTests bool
	// ContextLines pads windows when no syntactic block exists.
	ContextLines int
}

// Extraction is one resolved block.
type Extraction struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Kind      string `json:"kind"`
	Code      string `json:"code"`
	Symbol    string `json:"symbol,omitempty"`
}

// Extract resolves every target. Per-target failures become warnings; the
// call fails only when cancelled. When no target resolves, the result is
// empty and every failure is reported as a warning.
func Extract(ctx context.Context, opts Options) ([]Extraction, []string, error) {
	defer util.Stage("extract")()

	if opts.ContextLines <= 0 {
		opts.ContextLines = defaultContextLines
	}

	targets := make([]Target, 0, len(opts.Targets))
	for _, raw := range opts.Targets {
		targets = append(targets, ParseTarget(raw))
	}
	if opts.InputContent != "" {
		targets = append(targets, References(opts.InputContent)...)
	}
	targets = dedupe(targets)

	var (
		out      []Extraction
		warnings []string
	)
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		ext, err := resolve(t, opts)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", t.Raw, err))
			continue
		}
		out = append(out, ext...)
	}
	return out, warnings, nil
}

func resolve(t Target, opts Options) ([]Extraction, error) {
	content, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}

	lang := language.ByPath(t.Path)
	if !opts.AllowTests && lang != nil && lang.TestFile != nil && lang.TestFile(t.Path) {
		return nil, fmt.Errorf("test file (use --allow-tests)")
	}

	pf := blocks.Parse(t.Path, content, lang)
	defer pf.Close()

	switch {
	case t.Symbol != "":
		b, ok := blocks.SymbolBlock(pf, t.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, t.Symbol)
		}
		return []Extraction{render(pf, b)}, nil

	case t.StartLine > 0:
		end := t.EndLine
		if end == 0 {
			end = t.StartLine
		}
		if b, ok := blocks.BlockAt(pf, t.StartLine, end); ok {
			return []Extraction{render(pf, b)}, nil
		}
		// No enclosing block: return the padded window.
		b := blocks.Block{
			File:      t.Path,
			StartLine: t.StartLine - opts.ContextLines,
			EndLine:   end + opts.ContextLines,
			Kind:      "window",
		}
		if b.StartLine < 1 {
			b.StartLine = 1
		}
		if max := pf.LineCount(); b.EndLine > max {
			b.EndLine = max
		}
		return []Extraction{render(pf, b)}, nil

	default:
		b := blocks.Block{
			File:      t.Path,
			StartLine: 1,
			EndLine:   pf.LineCount(),
			Kind:      "file",
		}
		return []Extraction{render(pf, b)}, nil
	}
}

func render(pf *blocks.ParsedFile, b blocks.Block) Extraction {
	return Extraction{
		File:      b.File,
		StartLine: b.StartLine,
		EndLine:   b.EndLine,
		Kind:      b.Kind,
		Code:      pf.SliceLines(b.StartLine, b.EndLine),
		Symbol:    b.Symbol,
	}
}

func dedupe(targets []Target) []Target {
	seen := make(map[string]bool, len(targets))
	out := targets[:0]
	for _, t := range targets {
		key := fmt.Sprintf("%s#%s:%d-%d", t.Path, t.Symbol, t.StartLine, t.EndLine)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].StartLine < out[j].StartLine
	})
	return out
}
