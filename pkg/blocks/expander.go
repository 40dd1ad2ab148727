package blocks

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	// defaultFallbackWindow pads matches with no enclosing statement.
	defaultFallbackWindow = 10
	// defaultTextWindow is the block size for files with no grammar.
	defaultTextWindow = 20
)

// Block is a contiguous line range covering one syntactic construct, with
// the variants matched inside it.
type Block struct {
	File         string
	StartLine    int
	EndLine      int
	Kind         string
	Symbol       string
	ContainsTest bool
	// Matches maps variant -> matched lines inside the block.
	Matches map[string][]int
}

// ExpandOptions controls block expansion.
type ExpandOptions struct {
	FallbackWindow  int
	TextWindow      int
	IncludeComments bool
}

// DefaultExpandOptions returns the standard expansion settings.
func DefaultExpandOptions() ExpandOptions {
	return ExpandOptions{
		FallbackWindow:  defaultFallbackWindow,
		TextWindow:      defaultTextWindow,
		IncludeComments: true,
	}
}

// Expand maps each matched line to its smallest enclosing block-kind node
// and returns the distinct blocks with their matched variants attached.
func Expand(pf *ParsedFile, lines map[string][]int, opts ExpandOptions) []Block {
	if opts.FallbackWindow <= 0 {
		opts.FallbackWindow = defaultFallbackWindow
	}
	if opts.TextWindow <= 0 {
		opts.TextWindow = defaultTextWindow
	}

	// Invert variant->lines into line->variants.
	byLine := make(map[int][]string)
	for variant, ls := range lines {
		for _, l := range ls {
			byLine[l] = append(byLine[l], variant)
		}
	}
	matchedLines := make([]int, 0, len(byLine))
	for l := range byLine {
		matchedLines = append(matchedLines, l)
	}
	sort.Ints(matchedLines)

	type key struct {
		start, end int
		kind       string
	}
	seen := make(map[key]*Block)
	var order []key

	record := func(start, end int, kind, symbol string, test bool, line int) {
		if start < 1 {
			start = 1
		}
		if max := pf.LineCount(); end > max {
			end = max
		}
		k := key{start, end, kind}
		b, ok := seen[k]
		if !ok {
			b = &Block{
				File:         pf.Path,
				StartLine:    start,
				EndLine:      end,
				Kind:         kind,
				Symbol:       symbol,
				ContainsTest: test,
				Matches:      make(map[string][]int),
			}
			seen[k] = b
			order = append(order, k)
		}
		for _, v := range byLine[line] {
			b.Matches[v] = append(b.Matches[v], line)
		}
	}

	for _, line := range matchedLines {
		if pf.Tree == nil || pf.Lang == nil {
			// Plain text: fixed window centered on the match.
			half := opts.TextWindow / 2
			record(line-half, line+half, "window", "", false, line)
			continue
		}

		offset, col := pf.firstNonSpace(line)
		if !opts.IncludeComments && pf.InComment(offset) {
			continue
		}

		node := deepestAt(pf.Tree.RootNode(), uint(line-1), col)
		block := enclosingBlockNode(node, pf)
		if block != nil {
			name := pf.Lang.NodeName(block, pf.Source)
			kind, _ := pf.Lang.BlockKind(block.Kind())
			test := pf.Lang.IsTest(name, pf.Path, block, pf.Source)
			record(int(block.StartPosition().Row)+1, int(block.EndPosition().Row)+1,
				kind, name, test, line)
			continue
		}

		// No block-kind ancestor: fall back to the top-level statement, then
		// to a padded window.
		if stmt := topLevelStatement(node); stmt != nil {
			record(int(stmt.StartPosition().Row)+1, int(stmt.EndPosition().Row)+1,
				"statement", "", false, line)
			continue
		}
		record(line-opts.FallbackWindow, line+opts.FallbackWindow, "window", "", false, line)
	}

	out := make([]Block, 0, len(order))
	for _, k := range order {
		b := seen[k]
		for v := range b.Matches {
			sort.Ints(b.Matches[v])
		}
		out = append(out, *b)
	}
	return out
}

// deepestAt descends to the deepest named node containing (row, col).
func deepestAt(node *tree_sitter.Node, row, col uint) *tree_sitter.Node {
	for {
		var next *tree_sitter.Node
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}
			if containsPoint(child, row, col) {
				next = child
				break
			}
		}
		if next == nil {
			return node
		}
		node = next
	}
}

func containsPoint(node *tree_sitter.Node, row, col uint) bool {
	start, end := node.StartPosition(), node.EndPosition()
	if row < start.Row || row > end.Row {
		return false
	}
	if row == start.Row && col < start.Column {
		return false
	}
	if row == end.Row && col >= end.Column {
		return false
	}
	return true
}

// enclosingBlockNode walks up from node to the nearest ancestor whose kind
// the language emits as a block.
func enclosingBlockNode(node *tree_sitter.Node, pf *ParsedFile) *tree_sitter.Node {
	for cur := node; cur != nil; cur = cur.Parent() {
		if _, ok := pf.Lang.BlockKind(cur.Kind()); ok {
			return cur
		}
	}
	return nil
}

// topLevelStatement walks up to the direct child of the root containing
// node. Returns nil when node is the root itself.
func topLevelStatement(node *tree_sitter.Node) *tree_sitter.Node {
	var prev *tree_sitter.Node
	cur := node
	for {
		parent := cur.Parent()
		if parent == nil {
			// cur is the root.
			return prev
		}
		prev = cur
		cur = parent
	}
}
