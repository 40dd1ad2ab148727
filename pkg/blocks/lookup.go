package blocks

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// BlockAt returns the smallest block enclosing the 1-indexed line range
// [start,end]. Reports false when the file has no syntax tree or no
// block-kind ancestor covers the range.
func BlockAt(pf *ParsedFile, start, end int) (Block, bool) {
	if pf.Tree == nil || pf.Lang == nil {
		return Block{}, false
	}
	if end < start {
		end = start
	}

	_, col := pf.firstNonSpace(start)
	node := deepestAt(pf.Tree.RootNode(), uint(start-1), col)

	for cur := node; cur != nil; cur = cur.Parent() {
		kind, ok := pf.Lang.BlockKind(cur.Kind())
		if !ok {
			continue
		}
		bStart := int(cur.StartPosition().Row) + 1
		bEnd := int(cur.EndPosition().Row) + 1
		if bStart > start || bEnd < end {
			continue
		}
		return nodeBlock(pf, cur, kind), true
	}
	return Block{}, false
}

// SymbolBlock locates the block defining the named symbol.
func SymbolBlock(pf *ParsedFile, name string) (Block, bool) {
	if pf.Tree == nil || pf.Lang == nil {
		return Block{}, false
	}
	var found *tree_sitter.Node
	var foundKind string
	var walk func(node *tree_sitter.Node)
	walk = func(node *tree_sitter.Node) {
		if found != nil {
			return
		}
		if kind, ok := pf.Lang.BlockKind(node.Kind()); ok {
			if pf.Lang.NodeName(node, pf.Source) == name {
				found = node
				foundKind = kind
				return
			}
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child != nil {
				walk(child)
			}
		}
	}
	walk(pf.Tree.RootNode())
	if found == nil {
		return Block{}, false
	}
	return nodeBlock(pf, found, foundKind), true
}

func nodeBlock(pf *ParsedFile, node *tree_sitter.Node, kind string) Block {
	name := pf.Lang.NodeName(node, pf.Source)
	return Block{
		File:         pf.Path,
		StartLine:    int(node.StartPosition().Row) + 1,
		EndLine:      int(node.EndPosition().Row) + 1,
		Kind:         kind,
		Symbol:       name,
		ContainsTest: pf.Lang.IsTest(name, pf.Path, node, pf.Source),
		Matches:      map[string][]int{},
	}
}
