// Package structural matches AST patterns with metavariables against
// candidate files: $NAME captures one node, $$$NAME captures a node list.
package structural

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/XiaoConstantine/probe/pkg/language"
)

// ErrBadPattern reports a pattern the target grammar cannot parse.
var ErrBadPattern = errors.New("invalid pattern")

const (
	varPrefix  = "__probe_mv_"
	listPrefix = "__probe_mvl_"
)

var metavarRe = regexp.MustCompile(`\$(\$\$)?([A-Za-z_][A-Za-z0-9_]*)`)

// Pattern is a compiled structural pattern for one language. It owns the
// substituted source and its tree together.
type Pattern struct {
	Lang   *language.Language
	source []byte
	tree   *tree_sitter.Tree
	root   *tree_sitter.Node
}

// Compile parses a pattern with the target grammar. Metavariables are
// substituted with reserved identifiers so the pattern stays parseable.
func Compile(patternText string, lang *language.Language) (*Pattern, error) {
	substituted := metavarRe.ReplaceAllStringFunc(patternText, func(m string) string {
		sub := metavarRe.FindStringSubmatch(m)
		if sub[1] != "" {
			return listPrefix + sub[2]
		}
		return varPrefix + sub[2]
	})

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang.TSLanguage()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
	}
	source := []byte(substituted)
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s does not parse as %s", ErrBadPattern, patternText, lang.Name)
	}

	root := tree.RootNode()
	if root.HasError() {
		tree.Close()
		return nil, fmt.Errorf("%w: %s does not parse as %s", ErrBadPattern, patternText, lang.Name)
	}

	// Unwrap single-child wrappers (program, expression_statement) so the
	// pattern root is the construct itself.
	for root.NamedChildCount() == 1 {
		root = root.NamedChild(0)
	}
	if root == nil {
		tree.Close()
		return nil, fmt.Errorf("%w: empty pattern", ErrBadPattern)
	}

	return &Pattern{Lang: lang, source: source, tree: tree, root: root}, nil
}

// Close releases the pattern's tree.
func (p *Pattern) Close() {
	if p.tree != nil {
		p.tree.Close()
		p.tree = nil
	}
}

// Captures maps metavariable names to matched source text.
type Captures map[string]string

// Match unifies the pattern against a candidate node.
func (p *Pattern) Match(node *tree_sitter.Node, source []byte) (Captures, bool) {
	caps := make(Captures)
	if p.matchNode(p.root, node, source, caps) {
		return caps, true
	}
	return nil, false
}

func (p *Pattern) matchNode(pn, n *tree_sitter.Node, source []byte, caps Captures) bool {
	ptext := p.nodeSource(pn)

	// A single metavariable matches any one node and captures it.
	if name, ok := metavarName(ptext, varPrefix); ok && pn.NamedChildCount() == 0 {
		caps[name] = nodeSlice(n, source)
		return true
	}

	if pn.Kind() != n.Kind() {
		return false
	}

	pChildren := namedChildren(pn)
	nChildren := namedChildren(n)

	if len(pChildren) == 0 {
		// Leaf pattern nodes must match source text exactly, except pure
		// structural leaves (no letters, digits or underscores) which match
		// by kind alone.
		if strings.IndexFunc(ptext, isIdentRune) < 0 {
			return true
		}
		return ptext == nodeSlice(n, source)
	}

	// Anonymous children carry operators and punctuation. They must agree
	// unless a list metavariable makes the arity flexible.
	if !p.hasListChild(pChildren) {
		pAnon := anonChildren(pn)
		nAnon := anonChildren(n)
		if len(pAnon) != len(nAnon) {
			return false
		}
		for i := range pAnon {
			if p.nodeSource(pAnon[i]) != nodeSlice(nAnon[i], source) {
				return false
			}
		}
	}

	return p.matchSeq(pChildren, nChildren, source, caps)
}

func (p *Pattern) hasListChild(children []*tree_sitter.Node) bool {
	for _, c := range children {
		if _, ok := metavarName(p.nodeSource(c), listPrefix); ok {
			return true
		}
	}
	return false
}

// matchSeq aligns pattern children against node children, letting list
// metavariables absorb zero or more nodes, with backtracking.
func (p *Pattern) matchSeq(pat, nodes []*tree_sitter.Node, source []byte, caps Captures) bool {
	if len(pat) == 0 {
		return len(nodes) == 0
	}

	head := pat[0]
	if name, ok := metavarName(p.nodeSource(head), listPrefix); ok {
		// Try absorbing successively longer prefixes.
		for take := 0; take <= len(nodes); take++ {
			trial := cloneCaptures(caps)
			trial[name] = joinSlices(nodes[:take], source)
			if p.matchSeq(pat[1:], nodes[take:], source, trial) {
				copyCaptures(caps, trial)
				return true
			}
		}
		return false
	}

	if len(nodes) == 0 {
		return false
	}
	trial := cloneCaptures(caps)
	if !p.matchNode(head, nodes[0], source, trial) {
		return false
	}
	if !p.matchSeq(pat[1:], nodes[1:], source, trial) {
		return false
	}
	copyCaptures(caps, trial)
	return true
}

// nodeSource returns a pattern node's text from the substituted source.
func (p *Pattern) nodeSource(n *tree_sitter.Node) string {
	return nodeSlice(n, p.source)
}

func nodeSlice(n *tree_sitter.Node, source []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if start >= uint(len(source)) || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

func anonChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	count := n.ChildCount()
	var out []*tree_sitter.Node
	for i := uint(0); i < count; i++ {
		if c := n.Child(i); c != nil && !c.IsNamed() {
			out = append(out, c)
		}
	}
	return out
}

func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	count := n.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// metavarName extracts NAME from a placeholder with the given prefix. The
// placeholder may appear alone or as the full text of a leaf.
func metavarName(text, prefix string) (string, bool) {
	if strings.HasPrefix(text, prefix) {
		rest := text[len(prefix):]
		if rest != "" && strings.IndexFunc(rest, func(r rune) bool { return !isIdentRune(r) }) < 0 {
			return rest, true
		}
	}
	return "", false
}

func isIdentRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func joinSlices(nodes []*tree_sitter.Node, source []byte) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, nodeSlice(n, source))
	}
	return strings.Join(parts, " ")
}

func cloneCaptures(caps Captures) Captures {
	out := make(Captures, len(caps))
	for k, v := range caps {
		out[k] = v
	}
	return out
}

func copyCaptures(dst, src Captures) {
	for k, v := range src {
		dst[k] = v
	}
}
