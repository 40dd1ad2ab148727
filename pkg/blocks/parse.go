// Package blocks maps matched lines to enclosing syntactic blocks and
// merges overlapping blocks per file.
package blocks

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/XiaoConstantine/probe/pkg/language"
)

// ParsedFile owns a file's source bytes together with its syntax tree.
// Node handles index into the tree and must not outlive Close.
type ParsedFile struct {
	Path   string
	Source []byte
	Lang   *language.Language // nil for plain text
	Tree   *tree_sitter.Tree  // nil for plain text or parse failure

	lineStarts []uint // byte offset of each line start, 0-indexed rows
	comments   [][2]uint
	commentsOK bool
}

// Parse builds a ParsedFile. A nil language, or a grammar failure, yields a
// text-only file the expander handles with windows.
func Parse(path string, source []byte, lang *language.Language) *ParsedFile {
	pf := &ParsedFile{Path: path, Source: source, Lang: lang}
	pf.lineStarts = append(pf.lineStarts, 0)
	for i, b := range source {
		if b == '\n' {
			pf.lineStarts = append(pf.lineStarts, uint(i+1))
		}
	}

	if lang == nil {
		return pf
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang.TSLanguage()); err != nil {
		pf.Lang = nil
		return pf
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		pf.Lang = nil
		return pf
	}
	pf.Tree = tree
	return pf
}

// Close releases the syntax tree.
func (pf *ParsedFile) Close() {
	if pf.Tree != nil {
		pf.Tree.Close()
		pf.Tree = nil
	}
}

// LineCount returns the number of lines, counting a trailing fragment.
func (pf *ParsedFile) LineCount() int {
	n := len(pf.lineStarts)
	// A file ending in \n has a phantom final line start.
	if n > 1 && int(pf.lineStarts[n-1]) == len(pf.Source) {
		return n - 1
	}
	return n
}

// lineSpan returns the byte range [start,end) of a 1-indexed line without
// its newline.
func (pf *ParsedFile) lineSpan(line int) (uint, uint) {
	if line < 1 || line > len(pf.lineStarts) {
		return 0, 0
	}
	start := pf.lineStarts[line-1]
	var end uint
	if line < len(pf.lineStarts) {
		end = pf.lineStarts[line]
		if end > start && pf.Source[end-1] == '\n' {
			end--
		}
		if end > start && pf.Source[end-1] == '\r' {
			end--
		}
	} else {
		end = uint(len(pf.Source))
	}
	return start, end
}

// Line returns the text of a 1-indexed line.
func (pf *ParsedFile) Line(line int) string {
	start, end := pf.lineSpan(line)
	return string(pf.Source[start:end])
}

// SliceLines returns the text of lines [start,end] inclusive, newline
// terminated between lines.
func (pf *ParsedFile) SliceLines(start, end int) string {
	if start < 1 {
		start = 1
	}
	if max := pf.LineCount(); end > max {
		end = max
	}
	if start > end {
		return ""
	}
	from := pf.lineStarts[start-1]
	_, to := pf.lineSpan(end)
	return string(pf.Source[from:to])
}

// CommentSpans returns the byte ranges of comment nodes, computed once.
func (pf *ParsedFile) CommentSpans() [][2]uint {
	if pf.commentsOK {
		return pf.comments
	}
	pf.commentsOK = true
	if pf.Tree == nil || pf.Lang == nil {
		return nil
	}
	collectComments(pf.Tree.RootNode(), pf.Lang, &pf.comments)
	return pf.comments
}

func collectComments(node *tree_sitter.Node, lang *language.Language, out *[][2]uint) {
	if lang.IsComment(node.Kind()) {
		*out = append(*out, [2]uint{node.StartByte(), node.EndByte()})
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			collectComments(child, lang, out)
		}
	}
}

// InComment reports whether a byte offset falls inside a comment.
func (pf *ParsedFile) InComment(offset uint) bool {
	for _, span := range pf.CommentSpans() {
		if offset >= span[0] && offset < span[1] {
			return true
		}
	}
	return false
}

// SliceLinesNoComments returns the text of lines [start,end] with comment
// bytes removed, for term-frequency indexing.
func (pf *ParsedFile) SliceLinesNoComments(start, end int) string {
	if start < 1 {
		start = 1
	}
	if max := pf.LineCount(); end > max {
		end = max
	}
	if start > end {
		return ""
	}
	from := pf.lineStarts[start-1]
	_, to := pf.lineSpan(end)

	spans := pf.CommentSpans()
	if len(spans) == 0 {
		return string(pf.Source[from:to])
	}
	var b []byte
	pos := from
	for _, span := range spans {
		if span[1] <= pos || span[0] >= to {
			continue
		}
		if span[0] > pos {
			b = append(b, pf.Source[pos:span[0]]...)
		}
		pos = span[1]
	}
	if pos < to {
		b = append(b, pf.Source[pos:to]...)
	}
	return string(b)
}

// firstNonSpace returns the byte offset and column of the first
// non-whitespace byte of a line, falling back to the line start.
func (pf *ParsedFile) firstNonSpace(line int) (uint, uint) {
	start, end := pf.lineSpan(line)
	for i := start; i < end; i++ {
		if pf.Source[i] != ' ' && pf.Source[i] != '\t' {
			return i, i - start
		}
	}
	return start, 0
}
