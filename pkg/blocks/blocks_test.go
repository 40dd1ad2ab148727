package blocks

import (
	"reflect"
	"testing"

	"github.com/XiaoConstantine/probe/pkg/language"
)

const rustSource = `fn add(a: i32, b: i32) -> i32 {
    a + b
}

fn mul(a: i32, b: i32) -> i32 {
    a * b
}
`

func parseRust(t *testing.T, src string) *ParsedFile {
	t.Helper()
	lang := language.ByName("rust")
	if lang == nil {
		t.Fatal("rust not registered")
	}
	pf := Parse("src/a.rs", []byte(src), lang)
	if pf.Tree == nil {
		t.Fatal("rust source failed to parse")
	}
	t.Cleanup(pf.Close)
	return pf
}

func TestExpand_FunctionBlock(t *testing.T) {
	pf := parseRust(t, rustSource)

	got := Expand(pf, map[string][]int{"add": {1}, "i32": {1}}, DefaultExpandOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 block, got %d: %+v", len(got), got)
	}
	b := got[0]
	if b.StartLine != 1 || b.EndLine != 3 {
		t.Errorf("expected lines 1-3, got %d-%d", b.StartLine, b.EndLine)
	}
	if b.Kind != "function" {
		t.Errorf("expected kind function, got %q", b.Kind)
	}
	if b.Symbol != "add" {
		t.Errorf("expected symbol add, got %q", b.Symbol)
	}
	if !reflect.DeepEqual(b.Matches["add"], []int{1}) {
		t.Errorf("expected add matched on line 1, got %v", b.Matches)
	}
}

func TestExpand_NestedMatchCollapsesToFunction(t *testing.T) {
	pf := parseRust(t, rustSource)

	// Line 2 sits inside add's body; the block is still the function.
	got := Expand(pf, map[string][]int{"add": {2}}, DefaultExpandOptions())
	if len(got) != 1 || got[0].StartLine != 1 || got[0].EndLine != 3 {
		t.Fatalf("expected function block 1-3, got %+v", got)
	}
}

func TestExpand_TwoFunctions(t *testing.T) {
	pf := parseRust(t, rustSource)

	got := Expand(pf, map[string][]int{"i32": {1, 5}}, DefaultExpandOptions())
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
	if got[0].StartLine != 1 || got[1].StartLine != 5 {
		t.Errorf("unexpected block starts: %d, %d", got[0].StartLine, got[1].StartLine)
	}
}

func TestExpand_PlainTextWindow(t *testing.T) {
	var src string
	for i := 0; i < 60; i++ {
		src += "some plain text content\n"
	}
	pf := Parse("notes.txt", []byte(src), nil)
	defer pf.Close()

	opts := DefaultExpandOptions()
	got := Expand(pf, map[string][]int{"plain": {30}}, opts)
	if len(got) != 1 {
		t.Fatalf("expected 1 window, got %d", len(got))
	}
	b := got[0]
	if b.Kind != "window" {
		t.Errorf("expected kind window, got %q", b.Kind)
	}
	if b.EndLine-b.StartLine+1 != opts.TextWindow+1 {
		t.Errorf("expected ~%d-line window, got %d-%d", opts.TextWindow, b.StartLine, b.EndLine)
	}
}

func TestExpand_WindowClampedToFile(t *testing.T) {
	pf := Parse("notes.txt", []byte("only\ntwo lines match here\n"), nil)
	defer pf.Close()

	got := Expand(pf, map[string][]int{"match": {2}}, DefaultExpandOptions())
	if len(got) != 1 {
		t.Fatalf("expected 1 block, got %d", len(got))
	}
	if got[0].StartLine < 1 || got[0].EndLine > pf.LineCount() {
		t.Errorf("window not clamped: %d-%d of %d lines",
			got[0].StartLine, got[0].EndLine, pf.LineCount())
	}
}

func TestExpand_CommentSkippedWhenExcluded(t *testing.T) {
	src := `// helper for session handling
fn unrelated() {
    1
}
`
	pf := parseRust(t, src)

	opts := DefaultExpandOptions()
	opts.IncludeComments = false
	got := Expand(pf, map[string][]int{"session": {1}}, opts)
	if len(got) != 0 {
		t.Errorf("comment-only match must be skipped with comments excluded, got %+v", got)
	}

	opts.IncludeComments = true
	got = Expand(pf, map[string][]int{"session": {1}}, opts)
	if len(got) == 0 {
		t.Error("comment match must be kept by default")
	}
}

func TestMerge_OverlapAndIdempotence(t *testing.T) {
	in := []Block{
		{File: "a.go", StartLine: 1, EndLine: 10, Kind: "function",
			Matches: map[string][]int{"x": {2}}},
		{File: "a.go", StartLine: 5, EndLine: 12, Kind: "statement",
			Matches: map[string][]int{"y": {6}}},
		{File: "a.go", StartLine: 20, EndLine: 25, Kind: "statement",
			Matches: map[string][]int{"x": {21}}},
	}

	merged := Merge(in, 0)
	if len(merged) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(merged))
	}
	first := merged[0]
	if first.StartLine != 1 || first.EndLine != 12 {
		t.Errorf("expected merged range 1-12, got %d-%d", first.StartLine, first.EndLine)
	}
	if first.Kind != "function" {
		t.Errorf("broader kind must win, got %q", first.Kind)
	}
	if len(first.Matches) != 2 {
		t.Errorf("variant sets must union, got %v", first.Matches)
	}

	again := Merge(merged, 0)
	if !reflect.DeepEqual(merged, again) {
		t.Errorf("merge is not idempotent:\n%+v\nvs\n%+v", merged, again)
	}
}

func TestMerge_GapThreshold(t *testing.T) {
	in := []Block{
		{File: "a.go", StartLine: 1, EndLine: 10, Kind: "function", Matches: map[string][]int{}},
		{File: "a.go", StartLine: 13, EndLine: 20, Kind: "function", Matches: map[string][]int{}},
	}

	if got := Merge(in, 0); len(got) != 2 {
		t.Errorf("gap 0 must not merge blocks 3 lines apart, got %d", len(got))
	}
	if got := Merge(in, 3); len(got) != 1 {
		t.Errorf("gap 3 must merge, got %d", len(got))
	}
}

func TestMerge_TestFlagPropagates(t *testing.T) {
	in := []Block{
		{File: "a.go", StartLine: 1, EndLine: 10, Kind: "function", Matches: map[string][]int{}},
		{File: "a.go", StartLine: 8, EndLine: 15, Kind: "function", ContainsTest: true,
			Matches: map[string][]int{}},
	}
	got := Merge(in, 0)
	if len(got) != 1 || !got[0].ContainsTest {
		t.Errorf("merged block must keep the test flag: %+v", got)
	}
}

func TestBlockAt(t *testing.T) {
	pf := parseRust(t, rustSource)

	b, ok := BlockAt(pf, 6, 6)
	if !ok {
		t.Fatal("expected a block at line 6")
	}
	if b.StartLine != 5 || b.EndLine != 7 || b.Symbol != "mul" {
		t.Errorf("expected mul block 5-7, got %+v", b)
	}
}

func TestSymbolBlock(t *testing.T) {
	pf := parseRust(t, rustSource)

	b, ok := SymbolBlock(pf, "mul")
	if !ok {
		t.Fatal("expected to find mul")
	}
	if b.StartLine != 5 || b.EndLine != 7 || b.Kind != "function" {
		t.Errorf("expected function 5-7, got %+v", b)
	}

	if _, ok := SymbolBlock(pf, "missing"); ok {
		t.Error("missing symbol must not resolve")
	}
}

func TestParse_LineHelpers(t *testing.T) {
	pf := Parse("x.txt", []byte("one\ntwo\nthree"), nil)
	defer pf.Close()

	if pf.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", pf.LineCount())
	}
	if pf.Line(2) != "two" {
		t.Errorf("Line(2) = %q", pf.Line(2))
	}
	if pf.SliceLines(2, 3) != "two\nthree" {
		t.Errorf("SliceLines(2,3) = %q", pf.SliceLines(2, 3))
	}
}
