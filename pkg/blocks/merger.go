package blocks

import "sort"

// kindRank orders block kinds by breadth for merge resolution. Definition
// kinds beat statements, statements beat windows.
func kindRank(kind string) int {
	switch kind {
	case "window":
		return 0
	case "statement":
		return 1
	case "closure":
		return 2
	default:
		return 3
	}
}

// Merge fuses overlapping blocks within one file. Block B merges into its
// predecessor A when B.StartLine <= A.EndLine + gap. Merging twice is a
// no-op.
func Merge(in []Block, gap int) []Block {
	if len(in) <= 1 {
		return in
	}
	if gap < 0 {
		gap = 0
	}

	sorted := make([]Block, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine < sorted[j].StartLine
		}
		return sorted[i].EndLine > sorted[j].EndLine
	})

	out := []Block{copyMatches(sorted[0])}
	for _, b := range sorted[1:] {
		a := &out[len(out)-1]
		if b.StartLine > a.EndLine+gap {
			out = append(out, copyMatches(b))
			continue
		}

		if b.EndLine > a.EndLine {
			a.EndLine = b.EndLine
		}
		if kindRank(b.Kind) > kindRank(a.Kind) {
			a.Kind = b.Kind
		}
		if a.Symbol == "" {
			a.Symbol = b.Symbol
		}
		a.ContainsTest = a.ContainsTest || b.ContainsTest
		for v, lines := range b.Matches {
			a.Matches[v] = mergeLines(a.Matches[v], lines)
		}
	}
	return out
}

// copyMatches clones a block's match map so merging never mutates input.
func copyMatches(b Block) Block {
	m := make(map[string][]int, len(b.Matches))
	for v, lines := range b.Matches {
		m[v] = append([]int(nil), lines...)
	}
	b.Matches = m
	return b
}

// mergeLines unions two sorted line slices.
func mergeLines(a, b []int) []int {
	seen := make(map[int]bool, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, s := range [][]int{a, b} {
		for _, l := range s {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	sort.Ints(out)
	return out
}
