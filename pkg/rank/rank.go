// Package rank scores candidate blocks against a compiled query, treating
// each block as a document over the candidate-set corpus.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/XiaoConstantine/probe/pkg/blocks"
	"github.com/XiaoConstantine/probe/pkg/query"
	"github.com/XiaoConstantine/probe/pkg/tokenizer"
)

// Mode selects the scoring function.
type Mode string

const (
	ModeTFIDF  Mode = "tfidf"
	ModeBM25   Mode = "bm25"
	ModeHybrid Mode = "hybrid"
)

// BM25 parameters (Okapi defaults).
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// hybridAlpha weights BM25 against TF-IDF in hybrid mode.
const hybridAlpha = 0.7

// Boost multipliers applied after the base score.
const (
	boostAllRequired = 1.5
	boostDefinition  = 1.2
	boostTestPenalty = 0.7
	boostSymbolMatch = 1.1
)

// Document is one block prepared for scoring.
type Document struct {
	Block blocks.Block
	// Text is the indexed content (comments already stripped when the
	// request excludes them).
	Text string
}

// Scored pairs a document with its final score.
type Scored struct {
	Document
	Score float64
}

// Options controls ranking.
type Options struct {
	Mode Mode
	// AllowTests disables the test-block penalty.
	AllowTests bool
}

// Rank scores and orders documents. Documents lacking a required term, or
// failing the query expression, are excluded.
func Rank(docs []Document, q *query.Query, opts Options) []Scored {
	if len(docs) == 0 {
		return nil
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}

	// Query terms are matched by their primary stem.
	stems := queryStems(q)

	// Per-document term frequencies and lengths.
	tf := make([]map[string]int, len(docs))
	lengths := make([]int, len(docs))
	var totalLen float64
	// Block content is tokenized with the same rules as query terms,
	// compound splitting included.
	dict := tokenizer.DefaultDictionary()
	for i, d := range docs {
		counts := make(map[string]int)
		toks := tokenizer.Tokenize(d.Text, tokenizer.Options{Stem: true, Dict: dict})
		for _, t := range toks {
			counts[t]++
		}
		tf[i] = counts
		lengths[i] = len(toks)
		totalLen += float64(len(toks))
	}
	avgLen := totalLen / float64(len(docs))
	if avgLen == 0 {
		avgLen = 1
	}

	// Document frequencies over the candidate corpus.
	df := make(map[string]int)
	for _, counts := range tf {
		for _, stem := range stems {
			if counts[stem] > 0 {
				df[stem]++
			}
		}
	}
	n := float64(len(docs))
	idf := make(map[string]float64, len(stems))
	for _, stem := range stems {
		d := float64(df[stem])
		idf[stem] = math.Log((n-d+0.5)/(d+0.5) + 1)
	}

	tfidfScores := make([]float64, len(docs))
	bm25Scores := make([]float64, len(docs))
	for i := range docs {
		for _, stem := range stems {
			f := float64(tf[i][stem])
			if f == 0 {
				continue
			}
			tfidfScores[i] += f * idf[stem]
			norm := f * (bm25K1 + 1) /
				(f + bm25K1*(1-bm25B+bm25B*float64(lengths[i])/avgLen))
			bm25Scores[i] += idf[stem] * norm
		}
	}

	var base []float64
	switch opts.Mode {
	case ModeTFIDF:
		base = tfidfScores
	case ModeBM25:
		base = bm25Scores
	default:
		bmNorm := minMaxNormalize(bm25Scores)
		tfNorm := minMaxNormalize(tfidfScores)
		base = make([]float64, len(docs))
		for i := range docs {
			base[i] = hybridAlpha*bmNorm[i] + (1-hybridAlpha)*tfNorm[i]
		}
	}

	var out []Scored
	for i, d := range docs {
		matched := matchedVariantSet(d.Block)
		if !q.EvalVariants(matched) {
			continue
		}

		score := base[i]
		if hasAllRequired(q, matched) {
			score *= boostAllRequired
		} else if len(q.Required) > 0 {
			// A block missing a required term is excluded outright.
			continue
		}
		if isDefinitionKind(d.Block.Kind) {
			score *= boostDefinition
		}
		if d.Block.ContainsTest && !opts.AllowTests {
			score *= boostTestPenalty
		}
		if symbolMatches(d.Block, q) {
			score *= boostSymbolMatch
		}

		out = append(out, Scored{Document: d, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Block.File != out[j].Block.File {
			return out[i].Block.File < out[j].Block.File
		}
		return out[i].Block.StartLine < out[j].Block.StartLine
	})
	return out
}

// queryStems returns the primary stem of each positive query term.
func queryStems(q *query.Query) []string {
	seen := make(map[string]bool)
	var stems []string
	for _, t := range q.Terms {
		stem := tokenizer.Stem(strings.ToLower(t.Original))
		if !seen[stem] {
			seen[stem] = true
			stems = append(stems, stem)
		}
		// Compound parts participate in frequency too.
		for _, v := range t.Variants {
			if !seen[v] {
				seen[v] = true
				stems = append(stems, v)
			}
		}
	}
	return stems
}

func matchedVariantSet(b blocks.Block) map[string]bool {
	out := make(map[string]bool, len(b.Matches))
	for v := range b.Matches {
		out[v] = true
	}
	return out
}

// hasAllRequired reports whether every required term matched in the block.
func hasAllRequired(q *query.Query, matched map[string]bool) bool {
	for _, t := range q.Required {
		found := false
		for _, v := range t.Variants {
			if matched[v] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// isDefinitionKind reports whether a kind gets the definition boost.
func isDefinitionKind(kind string) bool {
	switch kind {
	case "statement", "window", "closure", "":
		return false
	default:
		return true
	}
}

// symbolMatches reports whether any query term occurs in the block's
// defining identifier.
func symbolMatches(b blocks.Block, q *query.Query) bool {
	if b.Symbol == "" {
		return false
	}
	parts := make(map[string]bool)
	lower := strings.ToLower(b.Symbol)
	parts[lower] = true
	parts[tokenizer.Stem(lower)] = true
	for _, p := range tokenizer.SplitIdentifier(b.Symbol) {
		pl := strings.ToLower(p)
		parts[pl] = true
		parts[tokenizer.Stem(pl)] = true
	}
	for _, t := range q.Terms {
		for _, v := range t.Variants {
			if parts[v] {
				return true
			}
		}
	}
	return false
}

// minMaxNormalize scales scores into [0,1] over the candidate set.
func minMaxNormalize(scores []float64) []float64 {
	min, max := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	if max == min {
		// Flat scores: every candidate is equally relevant.
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}
