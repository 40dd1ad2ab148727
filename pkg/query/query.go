// Package query compiles elastic-style boolean queries into an expression
// tree over stemmed terms.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/XiaoConstantine/probe/pkg/tokenizer"
)

// ErrMalformed reports an unparseable or empty query.
var ErrMalformed = errors.New("malformed query")

// Expr is a node of the boolean query tree.
type Expr interface {
	// Eval reports whether a document satisfies the expression, given a
	// predicate that reports whether a term matched.
	Eval(matched func(*Term) bool) bool
}

// Term is a leaf: one user-supplied word expanded into its match variants.
type Term struct {
	// Original is the word as the user typed it, without +/- prefix.
	Original string
	// Required marks a `+` prefixed term.
	Required bool
	// Variants are the normalized forms that count as a match: the lowercased
	// original, its stems and any compound parts. A term matches when any
	// variant matches.
	Variants []string
}

func (t *Term) Eval(matched func(*Term) bool) bool { return matched(t) }

// And matches when every child matches. Never empty.
type And struct{ Children []Expr }

func (a *And) Eval(matched func(*Term) bool) bool {
	for _, c := range a.Children {
		if !c.Eval(matched) {
			return false
		}
	}
	return true
}

// Or matches when any child matches. Never empty.
type Or struct{ Children []Expr }

func (o *Or) Eval(matched func(*Term) bool) bool {
	for _, c := range o.Children {
		if c.Eval(matched) {
			return true
		}
	}
	return false
}

// Not inverts its single child.
type Not struct{ Child Expr }

func (n *Not) Eval(matched func(*Term) bool) bool { return !n.Child.Eval(matched) }

// Options controls query compilation.
type Options struct {
	// AnyTerm joins adjacent bare words with OR instead of AND.
	AnyTerm bool
	// Exact disables stemming and compound splitting; variants are the
	// verbatim and lowercased originals, matched as literal substrings.
	Exact bool
	// Dict enables compound splitting of query terms. Nil disables.
	Dict *tokenizer.Dictionary
}

// Query is a compiled search query.
type Query struct {
	Expr Expr
	// Terms are all positive (non-negated) terms in tree order, deduplicated
	// by original form.
	Terms []*Term
	// Required are the `+` prefixed subset of Terms.
	Required []*Term
	// Forbidden are terms appearing under a Not.
	Forbidden []*Term
	// Exact records the compilation mode for the scanner.
	Exact bool
}

// Compile parses and expands a query.
func Compile(input string, opts Options) (*Query, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, opts: opts}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, p.peek().text)
	}

	expr = prune(expr)
	if expr == nil {
		return nil, fmt.Errorf("%w: no searchable terms", ErrMalformed)
	}

	q := &Query{Expr: expr, Exact: opts.Exact}
	collectTerms(expr, false, q)
	if len(q.Terms) == 0 {
		return nil, fmt.Errorf("%w: no searchable terms", ErrMalformed)
	}
	return q, nil
}

// Variants returns the union of all positive and forbidden term variants,
// which is exactly what the line scanner must look for.
func (q *Query) Variants() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(terms []*Term) {
		for _, t := range terms {
			for _, v := range t.Variants {
				if !seen[v] {
					seen[v] = true
					out = append(out, v)
				}
			}
		}
	}
	add(q.Terms)
	add(q.Forbidden)
	return out
}

// MatchedTerms returns the original forms of positive terms with at least one
// matched variant, in query order.
func (q *Query) MatchedTerms(matchedVariants map[string]bool) []string {
	var out []string
	for _, t := range q.Terms {
		for _, v := range t.Variants {
			if matchedVariants[v] {
				out = append(out, t.Original)
				break
			}
		}
	}
	return out
}

// EvalVariants evaluates the expression against a set of matched variants.
func (q *Query) EvalVariants(matchedVariants map[string]bool) bool {
	return q.Expr.Eval(func(t *Term) bool {
		for _, v := range t.Variants {
			if matchedVariants[v] {
				return true
			}
		}
		return false
	})
}

// newTerm expands a word into a Term. Returns nil when nothing searchable
// remains (stopwords only).
func newTerm(word string, required bool, opts Options) *Term {
	t := &Term{Original: word, Required: required}

	if opts.Exact {
		t.Variants = append(t.Variants, word)
		if lower := strings.ToLower(word); lower != word {
			t.Variants = append(t.Variants, lower)
		}
		return t
	}

	seen := make(map[string]bool)
	lower := strings.ToLower(word)
	if !tokenizer.IsStopword(lower) {
		seen[lower] = true
		t.Variants = append(t.Variants, lower)
		if stem := tokenizer.Stem(lower); !seen[stem] {
			seen[stem] = true
			t.Variants = append(t.Variants, stem)
		}
	}
	for _, tok := range tokenizer.Tokenize(word, tokenizer.Options{Stem: true, Dict: opts.Dict}) {
		if !seen[tok] {
			seen[tok] = true
			t.Variants = append(t.Variants, tok)
		}
	}

	if len(t.Variants) == 0 {
		return nil
	}
	return t
}

// prune removes empty subtrees left by stopword-only terms.
func prune(e Expr) Expr {
	switch n := e.(type) {
	case *And:
		var kept []Expr
		for _, c := range n.Children {
			if p := prune(c); p != nil {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		if len(kept) == 1 {
			return kept[0]
		}
		return &And{Children: kept}
	case *Or:
		var kept []Expr
		for _, c := range n.Children {
			if p := prune(c); p != nil {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		if len(kept) == 1 {
			return kept[0]
		}
		return &Or{Children: kept}
	case *Not:
		if p := prune(n.Child); p != nil {
			return &Not{Child: p}
		}
		return nil
	default:
		return e
	}
}

func collectTerms(e Expr, negated bool, q *Query) {
	switch n := e.(type) {
	case *Term:
		if negated {
			q.Forbidden = append(q.Forbidden, n)
			return
		}
		for _, existing := range q.Terms {
			if existing.Original == n.Original {
				return
			}
		}
		q.Terms = append(q.Terms, n)
		if n.Required {
			q.Required = append(q.Required, n)
		}
	case *And:
		for _, c := range n.Children {
			collectTerms(c, negated, q)
		}
	case *Or:
		for _, c := range n.Children {
			collectTerms(c, negated, q)
		}
	case *Not:
		collectTerms(n.Child, !negated, q)
	}
}
