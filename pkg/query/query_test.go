package query

import (
	"errors"
	"testing"
)

func mustCompile(t *testing.T, input string, opts Options) *Query {
	t.Helper()
	q, err := Compile(input, opts)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", input, err)
	}
	return q
}

func TestCompile_ImplicitAnd(t *testing.T) {
	q := mustCompile(t, "add i32", Options{})

	and, ok := q.Expr.(*And)
	if !ok {
		t.Fatalf("expected And root, got %T", q.Expr)
	}
	if len(and.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(and.Children))
	}
	if len(q.Terms) != 2 {
		t.Errorf("expected 2 terms, got %d", len(q.Terms))
	}
}

func TestCompile_AnyTermJoinsWithOr(t *testing.T) {
	q := mustCompile(t, "add i32", Options{AnyTerm: true})
	if _, ok := q.Expr.(*Or); !ok {
		t.Errorf("expected Or root with any-term, got %T", q.Expr)
	}
}

func TestCompile_ExplicitOperators(t *testing.T) {
	q := mustCompile(t, "(client OR server) AND NOT mock", Options{})

	and, ok := q.Expr.(*And)
	if !ok {
		t.Fatalf("expected And root, got %T", q.Expr)
	}
	if _, ok := and.Children[0].(*Or); !ok {
		t.Errorf("expected Or first child, got %T", and.Children[0])
	}
	if _, ok := and.Children[1].(*Not); !ok {
		t.Errorf("expected Not second child, got %T", and.Children[1])
	}
	if len(q.Forbidden) != 1 || q.Forbidden[0].Original != "mock" {
		t.Errorf("expected mock forbidden, got %+v", q.Forbidden)
	}
}

func TestCompile_RequiredAndForbidden(t *testing.T) {
	q := mustCompile(t, "+auth -mock session", Options{})

	if len(q.Required) != 1 || q.Required[0].Original != "auth" {
		t.Errorf("expected auth required, got %+v", q.Required)
	}
	if len(q.Forbidden) != 1 || q.Forbidden[0].Original != "mock" {
		t.Errorf("expected mock forbidden, got %+v", q.Forbidden)
	}
	if len(q.Terms) != 2 {
		t.Errorf("expected 2 positive terms, got %d", len(q.Terms))
	}
}

func TestCompile_PhraseIsRequiredAnd(t *testing.T) {
	q := mustCompile(t, `"user session"`, Options{})

	and, ok := q.Expr.(*And)
	if !ok {
		t.Fatalf("expected And root for phrase, got %T", q.Expr)
	}
	if len(and.Children) != 2 {
		t.Fatalf("expected 2 phrase terms, got %d", len(and.Children))
	}
	for _, term := range q.Terms {
		if !term.Required {
			t.Errorf("phrase term %q should be required", term.Original)
		}
	}
}

func TestCompile_Malformed(t *testing.T) {
	cases := []string{
		"",
		"(unbalanced",
		"unbalanced)",
		"AND",
		"client AND",
		"NOT",
		`"unterminated`,
		"the is of", // all stopwords
	}
	for _, input := range cases {
		if _, err := Compile(input, Options{}); !errors.Is(err, ErrMalformed) {
			t.Errorf("Compile(%q): expected ErrMalformed, got %v", input, err)
		}
	}
}

func TestCompile_StemmedVariants(t *testing.T) {
	q := mustCompile(t, "authenticating", Options{})

	vs := q.Terms[0].Variants
	hasLower, hasStem := false, false
	for _, v := range vs {
		if v == "authenticating" {
			hasLower = true
		}
		if v != "authenticating" {
			hasStem = true
		}
	}
	if !hasLower || !hasStem {
		t.Errorf("expected lowercase and stemmed variants, got %v", vs)
	}
}

func TestCompile_ExactVariants(t *testing.T) {
	q := mustCompile(t, "Authenticating", Options{Exact: true})

	vs := q.Terms[0].Variants
	if len(vs) != 2 || vs[0] != "Authenticating" || vs[1] != "authenticating" {
		t.Errorf("expected verbatim+lowercase only, got %v", vs)
	}
}

func TestEvalVariants(t *testing.T) {
	q := mustCompile(t, "client -mock", Options{})

	if !q.EvalVariants(map[string]bool{"client": true}) {
		t.Error("client alone should satisfy the query")
	}
	if q.EvalVariants(map[string]bool{"client": true, "mock": true}) {
		t.Error("mock presence should fail the query")
	}
	if q.EvalVariants(map[string]bool{"mock": true}) {
		t.Error("mock alone should fail the query")
	}
}

func TestMatchedTerms(t *testing.T) {
	q := mustCompile(t, "add i32", Options{})

	got := q.MatchedTerms(map[string]bool{"add": true, "i32": true})
	if len(got) != 2 || got[0] != "add" || got[1] != "i32" {
		t.Errorf("expected [add i32], got %v", got)
	}
	got = q.MatchedTerms(map[string]bool{"add": true})
	if len(got) != 1 || got[0] != "add" {
		t.Errorf("expected [add], got %v", got)
	}
}

func TestVariants_Union(t *testing.T) {
	q := mustCompile(t, "client -mock", Options{})

	vs := q.Variants()
	found := map[string]bool{}
	for _, v := range vs {
		found[v] = true
	}
	if !found["client"] || !found["mock"] {
		t.Errorf("scanner variant union missing terms: %v", vs)
	}
}
