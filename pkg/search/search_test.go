package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/probe/pkg/tokens"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func run(t *testing.T, opts Options) *Result {
	t.Helper()
	result, err := Search(context.Background(), opts)
	require.NoError(t, err)
	return result
}

const rustPair = `fn add(a: i32, b: i32) -> i32 {
    a + b
}

fn mul(a: i32, b: i32) -> i32 {
    a * b
}
`

func TestSearch_RustFunctionDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/a.rs", rustPair)

	opts := DefaultOptions()
	opts.Query = "add AND i32"
	opts.Path = filepath.Join(dir, "src")
	opts.Language = "rust"

	result := run(t, opts)
	require.Len(t, result.Results, 1)

	r := result.Results[0]
	assert.Equal(t, 1, r.StartLine)
	assert.Equal(t, 3, r.EndLine)
	assert.Equal(t, "function", r.Kind)
	assert.Equal(t, "a.rs", filepath.Base(r.File))
	assert.Subset(t, r.MatchedTerms, []string{"add", "i32"})
	assert.Greater(t, r.Score, 0.0)
	assert.False(t, result.Truncated)
}

const authPy = `import hashlib

SALT = "probe"


def unrelated_helper(x):
    return x + 1


def authenticate_user(request):
    """Check the request credentials."""
    token = request.headers.get("token")
    if token is None:
        return None
    digest = hashlib.sha256(token.encode()).hexdigest()
    if digest == request.expected:
        return request.user
    return None
`

func TestSearch_StopwordsAndStemming(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "auth.py", authPy)

	opts := DefaultOptions()
	opts.Query = "authenticating users"
	opts.Path = dir

	result := run(t, opts)
	require.Len(t, result.Results, 1)

	r := result.Results[0]
	assert.Equal(t, 10, r.StartLine)
	assert.Equal(t, "function", r.Kind)
	assert.Equal(t, "authenticate_user", r.Symbol)
	assert.Greater(t, r.Score, 0.0)
}

func TestSearch_ExactModeSuppressesStemming(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "auth.py", authPy)

	opts := DefaultOptions()
	opts.Query = "authenticating"
	opts.Path = dir
	opts.Exact = true

	result := run(t, opts)
	assert.Empty(t, result.Results)
	assert.False(t, result.Truncated)
}

func TestSearch_ForbiddenTermExcludesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.go", "package p\n\nfunc useClient() {\n\tclient()\n}\n")
	writeFile(t, dir, "y.go", "package p\n\nfunc useMock() {\n\tclient()\n\tmock()\n}\n")

	opts := DefaultOptions()
	opts.Query = "client -mock"
	opts.Path = dir

	result := run(t, opts)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "x.go", filepath.Base(result.Results[0].File))
}

func TestSearch_TokenBudgetTruncation(t *testing.T) {
	dir := t.TempDir()

	// Ten identically scoring files.
	var body strings.Builder
	body.WriteString("def widget(arg):\n")
	for i := 0; i < 40; i++ {
		body.WriteString("    value = widget_helper(arg)\n")
	}
	for i := 0; i < 10; i++ {
		writeFile(t, dir, fmt.Sprintf("f%02d.py", i), body.String())
	}

	perBlock := tokens.Count(strings.TrimRight(body.String(), "\n"))
	require.Greater(t, perBlock, 0)

	opts := DefaultOptions()
	opts.Query = "widget"
	opts.Path = dir
	opts.MaxTokens = perBlock*2 + perBlock/2 // room for exactly two blocks

	result := run(t, opts)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Truncated)
	// Stable tie-break: file path ascending.
	assert.Equal(t, "f00.py", filepath.Base(result.Results[0].File))
	assert.Equal(t, "f01.py", filepath.Base(result.Results[1].File))
}

func TestSearch_FirstBlockOverBudget(t *testing.T) {
	dir := t.TempDir()
	var body strings.Builder
	body.WriteString("def widget(arg):\n")
	for i := 0; i < 50; i++ {
		body.WriteString("    value = widget_helper(arg)\n")
	}
	writeFile(t, dir, "big.py", body.String())

	opts := DefaultOptions()
	opts.Query = "widget"
	opts.Path = dir
	opts.MaxTokens = 10

	result := run(t, opts)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Truncated)
}

func TestSearch_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", authPy)
	writeFile(t, dir, "b.py", strings.ReplaceAll(authPy, "authenticate_user", "authenticate_admin"))
	writeFile(t, dir, "c.rs", rustPair)

	opts := DefaultOptions()
	opts.Query = "authenticating"
	opts.Path = dir

	first := run(t, opts)
	second := run(t, opts)
	assert.Equal(t, first, second)
}

func TestSearch_SessionSuppression(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "auth.py", authPy)

	opts := DefaultOptions()
	opts.Query = "authenticating"
	opts.Path = dir
	opts.SessionID = "new"

	first := run(t, opts)
	require.Len(t, first.Results, 1)
	require.NotEmpty(t, first.SessionID)

	opts.SessionID = first.SessionID
	second := run(t, opts)
	assert.Empty(t, second.Results, "session must suppress already returned blocks")
}

func TestSearch_TestFilesExcludedByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "client.go", "package p\n\nfunc Dial() { client() }\n")
	writeFile(t, dir, "client_test.go", "package p\n\nfunc TestDial(t *T) { client() }\n")

	opts := DefaultOptions()
	opts.Query = "client"
	opts.Path = dir

	result := run(t, opts)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "client.go", filepath.Base(result.Results[0].File))

	opts.AllowTests = true
	result = run(t, opts)
	assert.Len(t, result.Results, 2)
}

func TestSearch_LanguageFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", rustPair)
	writeFile(t, dir, "b.py", "def add(a, b):\n    return a + b\n")

	opts := DefaultOptions()
	opts.Query = "add"
	opts.Path = dir
	opts.Language = "python"

	result := run(t, opts)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "b.py", filepath.Base(result.Results[0].File))
}

func TestSearch_UnknownLanguage(t *testing.T) {
	opts := DefaultOptions()
	opts.Query = "x"
	opts.Path = t.TempDir()
	opts.Language = "cobol"

	_, err := Search(context.Background(), opts)
	assert.ErrorIs(t, err, ErrUnknownLanguage)
}

func TestSearch_MalformedQuery(t *testing.T) {
	opts := DefaultOptions()
	opts.Query = "(((("
	opts.Path = t.TempDir()

	_, err := Search(context.Background(), opts)
	assert.Error(t, err)
}

func TestSearch_PathNotFound(t *testing.T) {
	opts := DefaultOptions()
	opts.Query = "x"
	opts.Path = "/definitely/not/here"

	_, err := Search(context.Background(), opts)
	assert.Error(t, err)
}

func TestSearch_LineRangeInvariant(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "auth.py", authPy)
	writeFile(t, dir, "notes.txt", "authenticating users is described here\n")

	opts := DefaultOptions()
	opts.Query = "authenticating"
	opts.Path = dir

	result := run(t, opts)
	require.NotEmpty(t, result.Results)
	for _, r := range result.Results {
		assert.GreaterOrEqual(t, r.StartLine, 1)
		assert.GreaterOrEqual(t, r.EndLine, r.StartLine)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "auth.py", authPy)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := DefaultOptions()
	opts.Query = "authenticating"
	opts.Path = dir

	_, err := Search(ctx, opts)
	assert.ErrorIs(t, err, ErrCancelled)
}
