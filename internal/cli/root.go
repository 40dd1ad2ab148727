// Package cli implements the probe command-line front-end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/probe/pkg/extract"
	"github.com/XiaoConstantine/probe/pkg/query"
	"github.com/XiaoConstantine/probe/pkg/rank"
	"github.com/XiaoConstantine/probe/pkg/scanner"
	"github.com/XiaoConstantine/probe/pkg/search"
	"github.com/XiaoConstantine/probe/pkg/structural"
	"github.com/XiaoConstantine/probe/pkg/util"
)

// Exit codes per interface contract.
const (
	exitOK             = 0
	exitError          = 1
	exitMalformedQuery = 2
	exitPathNotFound   = 3
)

var (
	// Common flags
	format     string
	maxTokens  int
	maxResults int
	langFilter string
	allowTests bool
	exact      bool
	debugLevel int

	// Search flags
	anyTerm    bool
	noComments bool
	sessionID  string
	pathGlob   string
	ranker     string
	mergeGap   int

	// Extract flags
	inputFile    string
	contextLines int
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		switch {
		case errors.Is(err, query.ErrMalformed):
			return exitMalformedQuery
		case errors.Is(err, scanner.ErrPathNotFound):
			return exitPathNotFound
		default:
			return exitError
		}
	}
	return exitOK
}

var rootCmd = &cobra.Command{
	Use:   "probe",
	Short: "AI-friendly code search: find syntactic blocks by keyword, pattern, or location",
	Long: `probe is a local code search engine built for feeding language models.

It finds whole syntactic blocks (functions, classes, methods) instead of
bare matching lines, ranks them with BM25/TF-IDF, and stops at a token
budget so results always fit an LLM context window.

  probe search "authentication logic" ./src
  probe query 'fn $NAME($$$ARGS)' ./src --language rust
  probe extract src/auth.rs:42 src/db.rs#connect`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&format, "format", "plain", "Output format: plain, json, markdown")
	pf.IntVar(&maxTokens, "max-tokens", 10000, "Token budget across returned blocks")
	pf.IntVar(&maxResults, "max-results", 0, "Maximum number of results (0 = unbounded)")
	pf.StringVar(&langFilter, "language", "", "Restrict to one language (e.g. rust, go)")
	pf.BoolVar(&allowTests, "allow-tests", false, "Include test files and test blocks")
	pf.BoolVar(&exact, "exact", false, "Literal matching, no stemming")
	pf.IntVar(&debugLevel, "debug", 0, "Debug verbosity (0-2)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(extractCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY [PATH]",
	Short: "Search for code blocks matching a boolean keyword query",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.BoolVar(&anyTerm, "any-term", false, "Match blocks containing any term instead of all")
	f.BoolVar(&noComments, "no-comments", false, "Ignore matches inside comments")
	f.StringVar(&sessionID, "session", "", `Session id for deduplication across calls ("new" to allocate)`)
	f.StringVar(&pathGlob, "path-glob", "", `Restrict files to a glob, e.g. "**/handlers/*.go"`)
	f.StringVar(&ranker, "ranker", "hybrid", "Scoring mode: hybrid, bm25, tfidf")
	f.IntVar(&mergeGap, "merge-gap", 0, "Merge blocks separated by at most this many lines")
}

func runSearch(cmd *cobra.Command, args []string) error {
	applyDebug()

	path := "."
	if len(args) > 1 {
		path = args[1]
	}

	opts := search.DefaultOptions()
	opts.Query = args[0]
	opts.Path = path
	opts.AllowTests = allowTests
	opts.Exact = exact
	opts.AnyTerm = anyTerm
	opts.IncludeComments = !noComments
	opts.MaxResults = maxResults
	opts.MaxTokens = maxTokens
	opts.Language = langFilter
	opts.PathGlob = pathGlob
	opts.SessionID = sessionID
	opts.Ranker = rank.Mode(ranker)
	opts.MergeGap = mergeGap

	result, err := search.Search(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return outputSearch(result, format)
}

var queryCmd = &cobra.Command{
	Use:   "query PATTERN [PATH]",
	Short: "Match an AST pattern with $NAME / $$$NAME metavariables",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDebug()

		path := "."
		if len(args) > 1 {
			path = args[1]
		}
		matches, err := structural.Query(cmd.Context(), structural.Options{
			Pattern:    args[0],
			Path:       path,
			Language:   langFilter,
			AllowTests: allowTests,
		})
		if err != nil {
			return err
		}
		return outputMatches(matches, format)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [TARGET...]",
	Short: "Extract the block enclosing path:line or path#symbol targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDebug()

		opts := extract.Options{
			Targets:      args,
			AllowTests:   allowTests,
			ContextLines: contextLines,
		}
		if inputFile != "" {
			content, err := os.ReadFile(inputFile)
			if err != nil {
				return err
			}
			opts.InputContent = string(content)
		}
		if len(opts.Targets) == 0 && opts.InputContent == "" {
			return cmd.Help()
		}

		extractions, warnings, err := extract.Extract(cmd.Context(), opts)
		if err != nil {
			return err
		}
		return outputExtractions(extractions, warnings, format)
	},
}

func init() {
	f := extractCmd.Flags()
	f.StringVar(&inputFile, "input-file", "", "Mine a text file (e.g. a test log) for path:line references")
	f.IntVar(&contextLines, "context-lines", 10, "Context padding when no syntactic block encloses the target")
}

func applyDebug() {
	if debugLevel > 0 {
		util.SetDebugLevel(util.DebugLevel(debugLevel))
	}
}
