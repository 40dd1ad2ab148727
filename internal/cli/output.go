package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/XiaoConstantine/probe/pkg/extract"
	"github.com/XiaoConstantine/probe/pkg/search"
	"github.com/XiaoConstantine/probe/pkg/structural"
)

const (
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// colorize wraps s in an ANSI code unless NO_COLOR is set.
func colorize(code, s string) string {
	if os.Getenv("NO_COLOR") != "" {
		return s
	}
	return code + s + ansiReset
}

func outputSearch(result *search.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "markdown", "plain":
		fenced := format == "markdown"
		if len(result.Results) == 0 {
			fmt.Println("No results found")
			return nil
		}
		for _, r := range result.Results {
			printBlockHeader(r.File, r.StartLine, r.EndLine, r.Kind)
			printCode(r.Code, r.File, fenced)
			fmt.Println()
		}
		fmt.Printf("%s\n", colorize(ansiDim, fmt.Sprintf(
			"%d results (of %d candidates, %d files considered)",
			len(result.Results), result.TotalCandidates, result.TotalConsidered)))
		if result.Truncated {
			fmt.Println(colorize(ansiDim, "Results truncated to fit the token budget"))
		}
		if result.SessionID != "" {
			fmt.Println(colorize(ansiDim, "Session: "+result.SessionID))
		}
		printWarnings(result.Warnings)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func outputMatches(matches []structural.Match, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	case "markdown", "plain":
		fenced := format == "markdown"
		if len(matches) == 0 {
			fmt.Println("No matches found")
			return nil
		}
		for _, m := range matches {
			printBlockHeader(m.File, m.StartLine, m.EndLine, m.Kind)
			printCode(m.Code, m.File, fenced)
			fmt.Println()
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func outputExtractions(extractions []extract.Extraction, warnings []string, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(extractions); err != nil {
			return err
		}
		printWarnings(warnings)
		return nil
	case "markdown", "plain":
		fenced := format == "markdown"
		for _, e := range extractions {
			printBlockHeader(e.File, e.StartLine, e.EndLine, e.Kind)
			printCode(e.Code, e.File, fenced)
			fmt.Println()
		}
		printWarnings(warnings)
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func printBlockHeader(file string, start, end int, kind string) {
	header := fmt.Sprintf("File: %s:%d-%d (%s)", file, start, end, kind)
	fmt.Println(colorize(ansiBold, header))
}

func printCode(code, file string, fenced bool) {
	if fenced {
		fmt.Printf("```%s\n", fenceTag(file))
		fmt.Println(strings.TrimRight(code, "\n"))
		fmt.Println("```")
		return
	}
	fmt.Println(strings.TrimRight(code, "\n"))
}

// fenceTag picks a markdown language tag from the file extension.
func fenceTag(file string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
	switch ext {
	case "rs":
		return "rust"
	case "py", "pyw", "pyi":
		return "python"
	case "ts", "tsx", "mts", "cts":
		return "typescript"
	case "js", "jsx", "mjs", "cjs":
		return "javascript"
	case "rb", "rake":
		return "ruby"
	case "cs":
		return "csharp"
	default:
		return ext
	}
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s\n", colorize(ansiDim, "warning: "+w))
	}
}
