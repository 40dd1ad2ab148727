// Package tokens counts LLM tokens for budget enforcement. Counting uses a
// cl100k-compatible BPE vocabulary loaded from embedded assets; when the
// vocabulary is unavailable the count degrades to a character estimate.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// encoding loads the BPE vocabulary once. The offline loader keeps counting
// deterministic and network-free.
func encoding() *tiktoken.Tiktoken {
	encOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		enc = e
	})
	return enc
}

// Count returns the BPE token count of text, or the estimate when the
// vocabulary failed to load.
func Count(text string) int {
	if text == "" {
		return 0
	}
	e := encoding()
	if e == nil {
		return Estimate(text)
	}
	return len(e.Encode(text, nil, nil))
}

// Estimate approximates token count without a vocabulary: the larger of
// chars/4 and words*1.3. Code tokenizes densely, so the character estimate
// usually wins.
func Estimate(text string) int {
	charBased := len(text) / 4
	wordBased := int(float64(len(strings.Fields(text))) * 1.3)
	if charBased > wordBased {
		return charBased
	}
	return wordBased
}
