package tokenizer

import (
	"bufio"
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"
	"sync"
)

// minCompoundPart is the shortest dictionary word usable as a compound part.
const minCompoundPart = 3

// minCompoundLength is the shortest token worth trying to decompose.
const minCompoundLength = 7

//go:embed words.txt
var embeddedWords []byte

// Dictionary backs compound splitting of long identifiers like
// "databaseconnection" -> database + connection.
type Dictionary struct {
	words map[string]bool
}

var (
	defaultDict     *Dictionary
	defaultDictOnce sync.Once
)

// DefaultDictionary returns the built-in word list, optionally replaced by
// the file named in PROBE_DICT.
func DefaultDictionary() *Dictionary {
	defaultDictOnce.Do(func() {
		if path := os.Getenv("PROBE_DICT"); path != "" {
			if d, err := LoadDictionary(path); err == nil {
				defaultDict = d
				return
			}
		}
		defaultDict = readDictionary(bytes.NewReader(embeddedWords))
	})
	return defaultDict
}

// LoadDictionary reads a newline-separated word list.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readDictionary(f), nil
}

func readDictionary(r io.Reader) *Dictionary {
	words := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if len(w) >= minCompoundPart && !strings.HasPrefix(w, "#") {
			words[w] = true
		}
	}
	return &Dictionary{words: words}
}

// Contains reports whether word is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	return d.words[word]
}

// Split decomposes token into dictionary words of length >= 3. Returns the
// token unchanged when it is itself a word, is too short, or has no full
// decomposition.
func (d *Dictionary) Split(token string) []string {
	if len(token) < minCompoundLength || d.words[token] {
		return []string{token}
	}

	// splits[i] holds the start of the word ending at i, or -1.
	n := len(token)
	splits := make([]int, n+1)
	for i := range splits {
		splits[i] = -1
	}
	splits[0] = 0
	// Preferring the smallest start keeps the longest word ending at each
	// position, so "database" beats "base".
	for end := minCompoundPart; end <= n; end++ {
		for start := 0; start <= end-minCompoundPart; start++ {
			if splits[start] >= 0 && d.words[token[start:end]] {
				splits[end] = start
				break
			}
		}
	}
	if splits[n] < 0 {
		return []string{token}
	}

	var parts []string
	for end := n; end > 0; {
		start := splits[end]
		parts = append(parts, token[start:end])
		end = start
	}
	// Reverse into source order.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}
