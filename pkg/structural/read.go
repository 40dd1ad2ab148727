package structural

import (
	"bytes"
	"os"
)

// readFile loads a file, rejecting binaries.
func readFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n := len(content)
	if n > 1024 {
		n = 1024
	}
	if bytes.IndexByte(content[:n], 0) >= 0 {
		return nil, os.ErrInvalid
	}
	return content, nil
}
