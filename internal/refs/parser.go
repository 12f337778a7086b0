// Package refs extracts video references from pasted links.
package refs

import (
	"io"
	"regexp"
	"strings"
)

// Reference identifies one hosted video: "s_" followed by 32 lowercase hex
// characters.
type Reference string

var referenceRegex = regexp.MustCompile(`s_[a-f0-9]{32}`)

func (r Reference) String() string {
	return string(r)
}

// Extract returns the first reference found in line.
func Extract(line string) (Reference, bool) {
	match := referenceRegex.FindString(line)
	if match == "" {
		return "", false
	}
	return Reference(match), true
}

// Lines splits text on newlines and returns the non-empty trimmed lines.
func Lines(text string) []string {
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Parse returns one reference per line that contains one, in input order.
// Duplicates are kept; lines without a reference are skipped.
func Parse(text string) []Reference {
	var refs []Reference
	for _, line := range Lines(text) {
		if ref, ok := Extract(line); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ReadAll reads the whole of r as pasted text. Line length is unbounded.
func ReadAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
