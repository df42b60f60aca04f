// Package dictionary loads the endpoint and word lists the engine consumes.
//
// Lists come from a JSON array file, a newline-delimited text file, an
// inline comma-separated string or the built-in wordlist. Every list is
// trimmed and deduplicated in first-seen order.
package dictionary

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

var ErrNoSource = errors.New("dictionary: no list source given")

// maxLineSize bounds a single text line; longer lines are an error.
const maxLineSize = 1 << 20

// LoadList reads a list file, choosing the format by extension.
func LoadList(filename string) ([]string, error) {
	format := DetectFileFormat(filename)
	if err := ValidateFileFormat(filename, format); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open list %s: %w", filename, err)
	}
	defer file.Close()

	list, err := ReadList(file, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	log.Debugf("Loaded %d entries from %s (%s)", len(list), filename, format)
	return list, nil
}

// ReadList decodes a list in the given format.
func ReadList(r io.Reader, format FileFormat) ([]string, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatText:
		return readText(r)
	}
	return nil, fmt.Errorf("unknown format: %v", format)
}

func readJSON(r io.Reader) ([]string, error) {
	var raw []string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("expected a JSON array of strings: %w", err)
	}
	return Unique(raw), nil
}

func readText(r io.Reader) ([]string, error) {
	var raw []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return Unique(raw), nil
}

// ParseInline splits a comma-separated list.
func ParseInline(s string) []string {
	return Unique(strings.Split(s, ","))
}

// Resolve returns the first available list: the file, then the inline
// string, then fallback. ErrNoSource is returned when all three are empty.
func Resolve(filename, inline string, fallback []string) ([]string, error) {
	switch {
	case filename != "":
		return LoadList(filename)
	case strings.TrimSpace(inline) != "":
		return ParseInline(inline), nil
	case fallback != nil:
		return Unique(fallback), nil
	}
	return nil, ErrNoSource
}

// Unique trims entries, drops blanks and repeats, and keeps first-seen order.
func Unique(list []string) []string {
	seen := patricia.NewTrie()
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if seen.Insert(patricia.Prefix(s), struct{}{}) {
			out = append(out, s)
		}
	}
	return out
}
