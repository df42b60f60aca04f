package token

import (
	"strings"
	"unicode"

	"github.com/bastiangx/oracle/internal/utils"
)

const (
	// IDPlaceholder replaces purely numeric segments.
	IDPlaceholder = "<id>"
	// UUIDPlaceholder replaces UUID-shaped segments.
	UUIDPlaceholder = "<uuid>"
)

// Tokenizer splits paths on "/" and normalizes each segment.
// Empty segments are dropped, so "//a///b/" and "/a/b" tokenize the same.
// Query strings and fragments are not part of a path's tokens.
type Tokenizer struct {
	// FoldCase lowercases every segment.
	FoldCase bool
	// NormalizeIDs swaps numeric and UUID segments for placeholders.
	NormalizeIDs bool
}

// New returns a tokenizer with placeholder normalization on and case kept.
func New() *Tokenizer {
	return &Tokenizer{NormalizeIDs: true}
}

// Tokenize turns a raw path or URL into a padded Endpoint.
func (tk *Tokenizer) Tokenize(raw string) Endpoint {
	return Pad(tk.split(raw))
}

// TokenizeAll tokenizes every non-blank input.
func (tk *Tokenizer) TokenizeAll(raws []string) []Endpoint {
	eps := make([]Endpoint, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		eps = append(eps, tk.Tokenize(raw))
	}
	return eps
}

// Phrase normalizes a seed word into literal tokens.
// A word with slashes becomes a multi-token phrase; a word that
// normalizes to nothing yields nil.
func (tk *Tokenizer) Phrase(word string) []Token {
	return tk.split(word)
}

// Phrases converts a wordlist, dropping empty and duplicate phrases.
func (tk *Tokenizer) Phrases(words []string) [][]Token {
	seen := make(map[string]struct{}, len(words))
	out := make([][]Token, 0, len(words))
	for _, w := range words {
		p := tk.Phrase(w)
		if len(p) == 0 {
			continue
		}
		key := Pad(p).Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Segment normalizes one path segment. ok is false when nothing is left.
func (tk *Tokenizer) Segment(s string) (Token, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return Token{}, false
	}
	if tk.FoldCase {
		s = strings.ToLower(s)
	}
	if tk.NormalizeIDs {
		switch {
		case utils.IsOnlyNumbers(s):
			s = IDPlaceholder
		case utils.IsUUIDLike(s):
			s = UUIDPlaceholder
		}
	}
	return Lit(s), true
}

func (tk *Tokenizer) split(raw string) []Token {
	p := stripPath(raw)
	parts := strings.Split(p, "/")
	out := make([]Token, 0, len(parts))
	for _, part := range parts {
		if t, ok := tk.Segment(part); ok {
			out = append(out, t)
		}
	}
	return out
}

// stripPath drops whitespace, scheme and host, query and fragment.
func stripPath(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.IndexByte(s, '/'); j >= 0 {
			s = s[j:]
		} else {
			s = ""
		}
	}
	return s
}
