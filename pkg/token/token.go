// Package token turns raw endpoint paths into padded token sequences for the chain model.
package token

import "strings"

// Kind separates literal path segments from the two padding sentinels.
type Kind uint8

const (
	Literal Kind = iota
	Start
	End
)

// String returns string representation of Kind
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Token is one segment of a path, or a sentinel.
// Sentinels never carry a value, so a segment spelled "START" stays a literal.
type Token struct {
	Kind  Kind
	Value string
}

var (
	StartToken = Token{Kind: Start}
	EndToken   = Token{Kind: End}
)

// Lit builds a literal token.
func Lit(value string) Token {
	return Token{Kind: Literal, Value: value}
}

// IsSentinel reports whether t is START or END.
func (t Token) IsSentinel() bool {
	return t.Kind != Literal
}

// Key is a string unique per token. Sentinel keys begin with NUL,
// which the tokenizer strips from every literal.
func (t Token) Key() string {
	switch t.Kind {
	case Start:
		return "\x00start"
	case End:
		return "\x00end"
	default:
		return t.Value
	}
}

func (t Token) String() string {
	switch t.Kind {
	case Start:
		return "<START>"
	case End:
		return "<END>"
	default:
		return t.Value
	}
}

// Less orders tokens by key, which puts sentinels before literals.
func Less(a, b Token) bool {
	return a.Key() < b.Key()
}

// Context is the pair of tokens preceding a position.
type Context [2]Token

// Root is the context every endpoint starts from.
var Root = Context{StartToken, StartToken}

// Then shifts the context by one token.
func (c Context) Then(t Token) Context {
	return Context{c[1], t}
}

func (c Context) String() string {
	return "(" + c[0].String() + ", " + c[1].String() + ")"
}

// Endpoint is a padded sequence: START, START, literals..., END.
type Endpoint []Token

// Pad wraps literal tokens with the sentinels.
func Pad(literals []Token) Endpoint {
	ep := make(Endpoint, 0, len(literals)+3)
	ep = append(ep, StartToken, StartToken)
	ep = append(ep, literals...)
	return append(ep, EndToken)
}

// Valid checks the padding invariant and that every inner token is a literal.
func (e Endpoint) Valid() bool {
	n := len(e)
	if n < 3 {
		return false
	}
	if e[0] != StartToken || e[1] != StartToken || e[n-1] != EndToken {
		return false
	}
	for _, t := range e[2 : n-1] {
		if t.Kind != Literal {
			return false
		}
	}
	return true
}

// Literals returns the tokens between the padding.
func (e Endpoint) Literals() []Token {
	if len(e) < 3 {
		return nil
	}
	return e[2 : len(e)-1]
}

// Len is the number of literal tokens.
func (e Endpoint) Len() int {
	if len(e) < 3 {
		return 0
	}
	return len(e) - 3
}

// Path reassembles the literal tokens into "/a/b".
func (e Endpoint) Path() string {
	lits := e.Literals()
	if len(lits) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, t := range lits {
		b.WriteByte('/')
		b.WriteString(t.Value)
	}
	return b.String()
}

// Key is unique per endpoint and used for deduplication.
func (e Endpoint) Key() string {
	parts := make([]string, len(e))
	for i, t := range e {
		parts[i] = t.Key()
	}
	return strings.Join(parts, "\x1f")
}

// Equal compares two endpoints token by token.
func (e Endpoint) Equal(o Endpoint) bool {
	if len(e) != len(o) {
		return false
	}
	for i := range e {
		if e[i] != o[i] {
			return false
		}
	}
	return true
}
