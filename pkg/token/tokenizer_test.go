package token

import (
	"testing"
)

func lits(values ...string) []Token {
	out := make([]Token, len(values))
	for i, v := range values {
		out[i] = Lit(v)
	}
	return out
}

func TestTokenizeDeterministic(t *testing.T) {
	tk := New()
	a := tk.Tokenize("/api/v1/users")
	b := tk.Tokenize("/api/v1/users")

	if !a.Equal(b) {
		t.Fatalf("tokenizing twice differs: %v vs %v", a, b)
	}
	want := Pad(lits("api", "v1", "users"))
	if !a.Equal(want) {
		t.Errorf("got %v, want %v", a, want)
	}
}

func TestTokenize(t *testing.T) {
	testCases := []struct {
		input       string
		expected    []Token
		description string
	}{
		{"/api/v1/users", lits("api", "v1", "users"), "plain path"},
		{"api/v1/users/", lits("api", "v1", "users"), "no leading slash, trailing slash"},
		{"//api///v1//", lits("api", "v1"), "empty segments dropped"},
		{"/", nil, "root"},
		{"/users/42", lits("users", IDPlaceholder), "numeric id"},
		{"/users/123e4567-e89b-12d3-a456-426614174000/orders", lits("users", UUIDPlaceholder, "orders"), "uuid"},
		{"/search?q=1&page=2", lits("search"), "query stripped"},
		{"/docs#intro", lits("docs"), "fragment stripped"},
		{"https://example.com/api/v2?key=x", lits("api", "v2"), "absolute url"},
		{"https://example.com", nil, "host only"},
		{"  /a/b  ", lits("a", "b"), "surrounding spaces"},
		{"/a/\tb\x00/c", lits("a", "b", "c"), "control characters"},
		{"/Users/Admin", lits("Users", "Admin"), "case kept by default"},
		{"/START/END", lits("START", "END"), "sentinel text is literal"},
	}

	tk := New()
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := tk.Tokenize(tc.input)
			want := Pad(tc.expected)
			if !got.Equal(want) {
				t.Errorf("Tokenize(%q) = %v; want %v", tc.input, got, want)
			}
			if !got.Valid() {
				t.Errorf("Tokenize(%q) produced an invalid endpoint", tc.input)
			}
		})
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	inputs := []string{
		"/api/v1/users",
		"//a///b/?x=1",
		"/users/42/orders/123e4567-e89b-12d3-a456-426614174000",
		"https://host/Mixed/Case#frag",
		"/",
		"/<id>/<uuid>",
	}
	for _, fold := range []bool{false, true} {
		tk := &Tokenizer{FoldCase: fold, NormalizeIDs: true}
		for _, in := range inputs {
			first := tk.Tokenize(in)
			second := tk.Tokenize(first.Path())
			if !first.Equal(second) {
				t.Errorf("fold=%v: %q -> %v -> %q -> %v", fold, in, first, first.Path(), second)
			}
		}
	}
}

func TestFoldCaseAndRawIDs(t *testing.T) {
	tk := &Tokenizer{FoldCase: true}
	got := tk.Tokenize("/Users/42")
	want := Pad(lits("users", "42"))
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSentinelsNeverEqualLiterals(t *testing.T) {
	if Lit("START") == StartToken || Lit("END") == EndToken {
		t.Fatal("literal compared equal to a sentinel")
	}
	if Lit("").Key() == StartToken.Key() || Lit("<END>").Key() == EndToken.Key() {
		t.Fatal("literal key collides with a sentinel key")
	}
	if StartToken.String() != "<START>" || EndToken.String() != "<END>" {
		t.Errorf("unexpected sentinel strings %q %q", StartToken, EndToken)
	}
}

func TestEndpointValid(t *testing.T) {
	testCases := []struct {
		ep    Endpoint
		valid bool
	}{
		{Pad(nil), true},
		{Pad(lits("a")), true},
		{Endpoint{StartToken, EndToken}, false},
		{Endpoint{StartToken, StartToken, Lit("a")}, false},
		{Endpoint{Lit("a"), StartToken, EndToken}, false},
		{Endpoint{StartToken, StartToken, EndToken, EndToken}, false},
		{Endpoint{StartToken, StartToken, StartToken, EndToken}, false},
	}
	for i, tc := range testCases {
		if got := tc.ep.Valid(); got != tc.valid {
			t.Errorf("case %d: Valid(%v) = %v; want %v", i, tc.ep, got, tc.valid)
		}
	}
}

func TestEndpointPathAndLen(t *testing.T) {
	ep := Pad(lits("api", "v1"))
	if ep.Path() != "/api/v1" {
		t.Errorf("Path() = %q", ep.Path())
	}
	if ep.Len() != 2 {
		t.Errorf("Len() = %d", ep.Len())
	}
	if Pad(nil).Path() != "/" {
		t.Errorf("root path = %q", Pad(nil).Path())
	}
}

func TestPhrases(t *testing.T) {
	tk := New()
	got := tk.Phrases([]string{"orders", "", "  ", "orders", "admin/panel", "/", "42"})
	want := [][]Token{
		lits("orders"),
		lits("admin", "panel"),
		lits(IDPlaceholder),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d phrases %v; want %d", len(got), got, len(want))
	}
	for i := range want {
		if !Pad(got[i]).Equal(Pad(want[i])) {
			t.Errorf("phrase %d = %v; want %v", i, got[i], want[i])
		}
	}
}

func TestContextThen(t *testing.T) {
	ctx := Root.Then(Lit("a")).Then(Lit("b"))
	if ctx != (Context{Lit("a"), Lit("b")}) {
		t.Errorf("Then chain = %v", ctx)
	}
}
