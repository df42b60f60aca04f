package score

import (
	"math"
	"strings"
	"testing"

	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T, paths ...string) (*Scorer, *chain.Model) {
	t.Helper()
	m, err := chain.New(chain.DefaultAlpha)
	require.NoError(t, err)
	require.NoError(t, m.Train(token.New().TokenizeAll(paths)...))
	return New(m), m
}

func TestScoreMatchesDirectProduct(t *testing.T) {
	s, m := newScorer(t, "/api/v1/users", "/api/v1/products")
	tk := token.New()

	for _, path := range []string{"/api/v1/users", "/api/v1/orders", "/zzz/unseen/path", "/api"} {
		ep := tk.Tokenize(path)
		direct := 1.0
		for i := 2; i < len(ep); i++ {
			direct *= m.Probability(token.Context{ep[i-2], ep[i-1]}, ep[i])
		}
		assert.InDelta(t, direct, s.Score(ep), 1e-12, path)
	}
}

func TestScoreKnownValues(t *testing.T) {
	s, _ := newScorer(t, "/api/v1/users", "/api/v1/products")
	tk := token.New()

	// V = {api, v1, users, products, END}
	orders := s.Score(tk.Tokenize("/api/v1/orders"))
	assert.InDelta(t, (3.0/7)*(3.0/7)*(1.0/7)*(1.0/5), orders, 1e-12)

	unseen := s.Score(tk.Tokenize("/zzz/unseen/path"))
	assert.InDelta(t, (1.0/7)*(1.0/5)*(1.0/5)*(1.0/5), unseen, 1e-12)
	assert.Greater(t, orders, unseen)
}

func TestFilterAtOneIsEmpty(t *testing.T) {
	s, _ := newScorer(t, "/a/b", "/a/c", "/d")
	tk := token.New()
	cands := s.Candidates(tk.TokenizeAll([]string{"/a/b", "/a/c", "/d", "/a"}), Generated)

	assert.Empty(t, Filter(cands, 1.0))
	assert.Len(t, Filter(cands, 0), len(cands))
}

func TestFilterThreshold(t *testing.T) {
	s, _ := newScorer(t, "/api/v1/users", "/api/v1/products")
	tk := token.New()
	cands := s.Candidates(tk.TokenizeAll([]string{
		"/api/v1/orders",
		"/zzz/unseen/deep/path",
	}), Generated)

	kept := Filter(cands, 0.001)
	require.Len(t, kept, 1)
	assert.Equal(t, "/api/v1/orders", kept[0].Path)
}

func TestRankTieBreaks(t *testing.T) {
	tk := token.New()
	mk := func(path string, lp float64) Candidate {
		ep := tk.Tokenize(path)
		return Candidate{Endpoint: ep, Path: ep.Path(), LogProb: lp, Probability: math.Exp(lp)}
	}
	cands := []Candidate{
		mk("/b/x", -2),
		mk("/a/x", -2),
		mk("/z", -2),
		mk("/top", -1),
		mk("/low", -5),
	}
	got := Rank(cands)

	want := []string{"/top", "/z", "/a/x", "/b/x", "/low"}
	for i, w := range want {
		assert.Equal(t, w, got[i].Path, "position %d", i)
	}
}

func TestLongCandidatesRankWithoutUnderflow(t *testing.T) {
	s, _ := newScorer(t, "/a/b", "/a/c")
	tk := token.New()

	long := tk.Tokenize("/" + strings.Repeat("a/", 1000))
	longer := tk.Tokenize("/" + strings.Repeat("a/", 1200))

	a := s.Candidate(long, Generated)
	b := s.Candidate(longer, Generated)
	assert.Zero(t, a.Probability, "expected float64 underflow for the direct product")
	assert.False(t, math.IsInf(a.LogProb, 0))
	assert.Greater(t, a.LogProb, b.LogProb)

	ranked := Rank([]Candidate{b, a})
	assert.Equal(t, a.Path, ranked[0].Path)
	assert.Empty(t, Filter(ranked, 1e-300))
}

func TestDedupAndExclude(t *testing.T) {
	s, _ := newScorer(t, "/a/b")
	tk := token.New()
	cands := s.Candidates(tk.TokenizeAll([]string{"/a/b", "/a/c", "/a/b", "/d"}), Generated)

	deduped := Dedup(cands)
	assert.Len(t, deduped, 3)
	assert.Len(t, cands, 4, "Dedup must not modify its input")

	rest := Exclude(cands, []string{"/a/b"})
	require.Len(t, rest, 2)
	assert.Equal(t, "/a/c", rest[0].Path)
	assert.Equal(t, "/d", rest[1].Path)
}

func TestOriginString(t *testing.T) {
	assert.Equal(t, "fuzzed", Fuzzed.String())
	assert.Equal(t, "unknown", Origin(99).String())
}
