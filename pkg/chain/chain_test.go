package chain

import (
	"math"
	"sync"
	"testing"

	"github.com/bastiangx/oracle/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trained(t *testing.T, paths ...string) *Model {
	t.Helper()
	m, err := New(DefaultAlpha)
	require.NoError(t, err)
	require.NoError(t, m.Train(token.New().TokenizeAll(paths)...))
	return m
}

func TestNewRejectsBadAlpha(t *testing.T) {
	for _, alpha := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := New(alpha)
		assert.ErrorIs(t, err, ErrInvalidAlpha, "alpha=%v", alpha)
	}
}

func TestProbabilityNeverZero(t *testing.T) {
	m := trained(t, "/a/b", "/a/c")

	unseenCtx := token.Context{token.Lit("x"), token.Lit("y")}
	unseenTok := token.Lit("z")

	cases := []struct {
		name string
		ctx  token.Context
		tok  token.Token
	}{
		{"seen context, seen token", token.Context{token.StartToken, token.Lit("a")}, token.Lit("b")},
		{"seen context, unseen token", token.Context{token.StartToken, token.Lit("a")}, unseenTok},
		{"unseen context, seen token", unseenCtx, token.Lit("a")},
		{"unseen context, unseen token", unseenCtx, unseenTok},
		{"unseen context, END", unseenCtx, token.EndToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if p := m.Probability(tc.ctx, tc.tok); p <= 0 || p > 1 {
				t.Errorf("probability out of (0,1]: %v", p)
			}
		})
	}
}

func TestUnseenContextIsUniform(t *testing.T) {
	m := trained(t, "/a/b", "/a/c")
	v := float64(m.VocabularySize())

	p := m.Probability(token.Context{token.Lit("q"), token.Lit("r")}, token.Lit("b"))
	assert.InDelta(t, 1/v, p, 1e-12)
}

func TestDistributionSumsToOne(t *testing.T) {
	m := trained(t, "/api/v1/users", "/api/v1/products", "/api/v2/users/<id>")

	contexts := []token.Context{
		token.Root,
		{token.StartToken, token.Lit("api")},
		{token.Lit("api"), token.Lit("v1")},
		{token.Lit("never"), token.Lit("seen")},
	}
	for _, ctx := range contexts {
		dist := m.Distribution(ctx)
		require.Len(t, dist, m.VocabularySize())
		_, hasEnd := dist[token.EndToken]
		assert.True(t, hasEnd, "END missing from distribution of %v", ctx)

		sum := 0.0
		for _, p := range dist {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "context %v", ctx)
	}
}

func TestObservedContinuationBeatsUnseen(t *testing.T) {
	m := trained(t, "/a/b", "/a/c")
	ctx := token.Context{token.StartToken, token.Lit("a")}

	pb := m.Probability(ctx, token.Lit("b"))
	pz := m.Probability(ctx, token.Lit("z"))

	assert.Greater(t, pb, pz)
	// V = {a, b, c, END}
	assert.InDelta(t, 2.0/6.0, pb, 1e-12)
	assert.InDelta(t, 1.0/6.0, pz, 1e-12)
}

func TestContextTotalsMatchCounts(t *testing.T) {
	m := trained(t, "/api/v1/users", "/api/v1/users/<id>", "/health", "/")

	for ctx, counts := range m.pairCounts {
		sum := 0
		for _, c := range counts {
			sum += c
		}
		if m.contextTotals[ctx] != sum {
			t.Errorf("context %v: total %d, sum %d", ctx, m.contextTotals[ctx], sum)
		}
	}
	assert.Equal(t, len(m.pairCounts), len(m.contextTotals))
}

func TestTrainRejectsMalformedEndpoints(t *testing.T) {
	m, err := New(DefaultAlpha)
	require.NoError(t, err)

	good := token.New().Tokenize("/a")
	bad := []token.Endpoint{
		{token.StartToken, token.EndToken},
		{token.StartToken, token.Lit("a"), token.EndToken},
		{token.StartToken, token.StartToken, token.Lit("a")},
		{token.StartToken, token.StartToken, token.StartToken, token.EndToken},
		{token.StartToken, token.StartToken, token.EndToken, token.Lit("a"), token.EndToken},
	}
	for _, ep := range bad {
		err := m.Train(good, ep)
		assert.ErrorIs(t, err, ErrMalformedEndpoint)
	}
	assert.Equal(t, Stats{}, m.Stats(), "a rejected batch must leave the model untouched")
}

func TestRankedPrefersEndOnTies(t *testing.T) {
	m := trained(t, "/a/b", "/a/c")

	preds := m.Ranked(token.Context{token.Lit("x"), token.Lit("y")})
	require.NotEmpty(t, preds)
	assert.Equal(t, token.EndToken, preds[0].Token)

	preds = m.Top(token.Context{token.StartToken, token.Lit("a")}, 2)
	require.Len(t, preds, 2)
	assert.Equal(t, token.Lit("b"), preds[0].Token)
	assert.Equal(t, token.Lit("c"), preds[1].Token)
}

func TestSentinelTextStaysLiteral(t *testing.T) {
	m := trained(t, "/END/START")

	assert.True(t, m.Known(token.Lit("END")))
	assert.True(t, m.Known(token.EndToken))
	assert.False(t, m.Known(token.StartToken))
	assert.Equal(t, 3, m.VocabularySize())
}

func TestLiteralsWithPrefix(t *testing.T) {
	m := trained(t, "/users/profile", "/user/settings", "/products")

	got := m.LiteralsWithPrefix("user")
	want := []token.Token{token.Lit("user"), token.Lit("users")}
	assert.Equal(t, want, got)
	assert.Empty(t, m.LiteralsWithPrefix("zzz"))
}

func TestIncrementalTrainingWithReaders(t *testing.T) {
	m := trained(t, "/a/b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if p := m.Probability(token.Root, token.Lit("a")); p <= 0 {
					t.Errorf("non-positive probability during training: %v", p)
					return
				}
				_ = m.Ranked(token.Root)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Train(token.New().Tokenize("/a/c")))
	}
	wg.Wait()

	assert.Equal(t, 51, m.Stats().Endpoints)
	assert.Equal(t, 51, m.Count(token.Root, token.Lit("a")))
	assert.Equal(t, 51, m.Total(token.Root))
}
