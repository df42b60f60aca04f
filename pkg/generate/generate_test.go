package generate

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/token"
)

var apiCorpus = []string{"/api/v1/users", "/api/v1/products"}

func newModel(t *testing.T, paths ...string) *chain.Model {
	t.Helper()
	m, err := chain.New(chain.DefaultAlpha)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Train(token.New().TokenizeAll(paths)...); err != nil {
		t.Fatal(err)
	}
	return m
}

func newGenerator(t *testing.T, m *chain.Model, p Policy) *Generator {
	t.Helper()
	g, err := New(m, p)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func paths(eps []token.Endpoint) []string {
	out := make([]string, len(eps))
	for i, ep := range eps {
		out[i] = ep.Path()
	}
	return out
}

func seeds(words ...string) [][]token.Token {
	return token.New().Phrases(words)
}

func TestGenerateProducesValidBoundedEndpoints(t *testing.T) {
	p := DefaultPolicy()
	p.MaxLength = 4
	g := newGenerator(t, newModel(t, apiCorpus...), p)

	eps := slices.Collect(g.Generate(seeds("orders", "admin")))
	if len(eps) == 0 {
		t.Fatal("no endpoints generated")
	}
	seen := map[string]bool{}
	for _, ep := range eps {
		if !ep.Valid() {
			t.Errorf("invalid endpoint %v", ep)
		}
		if ep.Len() < 1 || ep.Len() > p.MaxLength {
			t.Errorf("endpoint %s has %d literals, want 1..%d", ep.Path(), ep.Len(), p.MaxLength)
		}
		if seen[ep.Path()] {
			t.Errorf("endpoint %s yielded twice", ep.Path())
		}
		seen[ep.Path()] = true
	}
}

func TestGenerateIsRestartable(t *testing.T) {
	for _, strategy := range []Strategy{StrategyTopK, StrategySample} {
		p := DefaultPolicy()
		p.Strategy = strategy
		p.RandSeed = 7
		g := newGenerator(t, newModel(t, apiCorpus...), p)
		seq := g.Generate(seeds("orders"))

		first := paths(slices.Collect(seq))
		second := paths(slices.Collect(seq))
		if !slices.Equal(first, second) {
			t.Errorf("%v: second run differs:\n%v\n%v", strategy, first, second)
		}
	}
}

func TestSampleIsReproducible(t *testing.T) {
	m := newModel(t, "/a/b", "/a/c", "/a/d", "/b/e", "/b/f", "/c/g")
	p := DefaultPolicy()
	p.Strategy = StrategySample
	p.Seeds = SeedNone
	p.TopK = 2

	p.RandSeed = 1
	again := paths(slices.Collect(newGenerator(t, m, p).Generate(nil)))
	first := paths(slices.Collect(newGenerator(t, m, p).Generate(nil)))
	if !slices.Equal(first, again) {
		t.Fatalf("same seed, different output:\n%v\n%v", first, again)
	}
	for _, path := range first {
		if path == "" || path[0] != '/' {
			t.Errorf("bad path %q", path)
		}
	}
}

func TestSeedTerminalExtendsLearnedPaths(t *testing.T) {
	g := newGenerator(t, newModel(t, apiCorpus...), DefaultPolicy())
	got := paths(slices.Collect(g.Generate(seeds("orders"))))

	for _, want := range []string{"/api/v1/users", "/api/v1/products", "/api/v1/orders"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
}

func TestSeedPositions(t *testing.T) {
	testCases := []struct {
		pos        SeedPosition
		wantRoot   bool
		wantNested bool
	}{
		{SeedTerminal, true, true},
		{SeedFirst, true, false},
		{SeedAnywhere, true, true},
		{SeedNone, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.pos.String(), func(t *testing.T) {
			p := DefaultPolicy()
			p.Seeds = tc.pos
			g := newGenerator(t, newModel(t, apiCorpus...), p)
			got := paths(slices.Collect(g.Generate(seeds("orders"))))

			if slices.Contains(got, "/orders") != tc.wantRoot {
				t.Errorf("/orders present=%v, want %v", !tc.wantRoot, tc.wantRoot)
			}
			if slices.Contains(got, "/api/v1/orders") != tc.wantNested {
				t.Errorf("/api/v1/orders present=%v, want %v", !tc.wantNested, tc.wantNested)
			}
		})
	}
}

func TestMaxSeedsPerBranch(t *testing.T) {
	p := DefaultPolicy()
	p.Seeds = SeedAnywhere
	p.MaxLength = 3
	g := newGenerator(t, newModel(t, apiCorpus...), p)

	for _, path := range paths(slices.Collect(g.Generate(seeds("x")))) {
		if path == "/x/x" || path == "/x/x/x" {
			t.Errorf("%s took more than one seed", path)
		}
	}

	p.MaxSeedsPerBranch = 2
	g = newGenerator(t, newModel(t, apiCorpus...), p)
	if !slices.Contains(paths(slices.Collect(g.Generate(seeds("x")))), "/x/x") {
		t.Error("two seeds allowed but /x/x missing")
	}
}

func TestMaxLengthDiscardsUnterminated(t *testing.T) {
	p := DefaultPolicy()
	p.MaxLength = 2
	p.Seeds = SeedNone
	g := newGenerator(t, newModel(t, "/a/b/c/d"), p)

	for _, ep := range slices.Collect(g.Generate(nil)) {
		if ep.Len() > 2 {
			t.Errorf("%s exceeds max length", ep.Path())
		}
		if ep.Path() == "/a/b/c/d" {
			t.Error("long training path should be unreachable")
		}
	}
}

func TestExtendAppendsToKnownPaths(t *testing.T) {
	tk := token.New()
	m := newModel(t, apiCorpus...)
	g := newGenerator(t, m, DefaultPolicy())

	got := paths(slices.Collect(g.Extend(tk.TokenizeAll(apiCorpus), seeds("orders"))))
	for _, want := range []string{"/api/v1/users/orders", "/api/v1/orders"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
}

func TestExtendReachesEveryKnownEndpoint(t *testing.T) {
	var corpus []string
	for i := 0; i < 100; i++ {
		corpus = append(corpus, fmt.Sprintf("/svc%03d/items", i))
	}
	tk := token.New()
	p := DefaultPolicy()
	p.BeamWidth = 8
	g := newGenerator(t, newModel(t, corpus...), p)

	got := paths(slices.Collect(g.Extend(tk.TokenizeAll(corpus), seeds("orders"))))
	missing := 0
	for _, c := range corpus {
		if !slices.Contains(got, c+"/orders") {
			missing++
		}
	}
	if missing > 0 {
		t.Errorf("%d of %d known endpoints never extended with a seed word", missing, len(corpus))
	}
}

func TestGenerateStopsEarly(t *testing.T) {
	g := newGenerator(t, newModel(t, apiCorpus...), DefaultPolicy())
	n := 0
	for range g.Generate(seeds("orders", "admin", "login")) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d times", n)
	}
}

func TestPolicyValidate(t *testing.T) {
	mutate := []func(*Policy){
		func(p *Policy) { p.MaxLength = 0 },
		func(p *Policy) { p.TopK = 0 },
		func(p *Policy) { p.BeamWidth = 0 },
		func(p *Policy) { p.MaxSeedsPerBranch = -1 },
		func(p *Policy) { p.Seeds = SeedPosition(42) },
		func(p *Policy) { p.Strategy = Strategy(9) },
	}
	for i, fn := range mutate {
		p := DefaultPolicy()
		fn(&p)
		if err := p.Validate(); !errors.Is(err, ErrInvalidPolicy) {
			t.Errorf("case %d: got %v, want ErrInvalidPolicy", i, err)
		}
	}
	if err := DefaultPolicy().Validate(); err != nil {
		t.Errorf("default policy invalid: %v", err)
	}
	if _, err := New(nil, DefaultPolicy()); err == nil {
		t.Error("nil model accepted")
	}
}

func TestParsePolicyNames(t *testing.T) {
	for _, pos := range []SeedPosition{SeedTerminal, SeedFirst, SeedAnywhere, SeedNone} {
		got, err := ParseSeedPosition(pos.String())
		if err != nil || got != pos {
			t.Errorf("ParseSeedPosition(%q) = %v, %v", pos, got, err)
		}
	}
	if _, err := ParseSeedPosition("middle"); err == nil {
		t.Error("unknown seed position accepted")
	}
	for _, s := range []Strategy{StrategyTopK, StrategySample} {
		got, err := ParseStrategy(s.String())
		if err != nil || got != s {
			t.Errorf("ParseStrategy(%q) = %v, %v", s, got, err)
		}
	}
	if _, err := ParseStrategy("greedy"); err == nil {
		t.Error("unknown strategy accepted")
	}
}
