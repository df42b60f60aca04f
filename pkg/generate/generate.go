// Package generate walks a trained chain model to propose new endpoints.
//
// A walk keeps a beam of open branches. At each step every branch asks the
// model for its next continuations; END closes the branch and yields it, any
// other token extends it. Seed words from the wordlist are offered as extra
// continuations at the steps the Policy allows. Every step adds one token
// (or one seed phrase) to each surviving branch, and branches may not grow
// past Policy.MaxLength, so every walk finishes within MaxLength+1 steps.
package generate

import (
	"fmt"
	"iter"
	"math/rand/v2"
	"sort"

	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/token"
	"github.com/charmbracelet/log"
)

// pcgStream is the fixed second PCG word; RandSeed alone picks the sequence.
const pcgStream = 0x9e3779b97f4a7c15

// Generator proposes endpoints from a read-only model.
type Generator struct {
	model  *chain.Model
	policy Policy
}

// New validates the policy and binds it to a model.
func New(model *chain.Model, policy Policy) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidPolicy)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Generator{model: model, policy: policy}, nil
}

// Policy returns the generator's policy.
func (g *Generator) Policy() Policy {
	return g.policy
}

type branch struct {
	tokens []token.Token
	path   string
	ctx    token.Context
	logp   float64
	seeds  int
	group  int // index of the first seed phrase taken, -1 for none
	start  int // index of the start prefix the branch grew from
	steps  int
}

// extend returns a copy of b with toks appended. seed is the phrase index,
// or -1 when the tokens came from the model.
func (b branch) extend(m *chain.Model, toks []token.Token, seed int) branch {
	nb := branch{
		tokens: make([]token.Token, len(b.tokens), len(b.tokens)+len(toks)),
		ctx:    b.ctx,
		logp:   b.logp,
		seeds:  b.seeds,
		group:  b.group,
		start:  b.start,
		steps:  b.steps + 1,
	}
	copy(nb.tokens, b.tokens)
	for _, t := range toks {
		nb.logp += m.LogProbability(nb.ctx, t)
		nb.ctx = nb.ctx.Then(t)
		nb.tokens = append(nb.tokens, t)
	}
	if seed >= 0 {
		nb.seeds++
		if nb.group < 0 {
			nb.group = seed
		}
	}
	nb.path = token.Pad(nb.tokens).Path()
	return nb
}

// Generate walks from (START, START). The sequence is finite and
// restartable: ranging over it again recomputes the same endpoints in
// the same order.
func (g *Generator) Generate(seeds [][]token.Token) iter.Seq[token.Endpoint] {
	root := branch{ctx: token.Root, group: -1, path: "/"}
	return g.walk([]branch{root}, seeds)
}

// Extend walks from every prefix of every known endpoint, so learned
// continuations and seed words are appended to real paths. Each prefix
// keeps its own beam, so no known endpoint is crowded out by others.
func (g *Generator) Extend(known []token.Endpoint, seeds [][]token.Token) iter.Seq[token.Endpoint] {
	filter := utils.NewSeenFilter()
	var starts []branch
	for _, ep := range known {
		lits := ep.Literals()
		for n := 1; n <= len(lits) && n <= g.policy.MaxLength; n++ {
			b := branch{ctx: token.Root, group: -1}.extend(g.model, lits[:n], -1)
			b.steps = 0
			b.start = len(starts)
			if filter.ShouldInclude(b.path) {
				starts = append(starts, b)
			}
		}
	}
	return g.walk(starts, seeds)
}

type predictionCache struct {
	top    map[token.Context][]chain.Prediction
	ranked map[token.Context][]chain.Prediction
}

func (g *Generator) walk(start []branch, seeds [][]token.Token) iter.Seq[token.Endpoint] {
	return func(yield func(token.Endpoint) bool) {
		var rng *rand.Rand
		if g.policy.Strategy == StrategySample {
			rng = rand.New(rand.NewPCG(g.policy.RandSeed, pcgStream))
		}
		cache := predictionCache{
			top:    make(map[token.Context][]chain.Prediction),
			ranked: make(map[token.Context][]chain.Prediction),
		}
		emitted := utils.NewSeenFilter()
		frontier := start
		yielded, discarded := 0, 0

		for step := 0; len(frontier) > 0 && step <= g.policy.MaxLength; step++ {
			var next []branch
			for _, b := range frontier {
				preds := g.choose(b.ctx, &cache, rng)
				terminal := false
				for _, p := range preds {
					if p.Token == token.EndToken {
						terminal = true
						if len(b.tokens) == 0 {
							continue
						}
						ep := token.Pad(b.tokens)
						if emitted.ShouldInclude(ep.Key()) {
							yielded++
							if !yield(ep) {
								return
							}
						}
						continue
					}
					if len(b.tokens) >= g.policy.MaxLength {
						discarded++
						continue
					}
					next = append(next, b.extend(g.model, []token.Token{p.Token}, -1))
				}
				if !g.injects(b, terminal) {
					continue
				}
				for i, phrase := range seeds {
					if len(b.tokens)+len(phrase) > g.policy.MaxLength {
						continue
					}
					next = append(next, b.extend(g.model, phrase, i))
				}
			}
			frontier = g.prune(next)
		}
		log.Debugf("generate: walk from %d starts yielded %d endpoints, discarded %d unterminated branches",
			len(start), yielded, discarded+len(frontier))
	}
}

// injects reports whether seed phrases are offered to b at this step.
func (g *Generator) injects(b branch, terminal bool) bool {
	if b.seeds >= g.policy.MaxSeedsPerBranch {
		return false
	}
	switch g.policy.Seeds {
	case SeedTerminal:
		return terminal
	case SeedFirst:
		return b.steps == 0
	case SeedAnywhere:
		return true
	default:
		return false
	}
}

func (g *Generator) choose(ctx token.Context, cache *predictionCache, rng *rand.Rand) []chain.Prediction {
	if g.policy.Strategy == StrategySample {
		ranked, ok := cache.ranked[ctx]
		if !ok {
			ranked = g.model.Ranked(ctx)
			cache.ranked[ctx] = ranked
		}
		return sample(ranked, g.policy.TopK, rng)
	}
	top, ok := cache.top[ctx]
	if !ok {
		top = g.model.Top(ctx, g.policy.TopK)
		cache.top[ctx] = top
	}
	return top
}

// sample draws up to k predictions without replacement, weighted by probability.
func sample(preds []chain.Prediction, k int, rng *rand.Rand) []chain.Prediction {
	pool := make([]chain.Prediction, len(preds))
	copy(pool, preds)
	out := make([]chain.Prediction, 0, k)
	for len(out) < k && len(pool) > 0 {
		total := 0.0
		for _, p := range pool {
			total += p.Probability
		}
		r := rng.Float64() * total
		idx := len(pool) - 1
		for i, p := range pool {
			r -= p.Probability
			if r < 0 {
				idx = i
				break
			}
		}
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}

type beamKey struct {
	start, group int
}

// prune drops duplicate branches and keeps the BeamWidth best per start
// prefix and seed group. Each seed phrase gets its own beam so a long
// wordlist cannot crowd out learned paths or the other words.
func (g *Generator) prune(branches []branch) []branch {
	sort.SliceStable(branches, func(i, j int) bool {
		a, b := branches[i], branches[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.group != b.group {
			return a.group < b.group
		}
		if a.logp != b.logp {
			return a.logp > b.logp
		}
		if len(a.tokens) != len(b.tokens) {
			return len(a.tokens) < len(b.tokens)
		}
		return a.path < b.path
	})

	seen := utils.NewSeenFilter()
	kept := branches[:0]
	perBeam := make(map[beamKey]int)
	for _, b := range branches {
		key := beamKey{start: b.start, group: b.group}
		if perBeam[key] >= g.policy.BeamWidth {
			continue
		}
		if !seen.ShouldInclude(token.Pad(b.tokens).Key()) {
			continue
		}
		perBeam[key]++
		kept = append(kept, b)
	}
	return kept
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[token.Endpoint]) []token.Endpoint {
	var out []token.Endpoint
	for ep := range seq {
		out = append(out, ep)
	}
	return out
}
