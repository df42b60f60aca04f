// Package oracle runs the whole prediction pipeline for one set of known
// endpoints: tokenize, train, generate, extend, optionally fuzz, score and rank.
//
// An Engine is immutable after New and safe for concurrent use.
package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/fuzz"
	"github.com/bastiangx/oracle/pkg/generate"
	"github.com/bastiangx/oracle/pkg/score"
	"github.com/bastiangx/oracle/pkg/token"
	"github.com/charmbracelet/log"
)

// Engine owns one trained model and the seed phrases used to walk it.
type Engine struct {
	opts       Options
	tokenizer  *token.Tokenizer
	model      *chain.Model
	generator  *generate.Generator
	scorer     *score.Scorer
	known      []token.Endpoint
	knownPaths []string
	seeds      [][]token.Token
}

// Stats describes the engine's inputs and trained model.
type Stats struct {
	chain.Stats
	Known int
	Seeds int
}

// New validates opts, tokenizes the known endpoints and seed words and
// trains the model. It returns ErrNoEndpoints when no known endpoint has a
// usable segment.
func New(opts Options, known, words []string) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	tk := opts.Tokenizer

	filter := utils.NewSeenFilter()
	var eps []token.Endpoint
	var paths []string
	for _, ep := range tk.TokenizeAll(known) {
		if ep.Len() == 0 || !filter.ShouldInclude(ep.Key()) {
			continue
		}
		eps = append(eps, ep)
		paths = append(paths, ep.Path())
	}
	if len(eps) == 0 {
		return nil, ErrNoEndpoints
	}

	model, err := chain.New(opts.Alpha)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := model.Train(eps...); err != nil {
		return nil, err
	}
	gen, err := generate.New(model, opts.Policy)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	e := &Engine{
		opts:       opts,
		tokenizer:  &tk,
		model:      model,
		generator:  gen,
		scorer:     score.New(model),
		known:      eps,
		knownPaths: paths,
		seeds:      tk.Phrases(words),
	}
	log.Debugf("oracle: trained on %d endpoints (%d dropped), %d seed phrases",
		len(eps), len(known)-len(eps), len(e.seeds))
	return e, nil
}

// Options returns the options the engine was built with.
func (e *Engine) Options() Options {
	return e.opts
}

// Model returns the trained model.
func (e *Engine) Model() *chain.Model {
	return e.model
}

// Known returns the normalized training paths in input order.
func (e *Engine) Known() []string {
	out := make([]string, len(e.knownPaths))
	copy(out, e.knownPaths)
	return out
}

// Stats returns model counters plus input sizes.
func (e *Engine) Stats() Stats {
	return Stats{Stats: e.model.Stats(), Known: len(e.known), Seeds: len(e.seeds)}
}

// Predict returns ranked candidates at or above the threshold.
//
// aug may be nil. Augmenter output is re-tokenized and scored against the
// same model; an augmenter failure is logged and the un-fuzzed ranking is
// returned, unless ctx itself was cancelled.
func (e *Engine) Predict(ctx context.Context, aug fuzz.Augmenter) ([]score.Candidate, error) {
	start := time.Now()

	pool := e.scorer.Candidates(generate.Collect(e.generator.Generate(e.seeds)), score.Generated)
	pool = append(pool, e.scorer.Candidates(generate.Collect(e.generator.Extend(e.known, e.seeds)), score.Extended)...)
	pool = score.Exclude(pool, e.knownPaths)
	generated := len(pool)

	if e.shouldFuzz(aug, len(pool)) {
		fuzzed, err := e.augment(ctx, aug, pool)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warnf("oracle: fuzzing failed, continuing without it: %v", err)
		}
		pool = append(pool, fuzzed...)
		pool = score.Exclude(pool, e.knownPaths)
	}

	if e.opts.IncludeKnown {
		pool = append(pool, e.scorer.Candidates(e.known, score.Known)...)
	}

	ranked := score.Filter(pool, e.opts.Threshold)
	if e.opts.Limit > 0 && len(ranked) > e.opts.Limit {
		ranked = ranked[:e.opts.Limit]
	}
	log.Debugf("oracle: %d generated, %d in pool, %d above %g in %s",
		generated, len(pool), len(ranked), e.opts.Threshold, time.Since(start))
	return ranked, nil
}

func (e *Engine) shouldFuzz(aug fuzz.Augmenter, poolSize int) bool {
	if aug == nil || !e.opts.Fuzz.Enabled || e.opts.Fuzz.Iters == 0 {
		return false
	}
	return e.opts.Fuzz.MinPool == 0 || poolSize < e.opts.Fuzz.MinPool
}

// augment fuzzes the pool, or the known paths when nothing was generated.
func (e *Engine) augment(ctx context.Context, aug fuzz.Augmenter, pool []score.Candidate) ([]score.Candidate, error) {
	inputs := make([]string, 0, len(pool))
	for _, c := range pool {
		inputs = append(inputs, c.Path)
	}
	if len(inputs) == 0 {
		inputs = e.Known()
	}

	raw, err := aug.Augment(ctx, inputs, e.opts.Fuzz.Iters)
	if err != nil {
		return nil, err
	}
	var out []score.Candidate
	for _, r := range raw {
		ep := e.tokenizer.Tokenize(r)
		if ep.Len() == 0 {
			continue
		}
		out = append(out, e.scorer.Candidate(ep, score.Fuzzed))
	}
	log.Debugf("oracle: augmenter returned %d strings from %d inputs, %d usable", len(raw), len(inputs), len(out))
	return out, nil
}

// Score tokenizes path and scores it. Known paths are tagged as such.
func (e *Engine) Score(path string) score.Candidate {
	ep := e.tokenizer.Tokenize(path)
	origin := score.Generated
	for _, k := range e.known {
		if k.Equal(ep) {
			origin = score.Known
			break
		}
	}
	return e.scorer.Candidate(ep, origin)
}

// Next predicts up to k tokens following a partial path. An empty
// partial asks for the first segment.
func (e *Engine) Next(partial string, k int) []chain.Prediction {
	ctx := token.Root
	for _, t := range e.tokenizer.Tokenize(partial).Literals() {
		ctx = ctx.Then(t)
	}
	return e.model.Top(ctx, k)
}
