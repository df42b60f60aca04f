// Package fuzz defines the augmentation boundary: candidate paths go in,
// mutated variants come out. Nothing returned here is trusted as scored;
// the engine re-tokenizes and re-scores every variant.
package fuzz

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/oracle/internal/utils"
)

//go:generate mockgen -package=mocks -destination=../../internal/mocks/mock_augmenter.go github.com/bastiangx/oracle/pkg/fuzz Augmenter

// Augmenter returns variants of the given paths. iters is the number of
// mutation rounds per path; 0 returns nothing.
type Augmenter interface {
	Augment(ctx context.Context, paths []string, iters int) ([]string, error)
}

// Func adapts a plain function to Augmenter.
type Func func(ctx context.Context, paths []string, iters int) ([]string, error)

// Augment calls f.
func (f Func) Augment(ctx context.Context, paths []string, iters int) ([]string, error) {
	return f(ctx, paths, iters)
}

// Mutator is an in-process Augmenter with structural path mutations.
// Output depends only on Seed and the input paths.
type Mutator struct {
	Seed uint64
}

// NewMutator returns a Mutator with the given seed.
func NewMutator(seed uint64) *Mutator {
	return &Mutator{Seed: seed}
}

type mutation func(segs []string, rng *rand.Rand) []string

var mutations = []mutation{
	duplicateSegment,
	dropSegment,
	swapSegments,
	flipCase,
	togglePlural,
	swapSeparator,
	numericSegment,
	bumpVersion,
}

// Augment applies iters random mutations to each path. Results are unique,
// sorted, always start with "/" and never repeat an input path.
func (m *Mutator) Augment(ctx context.Context, paths []string, iters int) ([]string, error) {
	inputs := make([]string, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, normalize(p))
	}
	filter := utils.NewSeenFilter(inputs...)

	var out []string
	for _, p := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng := rand.New(rand.NewPCG(m.Seed, pathHash(p)))
		segs := splitSegments(p)
		for i := 0; i < iters; i++ {
			mutated := mutations[rng.IntN(len(mutations))](clone(segs), rng)
			candidate := "/" + strings.Join(mutated, "/")
			if filter.ShouldInclude(candidate) {
				out = append(out, candidate)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func pathHash(p string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(p))
	return h.Sum64()
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func splitSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func clone(segs []string) []string {
	out := make([]string, len(segs))
	copy(out, segs)
	return out
}

func duplicateSegment(segs []string, rng *rand.Rand) []string {
	if len(segs) == 0 {
		return segs
	}
	i := rng.IntN(len(segs))
	out := make([]string, 0, len(segs)+1)
	out = append(out, segs[:i+1]...)
	return append(out, segs[i:]...)
}

func dropSegment(segs []string, rng *rand.Rand) []string {
	if len(segs) < 2 {
		return segs
	}
	i := rng.IntN(len(segs))
	return append(segs[:i], segs[i+1:]...)
}

func swapSegments(segs []string, rng *rand.Rand) []string {
	if len(segs) < 2 {
		return segs
	}
	i := rng.IntN(len(segs) - 1)
	segs[i], segs[i+1] = segs[i+1], segs[i]
	return segs
}

func flipCase(segs []string, rng *rand.Rand) []string {
	if len(segs) == 0 {
		return segs
	}
	i := rng.IntN(len(segs))
	if strings.ToLower(segs[i]) == segs[i] {
		segs[i] = strings.ToUpper(segs[i])
	} else {
		segs[i] = strings.ToLower(segs[i])
	}
	return segs
}

func togglePlural(segs []string, rng *rand.Rand) []string {
	if len(segs) == 0 {
		return segs
	}
	i := rng.IntN(len(segs))
	s := segs[i]
	if len(s) > 1 && strings.HasSuffix(s, "s") {
		segs[i] = s[:len(s)-1]
	} else {
		segs[i] = s + "s"
	}
	return segs
}

func swapSeparator(segs []string, rng *rand.Rand) []string {
	if len(segs) == 0 {
		return segs
	}
	i := rng.IntN(len(segs))
	segs[i] = strings.Map(func(r rune) rune {
		switch {
		case r == '-':
			return '_'
		case r == '_':
			return '-'
		case utils.IsSeparator(r):
			return '-'
		}
		return r
	}, segs[i])
	return segs
}

func numericSegment(segs []string, rng *rand.Rand) []string {
	if len(segs) == 0 {
		return []string{"1"}
	}
	i := rng.IntN(len(segs))
	segs[i] = "1"
	return segs
}

// bumpVersion turns v1 into v2; without a version segment it prefixes v1.
func bumpVersion(segs []string, _ *rand.Rand) []string {
	for i, s := range segs {
		if len(s) < 2 || (s[0] != 'v' && s[0] != 'V') || !utils.IsOnlyNumbers(s[1:]) {
			continue
		}
		if n, err := strconv.Atoi(s[1:]); err == nil {
			segs[i] = s[:1] + strconv.Itoa(n+1)
			return segs
		}
	}
	return append([]string{"v1"}, segs...)
}

// printableOnly replaces invalid UTF-8 with U+FFFD and drops every
// rune that is not printable. External fuzzers emit arbitrary bytes.
func printableOnly(p string) string {
	return strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(p, string(utf8.RuneError)))
}

// Sanitize cleans fuzzer output into path form and reports whether
// anything usable is left. Control bytes are removed, not rejected, so a
// variant with a few stray bytes still reaches the scorer.
func Sanitize(raw string) (string, bool) {
	p := strings.TrimSpace(printableOnly(raw))
	if p == "" || p == "/" {
		return "", false
	}
	return normalize(p), true
}
