// Package score computes joint probabilities of candidate endpoints and ranks them.
//
// Scores are accumulated as sums of log probabilities, using the same
// width-2 windows as training, and exponentiated only for display.
// Threshold comparisons happen in log space so long candidates do not
// underflow to zero before they are compared.
package score

import (
	"math"
	"sort"

	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/token"
)

// Origin records which stage produced a candidate.
type Origin uint8

const (
	Generated Origin = iota
	Extended
	Fuzzed
	Known
)

func (o Origin) String() string {
	switch o {
	case Generated:
		return "generated"
	case Extended:
		return "extended"
	case Fuzzed:
		return "fuzzed"
	case Known:
		return "known"
	default:
		return "unknown"
	}
}

// Candidate is a scored endpoint.
type Candidate struct {
	Endpoint    token.Endpoint
	Path        string
	Probability float64
	LogProb     float64
	Origin      Origin
}

// Scorer evaluates endpoints against one model.
type Scorer struct {
	model *chain.Model
}

// New binds a scorer to a model.
func New(model *chain.Model) *Scorer {
	return &Scorer{model: model}
}

// LogScore is the sum of log P(t_i | t_{i-2}, t_{i-1}) from the first
// literal through END.
func (s *Scorer) LogScore(ep token.Endpoint) float64 {
	total := 0.0
	for i := 2; i < len(ep); i++ {
		total += s.model.LogProbability(token.Context{ep[i-2], ep[i-1]}, ep[i])
	}
	return total
}

// Score is the joint probability of ep.
func (s *Scorer) Score(ep token.Endpoint) float64 {
	return math.Exp(s.LogScore(ep))
}

// Candidate scores ep and wraps it.
func (s *Scorer) Candidate(ep token.Endpoint, origin Origin) Candidate {
	lp := s.LogScore(ep)
	return Candidate{
		Endpoint:    ep,
		Path:        ep.Path(),
		Probability: math.Exp(lp),
		LogProb:     lp,
		Origin:      origin,
	}
}

// Candidates scores every endpoint with the same origin.
func (s *Scorer) Candidates(eps []token.Endpoint, origin Origin) []Candidate {
	out := make([]Candidate, len(eps))
	for i, ep := range eps {
		out[i] = s.Candidate(ep, origin)
	}
	return out
}

// Filter keeps candidates with probability >= threshold and ranks them.
// A threshold of 0 keeps everything.
func Filter(cands []Candidate, threshold float64) []Candidate {
	kept := make([]Candidate, 0, len(cands))
	if threshold <= 0 {
		kept = append(kept, cands...)
		return Rank(kept)
	}
	logThreshold := math.Log(threshold)
	for _, c := range cands {
		if c.LogProb >= logThreshold {
			kept = append(kept, c)
		}
	}
	return Rank(kept)
}

// Rank sorts in place by descending probability, then fewer tokens,
// then path. It returns its argument for chaining.
func Rank(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.LogProb != b.LogProb {
			return a.LogProb > b.LogProb
		}
		if len(a.Endpoint) != len(b.Endpoint) {
			return len(a.Endpoint) < len(b.Endpoint)
		}
		return a.Path < b.Path
	})
	return cands
}

// Dedup keeps the first candidate for every path.
func Dedup(cands []Candidate) []Candidate {
	filter := utils.NewSeenFilter()
	out := cands[:0:0]
	for _, c := range cands {
		if filter.ShouldInclude(c.Path) {
			out = append(out, c)
		}
	}
	return out
}

// Exclude drops candidates whose path is in paths, and repeated paths.
func Exclude(cands []Candidate, paths []string) []Candidate {
	filter := utils.NewSeenFilter(paths...)
	out := cands[:0:0]
	for _, c := range cands {
		if filter.ShouldInclude(c.Path) {
			out = append(out, c)
		}
	}
	return out
}
