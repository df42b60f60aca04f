package generate

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPolicy = errors.New("generate: invalid policy")

// SeedPosition selects the steps at which seed words are offered as next tokens.
type SeedPosition int

const (
	// SeedTerminal injects seeds where the model ranks END among the top
	// continuations, extending paths that could plausibly end there.
	SeedTerminal SeedPosition = iota
	// SeedFirst injects seeds only at the first step of a walk.
	SeedFirst
	// SeedAnywhere injects seeds at every step.
	SeedAnywhere
	// SeedNone never injects seeds.
	SeedNone
)

var seedPositionNames = map[SeedPosition]string{
	SeedTerminal: "terminal",
	SeedFirst:    "first",
	SeedAnywhere: "anywhere",
	SeedNone:     "none",
}

func (s SeedPosition) String() string {
	if name, ok := seedPositionNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSeedPosition reads the config spelling of a SeedPosition.
func ParseSeedPosition(s string) (SeedPosition, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for pos, name := range seedPositionNames {
		if name == s {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown seed position %q", ErrInvalidPolicy, s)
}

// Strategy selects how continuations are picked at each step.
type Strategy int

const (
	// StrategyTopK expands the TopK most probable continuations.
	StrategyTopK Strategy = iota
	// StrategySample draws TopK continuations without replacement,
	// weighted by probability, from a source seeded with RandSeed.
	StrategySample
)

func (s Strategy) String() string {
	switch s {
	case StrategyTopK:
		return "topk"
	case StrategySample:
		return "sample"
	default:
		return "unknown"
	}
}

// ParseStrategy reads the config spelling of a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "topk", "top-k", "":
		return StrategyTopK, nil
	case "sample":
		return StrategySample, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidPolicy, s)
}

// Policy bounds and steers a walk over the model.
type Policy struct {
	// MaxLength is the most literal tokens a candidate may hold.
	// Branches that reach it without producing END are discarded.
	MaxLength int
	// TopK continuations are considered per branch and step.
	TopK int
	// BeamWidth caps open branches per step, per start prefix and seed group.
	BeamWidth int
	// Seeds decides where seed words are injected.
	Seeds SeedPosition
	// MaxSeedsPerBranch caps how many seed phrases one branch may take.
	MaxSeedsPerBranch int
	Strategy          Strategy
	RandSeed          uint64
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxLength:         8,
		TopK:              3,
		BeamWidth:         64,
		Seeds:             SeedTerminal,
		MaxSeedsPerBranch: 1,
		Strategy:          StrategyTopK,
	}
}

// Validate rejects policies that could not bound a walk.
func (p Policy) Validate() error {
	switch {
	case p.MaxLength < 1:
		return fmt.Errorf("%w: max length %d < 1", ErrInvalidPolicy, p.MaxLength)
	case p.TopK < 1:
		return fmt.Errorf("%w: top-k %d < 1", ErrInvalidPolicy, p.TopK)
	case p.BeamWidth < 1:
		return fmt.Errorf("%w: beam width %d < 1", ErrInvalidPolicy, p.BeamWidth)
	case p.MaxSeedsPerBranch < 0:
		return fmt.Errorf("%w: max seeds per branch %d < 0", ErrInvalidPolicy, p.MaxSeedsPerBranch)
	case p.Seeds < SeedTerminal || p.Seeds > SeedNone:
		return fmt.Errorf("%w: seed position %d", ErrInvalidPolicy, p.Seeds)
	case p.Strategy != StrategyTopK && p.Strategy != StrategySample:
		return fmt.Errorf("%w: strategy %d", ErrInvalidPolicy, p.Strategy)
	}
	return nil
}
