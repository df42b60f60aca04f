package oracle

import (
	"errors"
	"fmt"
	"math"

	"github.com/bastiangx/oracle/pkg/chain"
	"github.com/bastiangx/oracle/pkg/generate"
	"github.com/bastiangx/oracle/pkg/token"
)

var (
	ErrInvalidConfig = errors.New("oracle: invalid configuration")
	ErrNoEndpoints   = errors.New("oracle: no known endpoints")
)

// DefaultThreshold is the minimum probability a reported candidate needs.
const DefaultThreshold = 0.001

// FuzzOptions controls the augmentation stage of Predict.
type FuzzOptions struct {
	Enabled bool
	// Iters is passed to the augmenter as mutation rounds per candidate.
	Iters int
	// MinPool skips fuzzing once the generated pool has at least this many
	// candidates. Zero always fuzzes.
	MinPool int
}

// Options are fixed for the lifetime of an Engine.
type Options struct {
	Alpha     float64
	Threshold float64
	Policy    generate.Policy
	Tokenizer token.Tokenizer
	Fuzz      FuzzOptions
	// IncludeKnown keeps the training endpoints in the ranked output.
	IncludeKnown bool
	// Limit caps the number of returned candidates; zero is unlimited.
	Limit int
}

// DefaultOptions mirrors the command-line defaults.
func DefaultOptions() Options {
	return Options{
		Alpha:     chain.DefaultAlpha,
		Threshold: DefaultThreshold,
		Policy:    generate.DefaultPolicy(),
		Tokenizer: *token.New(),
		Fuzz: FuzzOptions{
			Iters:   5,
			MinPool: 10,
		},
	}
}

// Validate reports the first invalid field.
func (o Options) Validate() error {
	switch {
	case math.IsNaN(o.Alpha) || math.IsInf(o.Alpha, 0) || o.Alpha <= 0:
		return fmt.Errorf("%w: alpha %v must be positive", ErrInvalidConfig, o.Alpha)
	case math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1:
		return fmt.Errorf("%w: threshold %v outside [0, 1]", ErrInvalidConfig, o.Threshold)
	case o.Fuzz.Iters < 0:
		return fmt.Errorf("%w: fuzz iters %d < 0", ErrInvalidConfig, o.Fuzz.Iters)
	case o.Fuzz.MinPool < 0:
		return fmt.Errorf("%w: fuzz min pool %d < 0", ErrInvalidConfig, o.Fuzz.MinPool)
	case o.Limit < 0:
		return fmt.Errorf("%w: limit %d < 0", ErrInvalidConfig, o.Limit)
	}
	if err := o.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
