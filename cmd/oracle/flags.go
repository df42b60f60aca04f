package main

import (
	"errors"

	"github.com/bastiangx/oracle/internal/radamsa"
	"github.com/bastiangx/oracle/pkg/config"
	"github.com/bastiangx/oracle/pkg/fuzz"
	"github.com/charmbracelet/log"
)

// overrides holds the flags that map onto config values.
type overrides struct {
	fuzz          bool
	builtin       bool
	iters         int
	throttle      float64
	staticPattern string
	threshold     float64
	alpha         float64
	topK          int
	maxLength     int
	seedPosition  string
	limit         int
	includeKnown  bool
	k             int
}

// apply copies the flag called name into cfg. Only flags set on the
// command line are applied, so file values win over flag defaults.
func (o *overrides) apply(name string, cfg *config.Config) {
	switch name {
	case "fuzz":
		cfg.Fuzz.Enabled = o.fuzz
	case "builtin-fuzz":
		cfg.Fuzz.Builtin = o.builtin
	case "iters":
		cfg.Fuzz.Iters = o.iters
	case "throttle":
		cfg.HTTP.Throttle = o.throttle
	case "static-pattern":
		cfg.HTTP.StaticPattern = o.staticPattern
	case "threshold":
		cfg.Engine.Threshold = o.threshold
	case "alpha":
		cfg.Engine.Alpha = o.alpha
	case "topk":
		cfg.Engine.TopK = o.topK
	case "maxlen":
		cfg.Engine.MaxLength = o.maxLength
	case "seed-pos":
		cfg.Engine.SeedPosition = o.seedPosition
	case "limit":
		cfg.Engine.Limit = o.limit
	case "include-known":
		cfg.Engine.IncludeKnown = o.includeKnown
	case "k":
		cfg.CLI.DefaultK = o.k
	}
}

// newAugmenter picks the fuzzer for the run. radamsa is preferred; the
// built-in mutator is used when asked for or when radamsa is missing.
func newAugmenter(fc config.FuzzConfig, seed uint64) fuzz.Augmenter {
	if !fc.Enabled {
		return nil
	}
	if !fc.Builtin {
		a, err := radamsa.New(fc.Binary)
		if err == nil {
			log.Debugf("Fuzzing with %s", a.Binary())
			return a
		}
		if errors.Is(err, radamsa.ErrNotFound) {
			log.Warnf("%v. Falling back to the built-in mutator", err)
		} else {
			log.Warnf("radamsa unavailable: %v. Falling back to the built-in mutator", err)
		}
	}
	return fuzz.NewMutator(seed)
}
