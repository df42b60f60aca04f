// Package radamsa runs an external mutation fuzzer as a co-process.
package radamsa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"

	"github.com/bastiangx/oracle/internal/logger"
	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/fuzz"
	"github.com/charmbracelet/log"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "radamsa"

var ErrNotFound = errors.New("radamsa: binary not found")

// Augmenter feeds each path to the fuzzer on stdin and reads one variant
// from stdout per invocation.
type Augmenter struct {
	binary string
	logger *log.Logger
}

var _ fuzz.Augmenter = (*Augmenter)(nil)

// New resolves binary on PATH.
func New(binary string) (*Augmenter, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, binary, err)
	}
	return &Augmenter{binary: resolved, logger: logger.New("radamsa")}, nil
}

// Binary returns the resolved executable path.
func (a *Augmenter) Binary() string {
	return a.binary
}

// Augment runs the fuzzer iters times per path. A failed invocation is
// logged and skipped; only cancellation aborts the run.
func (a *Augmenter) Augment(ctx context.Context, paths []string, iters int) ([]string, error) {
	filter := utils.NewSeenFilter(paths...)
	var out []string
	failed := 0
	for _, p := range paths {
		for i := 0; i < iters; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			raw, err := a.run(ctx, p)
			if err != nil {
				failed++
				a.logger.Debugf("invocation for %s failed: %v", p, err)
				continue
			}
			variant, ok := fuzz.Sanitize(raw)
			if ok && filter.ShouldInclude(variant) {
				out = append(out, variant)
			}
		}
	}
	if failed > 0 {
		a.logger.Warnf("%d of %d invocations failed", failed, len(paths)*iters)
	}
	sort.Strings(out)
	return out, nil
}

func (a *Augmenter) run(ctx context.Context, input string) (string, error) {
	cmd := exec.CommandContext(ctx, a.binary)
	cmd.Stdin = bytes.NewBufferString(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return "", err
	}
	return stdout.String(), nil
}
