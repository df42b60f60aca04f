// Package cli is an interactive next-token explorer for debugging a trained model.
package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/oracle/internal/logger"
	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/oracle"
	"github.com/charmbracelet/log"
)

const maxInputLength = 512

// Explorer reads partial paths and prints the most likely next tokens.
//
// Lines starting with ':' are commands:
//
//	:score /api/v1/orders   probability of a whole path
//	:vocab us               vocabulary literals starting with "us"
//	:stats                  model summary
type Explorer struct {
	engine       *oracle.Engine
	k            int
	showCounts   bool
	in           io.Reader
	out          *log.Logger
	requestCount int
}

// NewExplorer creates an explorer on stdin and stderr.
func NewExplorer(engine *oracle.Engine, k int, showCounts bool) *Explorer {
	return NewExplorerWithIO(engine, k, showCounts, os.Stdin, os.Stderr)
}

// NewExplorerWithIO creates an explorer on the given streams.
func NewExplorerWithIO(engine *oracle.Engine, k int, showCounts bool, r io.Reader, w io.Writer) *Explorer {
	if k < 1 {
		k = 1
	}
	return &Explorer{
		engine:     engine,
		k:          k,
		showCounts: showCounts,
		in:         r,
		out:        logger.NewWithConfig(w, "", log.GetLevel(), false),
	}
}

// Start runs the prompt loop until the input ends.
func (x *Explorer) Start() error {
	x.out.Print("Oracle explorer")
	x.out.Print("type a partial path and press Enter to see the next tokens (Ctrl+C to exit):")
	reader := bufio.NewReader(x.in)

	for {
		x.out.Print("> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			x.handleInput(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (x *Explorer) handleInput(line string) {
	x.requestCount++
	if len(line) > maxInputLength {
		x.out.Errorf("Input too long: %d characters", len(line))
		return
	}

	if cmd, ok := strings.CutPrefix(line, ":"); ok {
		name, arg, _ := strings.Cut(cmd, " ")
		x.handleCommand(name, strings.TrimSpace(arg))
		return
	}

	if line != "/" && !utils.IsValidInput(line) {
		x.out.Warnf("Ignoring partial path with special characters: '%s'", line)
		return
	}
	if utils.IsRepetitive(strings.Trim(line, "/")) {
		x.out.Warnf("Ignoring repetitive input: '%s'", line)
		return
	}
	x.next(line)
}

func (x *Explorer) handleCommand(name, arg string) {
	switch name {
	case "score":
		if arg == "" {
			x.out.Error("Usage: :score <path>")
			return
		}
		c := x.engine.Score(arg)
		if c.Endpoint.Len() == 0 {
			x.out.Warnf("Path '%s' has no segments", arg)
			return
		}
		x.out.Printf("%s: %.6f [%s]", c.Path, c.Probability, c.Origin)
	case "vocab":
		toks := x.engine.Model().LiteralsWithPrefix(arg)
		if len(toks) == 0 {
			x.out.Warnf("No vocabulary tokens start with '%s'", arg)
			return
		}
		x.out.Printf("Found %d tokens starting with '%s':", len(toks), arg)
		for i, rank := range utils.CreateRankList(len(toks)) {
			x.out.Printf("%2d. %s", rank, toks[i])
		}
	case "stats":
		st := x.engine.Stats()
		x.out.Printf("endpoints: %s, contexts: %s, transitions: %s, vocabulary: %s, seeds: %s",
			utils.FormatWithCommas(st.Endpoints), utils.FormatWithCommas(st.Contexts),
			utils.FormatWithCommas(st.Transitions), utils.FormatWithCommas(st.Vocabulary),
			utils.FormatWithCommas(st.Seeds))
	default:
		x.out.Errorf("Unknown command: :%s", name)
	}
}

func (x *Explorer) next(partial string) {
	x.checkLastSegment(partial)

	start := time.Now()
	preds := x.engine.Next(partial, x.k)
	log.Debugf("Took [ %v ] for '%s'", time.Since(start), partial)

	if len(preds) == 0 {
		x.out.Warnf("No predictions for '%s'", partial)
		return
	}
	x.out.Printf("Top %d tokens after '%s':", len(preds), partial)
	for i, rank := range utils.CreateRankList(len(preds)) {
		p := preds[i]
		if x.showCounts {
			x.out.Printf("%2d. %-24s %.6f (count: %s)", rank, p.Token, p.Probability, utils.FormatWithCommas(p.Count))
			continue
		}
		x.out.Printf("%2d. %-24s %.6f", rank, p.Token, p.Probability)
	}
}

// checkLastSegment warns when the last segment was never seen in training,
// suggesting the closest vocabulary word.
func (x *Explorer) checkLastSegment(partial string) {
	tk := x.engine.Options().Tokenizer
	lits := tk.Tokenize(partial).Literals()
	if len(lits) == 0 {
		return
	}
	last := lits[len(lits)-1]
	if x.engine.Model().Known(last) {
		return
	}

	toks := x.engine.Model().LiteralsWithPrefix("")
	vocab := make([]string, len(toks))
	for i, t := range toks {
		vocab[i] = t.Value
	}
	if w, ok := closest(last.Value, vocab); ok {
		x.out.Warnf("Unknown segment '%s', did you mean '%s'?", last.Value, w)
		return
	}
	x.out.Warnf("Unknown segment '%s'", last.Value)
}
