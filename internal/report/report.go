// Package report prints ranked candidates and probe results to a terminal.
package report

import (
	"fmt"
	"io"

	"github.com/bastiangx/oracle/internal/probe"
	"github.com/bastiangx/oracle/internal/utils"
	"github.com/bastiangx/oracle/pkg/score"
	"github.com/charmbracelet/lipgloss"
)

// Printer writes colored report lines. Colors are dropped when w is not
// a terminal.
type Printer struct {
	w        io.Writer
	header   lipgloss.Style
	section  lipgloss.Style
	cand     lipgloss.Style
	origin   lipgloss.Style
	valid    lipgloss.Style
	invalid  lipgloss.Style
	faint    lipgloss.Style
	showKind bool
}

// New creates a Printer for w. showOrigin adds the stage that produced
// each candidate.
func New(w io.Writer, showOrigin bool) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		section:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		cand:     r.NewStyle().Foreground(lipgloss.Color("6")),
		origin:   r.NewStyle().Italic(true).Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#908caa"}),
		valid:    r.NewStyle().Foreground(lipgloss.Color("2")),
		invalid:  r.NewStyle().Foreground(lipgloss.Color("1")),
		faint:    r.NewStyle().Faint(true),
		showKind: showOrigin,
	}
}

// Candidates prints the ranked list under a header.
func (p *Printer) Candidates(cands []score.Candidate) {
	fmt.Fprintln(p.w, p.header.Render("Candidate Endpoints with Probability Scores:"))
	if len(cands) == 0 {
		fmt.Fprintln(p.w, p.faint.Render("(none above threshold)"))
		return
	}
	for _, c := range cands {
		line := p.cand.Render(fmt.Sprintf("%s: %.6f", c.Path, c.Probability))
		if p.showKind {
			line += " " + p.origin.Render("["+c.Origin.String()+"]")
		}
		fmt.Fprintln(p.w, line)
	}
}

// ProbeHeader starts the validation section.
func (p *Printer) ProbeHeader() {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.section.Render("Validating Candidate Endpoints:"))
}

// Result prints one probe outcome.
func (p *Printer) Result(r probe.Result) {
	if r.Reachable {
		fmt.Fprintln(p.w, p.valid.Render(fmt.Sprintf("Valid endpoint: %s (Status: %d, Probability: %.6f)",
			r.Candidate.Path, r.Status, r.Candidate.Probability)))
		return
	}
	status := fmt.Sprintf("%d", r.Status)
	if r.Err != nil {
		status = "error"
	}
	fmt.Fprintln(p.w, p.invalid.Render(fmt.Sprintf("Invalid endpoint: %s (Status: %s, Probability: %.6f)",
		r.Candidate.Path, status, r.Candidate.Probability)))
}

// Summary prints the totals line.
func (p *Printer) Summary(reachable, total int) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.faint.Render(fmt.Sprintf("%s of %s candidates reachable",
		utils.FormatWithCommas(reachable), utils.FormatWithCommas(total))))
}
