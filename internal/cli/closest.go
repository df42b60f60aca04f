package cli

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bastiangx/oracle/internal/utils"
)

// Scoring for subsequence matches against vocabulary tokens.
const (
	firstCharMatchBonus            = 15
	adjacentMatchBonus             = 10
	separatorMatchBonus            = 12
	camelCaseMatchBonus            = 12
	unmatchedLeadingCharPenalty    = -3
	maxUnmatchedLeadingCharPenalty = -9
)

type match struct {
	word  string
	score int
}

// closest returns the vocabulary word that input most likely misspells.
// Every rune of input must appear in order in the word, and inputs
// longer than one rune must share its first letter.
func closest(input string, vocab []string) (string, bool) {
	if len(input) < 2 {
		return "", false
	}
	pattern := []rune(strings.ToLower(input))

	var matches []match
	for _, w := range vocab {
		cand := []rune(w)
		if len(cand) == 0 || unicode.ToLower(cand[0]) != pattern[0] {
			continue
		}
		score, ok := subsequenceScore(pattern, cand)
		if !ok {
			continue
		}
		score -= 2 * abs(len(cand)-len(pattern))
		matches = append(matches, match{word: w, score: score})
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].word < matches[j].word
	})
	return matches[0].word, true
}

// subsequenceScore greedily matches pattern inside cand, rewarding
// matches at the start, after separators, at case changes and in runs.
func subsequenceScore(pattern, cand []rune) (int, bool) {
	score, pi, run, lastMatch := 0, 0, 0, -2
	for i, r := range cand {
		if pi == len(pattern) {
			break
		}
		if unicode.ToLower(r) != pattern[pi] {
			continue
		}
		s := 0
		switch {
		case i == 0:
			s += firstCharMatchBonus
		case utils.IsSeparator(cand[i-1]) || cand[i-1] == '/':
			s += separatorMatchBonus
		case unicode.IsLower(cand[i-1]) && unicode.IsUpper(r):
			s += camelCaseMatchBonus
		}
		if lastMatch == i-1 {
			run = run*2 + adjacentMatchBonus
			s += run
		} else {
			run = 0
		}
		if pi == 0 {
			s += max(i*unmatchedLeadingCharPenalty, maxUnmatchedLeadingCharPenalty)
		}
		score += s
		lastMatch = i
		pi++
	}
	return score, pi == len(pattern)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
