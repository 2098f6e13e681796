package service

import (
	"fmt"
	"strings"

	"github.com/supergrader/grader-api/internal/models"
)

// tally counts occurrences of string keys while remembering first-seen
// order. Map iteration order is unspecified in Go, and both the majority pick
// and tie-breaks must stay deterministic for a fixed input order.
type tally struct {
	counts map[string]int
	order  []string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

// leader returns the most frequent key, preferring the first seen on equal
// counts, plus its count.
func (t *tally) leader() (string, int) {
	best := ""
	bestCount := 0
	for _, key := range t.order {
		if t.counts[key] > bestCount {
			best = key
			bestCount = t.counts[key]
		}
	}
	return best, bestCount
}

// topTwoTied reports whether the two most frequent keys hold equal counts.
func (t *tally) topTwoTied() bool {
	if len(t.order) < 2 {
		return false
	}

	first, second := 0, 0
	for _, key := range t.order {
		count := t.counts[key]
		if count > first {
			first, second = count, first
		} else if count > second {
			second = count
		}
	}
	return first == second
}

// resolveBinary reduces a non-empty ordered set of binary verdicts to the
// majority decision. The representative verdict is the highest-confidence one
// holding the majority decision, first seen winning confidence ties.
func resolveBinary(verdicts []models.BinaryVerdict) (models.BinaryVerdict, float64) {
	votes := newTally()
	for _, verdict := range verdicts {
		votes.add(string(verdict.Decision))
	}

	majority, majorityCount := votes.leader()

	var representative models.BinaryVerdict
	found := false
	for _, verdict := range verdicts {
		if string(verdict.Decision) != majority {
			continue
		}
		if !found || verdict.ConfidencePct > representative.ConfidencePct {
			representative = verdict
			found = true
		}
	}

	confidence := voteConfidence(majorityCount, len(verdicts), representative.ConfidencePct)
	return representative, confidence
}

// resolveChoice reduces a non-empty ordered set of choice verdicts. A tie
// between the two leading options resolves to the first-seen verdict for the
// first-seen tied option with confidence pinned at 0.5 to flag low certainty.
func resolveChoice(verdicts []models.ChoiceVerdict) (models.ChoiceVerdict, float64) {
	votes := newTally()
	for _, verdict := range verdicts {
		votes.add(verdict.SelectedOption)
	}

	leader, leaderCount := votes.leader()

	if votes.topTwoTied() {
		for _, verdict := range verdicts {
			if verdict.SelectedOption == leader {
				return verdict, 0.5
			}
		}
	}

	var representative models.ChoiceVerdict
	found := false
	for _, verdict := range verdicts {
		if verdict.SelectedOption != leader {
			continue
		}
		if !found || verdict.ConfidencePct > representative.ConfidencePct {
			representative = verdict
			found = true
		}
	}

	confidence := voteConfidence(leaderCount, len(verdicts), representative.ConfidencePct)
	return representative, confidence
}

func voteConfidence(majorityCount, total, representativePct int) float64 {
	return (float64(majorityCount) / float64(total)) * (float64(representativePct) / 100.0)
}

// voteReasoning summarises the vote for the decision's internal reasoning
// field.
func voteReasoning(verdicts []models.Verdict) string {
	if len(verdicts) == 0 {
		return "no valid evaluations"
	}

	votes := newTally()
	confidenceSum := 0
	for _, verdict := range verdicts {
		switch v := verdict.(type) {
		case models.BinaryVerdict:
			votes.add(string(v.Decision))
		case models.ChoiceVerdict:
			votes.add(v.SelectedOption)
		}
		confidenceSum += verdict.Confidence()
	}

	parts := make([]string, 0, len(votes.order))
	for _, key := range votes.order {
		parts = append(parts, fmt.Sprintf("%s=%d", key, votes.counts[key]))
	}

	average := float64(confidenceSum) / float64(len(verdicts))
	return fmt.Sprintf("voting results: %s; average confidence: %.1f%%", strings.Join(parts, ", "), average)
}
