package assessment

import (
	"fmt"
	"math"
)

// Score bounds of the judging rubric.
const (
	MinScore = 0
	MaxScore = 4
)

// Decision thresholds, inclusive on the average score.
const (
	passThreshold   = 3.0
	reviewThreshold = 2.0
)

// Aggregate combines the ordered item outcomes into an overall decision. Only
// scored items feed the average; skipped and errored items are carried into
// the result untouched so reviewers can see them. The function is pure: the
// same input always yields the same result.
func Aggregate(scores []ItemScore) *Result {
	var (
		sum     int
		scored  int
		skipped int
		errored int
	)

	for _, s := range scores {
		switch s.Status {
		case StatusScored:
			sum += s.Score
			scored++
		case StatusSkipped:
			skipped++
		case StatusErrored:
			errored++
		}
	}

	out := make([]ItemScore, len(scores))
	copy(out, scores)

	if scored == 0 {
		// No evidence to decide on. This is an explicit outcome, not a
		// zero average.
		return &Result{
			Decision:            DecisionNeedsReview,
			OverallScorePercent: 0,
			ItemScores:          out,
			Notes: fmt.Sprintf(
				"No answers could be scored (%d skipped, %d errored); manual review required.",
				skipped, errored,
			),
		}
	}

	average := float64(sum) / float64(scored)
	percent := int(math.Round(average / MaxScore * 100))

	var decision Decision
	switch {
	case average >= passThreshold:
		decision = DecisionPassed
	case average >= reviewThreshold:
		decision = DecisionNeedsReview
	default:
		decision = DecisionFailed
	}

	return &Result{
		Decision:            decision,
		OverallScorePercent: percent,
		ItemScores:          out,
		Notes: fmt.Sprintf(
			"%s: %d of %d answers scored, average %.2f of %d (%d skipped, %d errored).",
			decision, scored, len(scores), average, MaxScore, skipped, errored,
		),
	}
}
