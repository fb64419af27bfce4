// Package assessment implements the per-item evaluation state machine and
// the aggregation of item scores into an overall hiring decision.
package assessment

// Item is one interview question to evaluate. Immutable once received; the
// position id is opaque and only echoed back in results.
type Item struct {
	PositionID int
	Question   string
	HasVideo   bool
	VideoRef   string
}

// Status tells how an item's evaluation ended.
type Status string

const (
	// StatusScored means the judge produced a valid score for the item.
	StatusScored Status = "SCORED"
	// StatusSkipped means the item had no evaluable evidence: no recorded
	// video, or every signal extraction failed.
	StatusSkipped Status = "SKIPPED"
	// StatusErrored means a processing failure was confined to this item.
	StatusErrored Status = "ERRORED"
)

// ItemScore is the single outcome every item produces, whatever happens
// during processing. Score is meaningful only when Status is StatusScored.
type ItemScore struct {
	PositionID int
	Score      int
	Reason     string
	Status     Status
}

// Decision is the overall categorical outcome for a full request.
type Decision string

const (
	DecisionPassed      Decision = "PASSED"
	DecisionNeedsReview Decision = "NEEDS_REVIEW"
	DecisionFailed      Decision = "FAILED"
)

// Result is the final payload for one assessment request. ItemScores keeps
// the request order. Never mutated after Aggregate returns it.
type Result struct {
	Decision            Decision
	OverallScorePercent int
	ItemScores          []ItemScore
	Notes               string
}
