package ai

import (
	"context"

	"github.com/hireview/hireview/internal/signals"
)

// Judgment is the parsed outcome of one external scoring call.
type Judgment struct {
	// Score is an integer in [0,4] after validation and clamping.
	Score int
	// Reason is the model's rationale, possibly annotated when the score
	// had to be adjusted.
	Reason string
	// Raw preserves the unprocessed model output for auditing.
	Raw string
}

// Judge scores one answered question from its extracted signals. Callers are
// expected to skip items without any usable signal before invoking Score.
type Judge interface {
	Score(ctx context.Context, question string, sig signals.Extracted) (*Judgment, error)
}
