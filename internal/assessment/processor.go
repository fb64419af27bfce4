package assessment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/ai"
	"github.com/hireview/hireview/internal/media"
	"github.com/hireview/hireview/internal/signals"
)

// stage tracks where an item is in its processing lifecycle. Transitions are
// strictly sequential; an item can exit early to done from fetching.
type stage string

const (
	stagePending    stage = "PENDING"
	stageFetching   stage = "FETCHING"
	stageExtracting stage = "EXTRACTING"
	stageScoring    stage = "SCORING"
	stageDone       stage = "DONE"
)

// Fetcher resolves a remote video reference to a local media file.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*media.Handle, error)
}

// Extractor derives the transcript and attentiveness signals from a local
// media file.
type Extractor interface {
	Extract(ctx context.Context, mediaPath string) signals.Extracted
}

// Processor evaluates a single interview item end to end. It owns the
// per-item failure policy: every input yields exactly one ItemScore and no
// failure escapes to the caller.
type Processor struct {
	fetcher   Fetcher
	extractor Extractor
	judge     ai.Judge
	logger    *zap.Logger
}

func NewProcessor(fetcher Fetcher, extractor Extractor, judge ai.Judge, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		fetcher:   fetcher,
		extractor: extractor,
		judge:     judge,
		logger:    logger,
	}
}

// Process walks one item through fetch, extract and score. The temporary
// media file is released on every exit path.
func (p *Processor) Process(ctx context.Context, item Item) ItemScore {
	logger := p.logger.With(zap.Int("position_id", item.PositionID))
	current := stagePending

	advance := func(next stage) {
		logger.Debug("item stage", zap.String("from", string(current)), zap.String("to", string(next)))
		current = next
	}

	advance(stageFetching)

	if !item.HasVideo {
		advance(stageDone)
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusSkipped,
			Reason:     "no recorded video for this question",
		}
	}

	handle, err := p.fetcher.Fetch(ctx, item.VideoRef)
	if err != nil {
		advance(stageDone)
		logger.Warn("video fetch failed", zap.Error(err))
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusErrored,
			Reason:     fmt.Sprintf("fetching video: %s", err),
		}
	}
	defer func() {
		if err := handle.Cleanup(); err != nil {
			logger.Warn("media cleanup failed", zap.Error(err))
		}
	}()

	advance(stageExtracting)

	sig := p.extractor.Extract(ctx, handle.Path())

	// A dead context here means the item deadline expired mid-extraction:
	// both signal clients would have failed with the context error and the
	// item would otherwise masquerade as a signal-less skip.
	if err := ctx.Err(); err != nil {
		advance(stageDone)
		logger.Warn("item deadline expired during extraction", zap.Error(err))
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusErrored,
			Reason:     "timeout: signal extraction exceeded the item deadline",
		}
	}

	advance(stageScoring)

	// The judge contract requires at least one usable signal; without any
	// there is nothing to score.
	if !sig.TranscriptOK && !sig.AttentivenessOK {
		advance(stageDone)
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusSkipped,
			Reason:     "no usable signals: transcription and attentiveness extraction both failed",
		}
	}

	judgment, err := p.judge.Score(ctx, item.Question, sig)
	advance(stageDone)
	if err != nil {
		logger.Warn("judging failed", zap.Error(err))
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusErrored,
			Reason:     fmt.Sprintf("judging answer: %s", err),
		}
	}

	logger.Debug("item scored", zap.Int("score", judgment.Score))

	return ItemScore{
		PositionID: item.PositionID,
		Score:      judgment.Score,
		Reason:     judgment.Reason,
		Status:     StatusScored,
	}
}
