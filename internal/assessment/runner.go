package assessment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 2
	defaultItemTimeout = 5 * time.Minute
)

// ItemProcessor evaluates one item and always produces a score.
type ItemProcessor interface {
	Process(ctx context.Context, item Item) ItemScore
}

// Runner executes the processor over a full request. Items run independently
// up to a concurrency bound; a limit of 1 is plain sequential execution and
// produces identical results. Output order always matches input order.
type Runner struct {
	processor   ItemProcessor
	concurrency int
	itemTimeout time.Duration
	logger      *zap.Logger
}

// RunnerOptions bound parallelism and per-item wall clock time. Zero values
// select defaults.
type RunnerOptions struct {
	Concurrency int
	ItemTimeout time.Duration
}

func NewRunner(processor ItemProcessor, opts RunnerOptions, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	itemTimeout := opts.ItemTimeout
	if itemTimeout <= 0 {
		itemTimeout = defaultItemTimeout
	}

	return &Runner{
		processor:   processor,
		concurrency: concurrency,
		itemTimeout: itemTimeout,
		logger:      logger,
	}
}

// Run processes every item and aggregates the outcomes exactly once. Faults
// are contained per item: a panic or timeout in one execution becomes that
// item's ERRORED score and never disturbs siblings. When the outer context
// expires, items that have not started are finalized as ERRORED (timeout).
func (r *Runner) Run(ctx context.Context, items []Item) *Result {
	started := time.Now()
	scores := make([]ItemScore, len(items))

	var group errgroup.Group
	group.SetLimit(r.concurrency)

	for i, item := range items {
		group.Go(func() error {
			scores[i] = r.processOne(ctx, item)
			return nil
		})
	}

	// processOne never returns an error; Wait only joins the goroutines.
	_ = group.Wait()

	result := Aggregate(scores)

	r.logger.Info("assessment complete",
		zap.Int("items", len(items)),
		zap.String("decision", string(result.Decision)),
		zap.Int("overall_score_percent", result.OverallScorePercent),
		zap.Duration("elapsed", time.Since(started)),
	)

	return result
}

func (r *Runner) processOne(ctx context.Context, item Item) (score ItemScore) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("item processing panicked",
				zap.Int("position_id", item.PositionID),
				zap.Any("panic", p),
			)
			score = ItemScore{
				PositionID: item.PositionID,
				Status:     StatusErrored,
				Reason:     fmt.Sprintf("internal fault while processing item: %v", p),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return ItemScore{
			PositionID: item.PositionID,
			Status:     StatusErrored,
			Reason:     "timeout: assessment deadline exceeded before item started",
		}
	}

	itemCtx, cancel := context.WithTimeout(ctx, r.itemTimeout)
	defer cancel()

	return r.processor.Process(itemCtx, item)
}
