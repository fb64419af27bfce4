package assessment

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/signals"
)

// scriptedProcessor returns canned scores and can misbehave for chosen items.
type scriptedProcessor struct {
	mu        sync.Mutex
	delays    map[int]time.Duration
	panics    map[int]bool
	processed []int
}

func (p *scriptedProcessor) Process(ctx context.Context, item Item) ItemScore {
	p.mu.Lock()
	p.processed = append(p.processed, item.PositionID)
	delay := p.delays[item.PositionID]
	shouldPanic := p.panics[item.PositionID]
	p.mu.Unlock()

	if shouldPanic {
		panic("scripted failure")
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ItemScore{PositionID: item.PositionID, Status: StatusErrored, Reason: "timeout: " + ctx.Err().Error()}
		}
	}

	return ItemScore{PositionID: item.PositionID, Score: 3, Status: StatusScored, Reason: "ok"}
}

func itemsForTest(n int) []Item {
	items := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, Item{PositionID: i, Question: "q", HasVideo: true, VideoRef: "ref"})
	}
	return items
}

func TestRunPreservesInputOrder(t *testing.T) {
	t.Parallel()

	// Later items finish first thanks to staggered delays.
	processor := &scriptedProcessor{delays: map[int]time.Duration{
		1: 30 * time.Millisecond,
		2: 20 * time.Millisecond,
		3: 0,
	}}

	runner := NewRunner(processor, RunnerOptions{Concurrency: 3}, zap.NewNop())
	result := runner.Run(context.Background(), itemsForTest(3))

	if len(result.ItemScores) != 3 {
		t.Fatalf("expected one score per item, got %d", len(result.ItemScores))
	}
	for i, score := range result.ItemScores {
		if score.PositionID != i+1 {
			t.Fatalf("expected position %d at index %d, got %d", i+1, i, score.PositionID)
		}
	}
}

func TestRunSequentialAndConcurrentAgree(t *testing.T) {
	t.Parallel()

	items := itemsForTest(5)

	sequential := NewRunner(&scriptedProcessor{}, RunnerOptions{Concurrency: 1}, zap.NewNop()).
		Run(context.Background(), items)
	concurrent := NewRunner(&scriptedProcessor{}, RunnerOptions{Concurrency: 4}, zap.NewNop()).
		Run(context.Background(), items)

	if sequential.Decision != concurrent.Decision {
		t.Fatalf("decisions diverge: %s vs %s", sequential.Decision, concurrent.Decision)
	}
	if sequential.OverallScorePercent != concurrent.OverallScorePercent {
		t.Fatalf("percents diverge: %d vs %d", sequential.OverallScorePercent, concurrent.OverallScorePercent)
	}
	for i := range items {
		if sequential.ItemScores[i] != concurrent.ItemScores[i] {
			t.Fatalf("item %d diverges: %+v vs %+v", i, sequential.ItemScores[i], concurrent.ItemScores[i])
		}
	}
}

func TestRunIsolatesPanics(t *testing.T) {
	t.Parallel()

	processor := &scriptedProcessor{panics: map[int]bool{2: true}}

	runner := NewRunner(processor, RunnerOptions{Concurrency: 2}, zap.NewNop())
	result := runner.Run(context.Background(), itemsForTest(3))

	if len(result.ItemScores) != 3 {
		t.Fatalf("expected one score per item, got %d", len(result.ItemScores))
	}

	faulted := result.ItemScores[1]
	if faulted.Status != StatusErrored {
		t.Fatalf("expected panicking item to be ERRORED, got %s", faulted.Status)
	}
	if !strings.Contains(faulted.Reason, "scripted failure") {
		t.Fatalf("expected reason to carry the panic value, got %q", faulted.Reason)
	}

	for _, i := range []int{0, 2} {
		if result.ItemScores[i].Status != StatusScored {
			t.Fatalf("sibling item %d must complete normally, got %s", i, result.ItemScores[i].Status)
		}
	}
}

func TestRunItemTimeoutDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()

	processor := &scriptedProcessor{delays: map[int]time.Duration{2: time.Second}}

	runner := NewRunner(processor, RunnerOptions{Concurrency: 3, ItemTimeout: 50 * time.Millisecond}, zap.NewNop())
	result := runner.Run(context.Background(), itemsForTest(3))

	if result.ItemScores[1].Status != StatusErrored {
		t.Fatalf("expected slow item to be ERRORED, got %s", result.ItemScores[1].Status)
	}
	if !strings.Contains(result.ItemScores[1].Reason, "timeout") {
		t.Fatalf("expected timeout reason, got %q", result.ItemScores[1].Reason)
	}
	for _, i := range []int{0, 2} {
		if result.ItemScores[i].Status != StatusScored {
			t.Fatalf("sibling item %d must complete normally, got %s", i, result.ItemScores[i].Status)
		}
	}
}

// blockingExtractor behaves like the real HTTP signal clients under a dead
// context: it waits out the deadline and reports both signals as failed.
type blockingExtractor struct{}

func (blockingExtractor) Extract(ctx context.Context, _ string) signals.Extracted {
	<-ctx.Done()
	return signals.Extracted{}
}

func TestRunItemTimeoutDuringExtractionIsErrored(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{handle: tempHandle(t)}
	judge := &stubJudge{}
	processor := NewProcessor(fetcher, blockingExtractor{}, judge, zap.NewNop())

	runner := NewRunner(processor, RunnerOptions{Concurrency: 1, ItemTimeout: 50 * time.Millisecond}, zap.NewNop())
	result := runner.Run(context.Background(), itemsForTest(1))

	score := result.ItemScores[0]
	if score.Status != StatusErrored {
		t.Fatalf("expected timed-out extraction to be ERRORED, got %s (%s)", score.Status, score.Reason)
	}
	if !strings.Contains(score.Reason, "timeout") {
		t.Fatalf("expected timeout reason, got %q", score.Reason)
	}
	if judge.calls != 0 {
		t.Fatal("expected no judge call after the item deadline expired")
	}
}

func TestRunExpiredOuterDeadlineFinalizesRemaining(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(&scriptedProcessor{}, RunnerOptions{Concurrency: 1}, zap.NewNop())
	result := runner.Run(ctx, itemsForTest(2))

	if len(result.ItemScores) != 2 {
		t.Fatalf("expected every item finalized, got %d scores", len(result.ItemScores))
	}
	for i, score := range result.ItemScores {
		if score.Status != StatusErrored {
			t.Fatalf("item %d: expected ERRORED after deadline, got %s", i, score.Status)
		}
		if !strings.Contains(score.Reason, "timeout") {
			t.Fatalf("item %d: expected timeout reason, got %q", i, score.Reason)
		}
	}
	if result.Decision != DecisionNeedsReview {
		t.Fatalf("expected NEEDS_REVIEW with no scored items, got %s", result.Decision)
	}
}
