// Package signals derives the transcript and attentiveness signals from a
// downloaded recording. The two extractions are independent: either may fail
// without affecting the other, and neither failure is fatal to the item.
package signals

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/gaze"
	"github.com/hireview/hireview/internal/stt"
)

// Extracted carries both signals for one item. An unset OK flag means the
// corresponding value is absent and must be treated as "not available".
type Extracted struct {
	Transcript   string
	TranscriptOK bool

	// Attentiveness is the fraction of sampled frames classified as
	// attentive, in [0,1].
	Attentiveness   float64
	AttentivenessOK bool

	// Gaze holds the full metrics behind Attentiveness when available,
	// giving the judge additional behavioral context.
	Gaze *gaze.Metrics
}

// Extractor runs both capability clients over the same local media file.
type Extractor struct {
	transcriber stt.Transcriber
	tracker     gaze.Tracker
	logger      *zap.Logger
}

func NewExtractor(transcriber stt.Transcriber, tracker gaze.Tracker, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		transcriber: transcriber,
		tracker:     tracker,
		logger:      logger,
	}
}

// Extract runs transcription and gaze analysis concurrently. Failures are
// downgraded to absent signals and logged, never returned.
func (e *Extractor) Extract(ctx context.Context, mediaPath string) Extracted {
	var (
		wg sync.WaitGroup

		transcript    string
		transcriptErr error
		metrics       *gaze.Metrics
		gazeErr       error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		transcript, transcriptErr = e.transcriber.Transcribe(ctx, mediaPath)
	}()
	go func() {
		defer wg.Done()
		metrics, gazeErr = e.tracker.Analyze(ctx, mediaPath)
	}()
	wg.Wait()

	extracted := Extracted{}

	if transcriptErr != nil {
		e.logger.Warn("transcript extraction failed", zap.Error(transcriptErr))
	} else {
		extracted.Transcript = transcript
		extracted.TranscriptOK = true
	}

	if gazeErr != nil {
		e.logger.Warn("attentiveness extraction failed", zap.Error(gazeErr))
	} else {
		extracted.Attentiveness = metrics.Attentiveness
		extracted.AttentivenessOK = true
		extracted.Gaze = metrics
	}

	return extracted
}
