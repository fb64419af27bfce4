package signals

import (
	"context"
	"errors"
	"testing"

	"github.com/hireview/hireview/internal/gaze"
)

type stubTranscriber struct {
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return s.transcript, s.err
}

type stubTracker struct {
	metrics *gaze.Metrics
	err     error
}

func (s *stubTracker) Analyze(_ context.Context, _ string) (*gaze.Metrics, error) {
	return s.metrics, s.err
}

func TestExtractBothSignals(t *testing.T) {
	t.Parallel()

	extractor := NewExtractor(
		&stubTranscriber{transcript: "I would shard the database."},
		&stubTracker{metrics: &gaze.Metrics{Attentiveness: 0.8}},
		nil,
	)

	got := extractor.Extract(context.Background(), "/tmp/answer.mp4")

	if !got.TranscriptOK || got.Transcript != "I would shard the database." {
		t.Fatalf("unexpected transcript signal: %+v", got)
	}
	if !got.AttentivenessOK || got.Attentiveness != 0.8 {
		t.Fatalf("unexpected attentiveness signal: %+v", got)
	}
	if got.Gaze == nil {
		t.Fatal("expected full gaze metrics to be carried along")
	}
}

func TestExtractFailuresAreIndependent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		transcriber     *stubTranscriber
		tracker         *stubTracker
		transcriptOK    bool
		attentivenessOK bool
	}{
		{
			name:            "transcription fails",
			transcriber:     &stubTranscriber{err: errors.New("engine down")},
			tracker:         &stubTracker{metrics: &gaze.Metrics{Attentiveness: 0.6}},
			attentivenessOK: true,
		},
		{
			name:         "gaze fails",
			transcriber:  &stubTranscriber{transcript: "some answer"},
			tracker:      &stubTracker{err: gaze.ErrNoUsableSamples},
			transcriptOK: true,
		},
		{
			name:        "both fail",
			transcriber: &stubTranscriber{err: errors.New("engine down")},
			tracker:     &stubTracker{err: errors.New("no face")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			extractor := NewExtractor(tt.transcriber, tt.tracker, nil)
			got := extractor.Extract(context.Background(), "/tmp/answer.mp4")

			if got.TranscriptOK != tt.transcriptOK {
				t.Fatalf("TranscriptOK = %v, want %v", got.TranscriptOK, tt.transcriptOK)
			}
			if got.AttentivenessOK != tt.attentivenessOK {
				t.Fatalf("AttentivenessOK = %v, want %v", got.AttentivenessOK, tt.attentivenessOK)
			}
			if !tt.attentivenessOK && got.Gaze != nil {
				t.Fatal("failed gaze extraction must not attach metrics")
			}
		})
	}
}
