// Package gaze turns per-frame gaze samples from an external face landmark
// service into a single attentiveness signal for the judge.
package gaze

import (
	"context"
	"errors"
	"math"
)

// Sample is one analyzed video frame. Ratio encodes horizontal gaze
// direction: 0 is fully left, 0.5 is straight at the camera, 1 is fully
// right. Face reports whether a face was found in the frame at all.
type Sample struct {
	Ratio float64 `json:"gaze"`
	Face  bool    `json:"face"`
}

// Metrics aggregates gaze samples for one recording. Attentiveness is the
// fraction of all samples showing an engaged gaze and is the value fed to the
// scoring pipeline; the remaining percentages give the judge extra context.
type Metrics struct {
	Attentiveness      float64
	EyeContactPercent  float64
	GazeStability      float64
	AttentionScore     float64
	LookingAwayPercent float64
	Samples            int
	FaceSamples        int
}

// Tracker produces gaze metrics for a local video file. Implementations wrap
// an external gaze estimation engine.
type Tracker interface {
	Analyze(ctx context.Context, mediaPath string) (*Metrics, error)
}

// A frame counts as eye contact when the gaze ratio sits within this window
// around the camera position (0.5).
const eyeContactWindow = 0.3

// ErrNoUsableSamples is returned when no analyzed frame contains a face.
var ErrNoUsableSamples = errors.New("no usable gaze samples")

// Reduce folds raw samples into Metrics. It fails only when not a single
// sample contains a face; everything else degrades to low scores.
func Reduce(samples []Sample) (*Metrics, error) {
	usable := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Face {
			usable = append(usable, s.Ratio)
		}
	}

	if len(usable) == 0 {
		return nil, ErrNoUsableSamples
	}

	contact := 0
	// contactScore grades each frame continuously: 1 at dead center, 0 at
	// the extremes. Its mean weighs into the attention score; the windowed
	// count feeds the percentages.
	var contactScore float64
	for _, ratio := range usable {
		if math.Abs(ratio-0.5) < eyeContactWindow {
			contact++
		}
		contactScore += 1 - math.Abs(ratio-0.5)*2
	}

	eyeContactPct := float64(contact) / float64(len(usable)) * 100
	avgContactScore := contactScore / float64(len(usable)) * 100
	lookingAwayPct := 100 - eyeContactPct
	stability := math.Max(0, 1-stddev(usable)*2) * 100

	return &Metrics{
		// Frames without a face are not attentive, so the fraction runs
		// over all samples, not only usable ones.
		Attentiveness:      float64(contact) / float64(len(samples)),
		EyeContactPercent:  eyeContactPct,
		GazeStability:      stability,
		AttentionScore:     0.4*avgContactScore + 0.3*stability + 0.3*(100-lookingAwayPct),
		LookingAwayPercent: lookingAwayPct,
		Samples:            len(samples),
		FaceSamples:        len(usable),
	}, nil
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}
