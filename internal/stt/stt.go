// Package stt provides the speech-to-text capability used to derive
// transcripts from recorded answers.
package stt

import "context"

// Transcriber turns the audio track of a local media file into text.
// Implementations wrap an external speech-to-text engine.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (string, error)
}
