// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (e.g., OpenAI Whisper or a
// local whisper.cpp server) and exposes a uniform batch interface: one audio
// upload in, one transcript out. The voice-order pipeline records complete
// utterances in the browser and submits them whole, so streaming recognition
// is deliberately out of scope.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package stt

import (
	"context"
	"io"
)

// Audio is a single recorded utterance to transcribe. The Reader is consumed
// exactly once; callers that need to retry must supply a fresh Reader.
type Audio struct {
	// Reader yields the encoded audio bytes (e.g., webm, wav, mp3).
	Reader io.Reader

	// Filename is the original upload name, used by providers that sniff the
	// container format from the extension. Defaults to "audio.webm" when empty.
	Filename string

	// MIMEType is the declared content type of the upload. Providers may
	// forward it as a hint; an empty value is acceptable.
	MIMEType string
}

// Transcript is the result of transcribing one Audio utterance.
type Transcript struct {
	// Text is the recognised speech, verbatim from the provider.
	Text string

	// Language is the language the audio was transcribed as, when the
	// provider reports it. May be empty.
	Language string
}

// Provider is the abstraction over any batch STT backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// Transcribe submits audio for recognition and waits for the full result.
	// Returns an error if the request fails or ctx is cancelled first.
	Transcribe(ctx context.Context, audio Audio) (*Transcript, error)
}
