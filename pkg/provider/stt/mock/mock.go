// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcripts without a live
// transcription backend and to inspect what audio was submitted.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/barriocredito/voxpedido/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Filename is the Audio.Filename passed to Transcribe.
	Filename string
	// MIMEType is the Audio.MIMEType passed to Transcribe.
	MIMEType string
	// Body is the fully drained audio content.
	Body []byte
}

// Provider is a mock implementation of stt.Provider.
// Zero values cause Transcribe to return a nil transcript and nil error.
// Set TranscribeErr to inject an error.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by Transcribe. May be nil.
	Transcript *stt.Transcript

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// TranscribeCalls records every invocation of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Transcribe drains the audio reader, records the call, and returns
// Transcript, TranscribeErr.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (*stt.Transcript, error) {
	var body []byte
	if audio.Reader != nil {
		body, _ = io.ReadAll(audio.Reader)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{
		Ctx:      ctx,
		Filename: audio.Filename,
		MIMEType: audio.MIMEType,
		Body:     body,
	})
	return p.Transcript, p.TranscribeErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranscribeCalls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
