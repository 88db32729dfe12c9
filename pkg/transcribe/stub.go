package transcribe

import (
	"context"

	"github.com/google/uuid"
)

// StubTranscriber is a deterministic in-process Transcriber for tests and
// offline runs; it never makes network calls.
type StubTranscriber struct {
	name string
	// Fn produces the recognized text for a window; if nil (or if it
	// returns ""), the stub returns an event with no segments.
	Fn func(AudioWindow) string
	// Delay, if set, is applied via a context-respecting sleep so tests can
	// exercise whisper_timeout cancellation.
	Delay func(ctx context.Context) error
}

func NewStubTranscriber(name string) *StubTranscriber {
	return &StubTranscriber{name: name}
}

func (s *StubTranscriber) Name() string { return s.name }

func (s *StubTranscriber) Transcribe(ctx context.Context, window AudioWindow) (TextEvent, error) {
	if s.Delay != nil {
		if err := s.Delay(ctx); err != nil {
			return TextEvent{}, err
		}
	}
	text := ""
	if s.Fn != nil {
		text = s.Fn(window)
	}
	var segments []TextSegment
	if text != "" {
		segments = []TextSegment{{Text: text, StartOffsetMs: 0, EndOffsetMs: (window.EndTime - window.StartTime) * 1000}}
	}
	return TextEvent{
		Segments:      segments,
		AudioSourceID: window.SourceID,
		AudioStart:    window.StartTime,
		AudioEnd:      window.EndTime,
		EventID:       uuid.NewString(),
	}, nil
}
