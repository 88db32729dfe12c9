package vad

import (
	"testing"

	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
)

// scriptedClassifier returns a fixed sequence of results, one per call.
type scriptedClassifier struct {
	results []ClassifierResult
	i       int
	resets  int
}

func (s *scriptedClassifier) Classify(window []float32) (ClassifierResult, error) {
	if s.i >= len(s.results) {
		return ClassifierResult{}, nil
	}
	r := s.results[s.i]
	s.i++
	return r, nil
}

func (s *scriptedClassifier) Reset() { s.resets++ }

func silentFrame(ts float64) audio.Frame {
	return audio.Frame{SourceID: "src", Timestamp: ts, Duration: 0.032, SampleRate: 16000, Channels: 1, Samples: make([]float32, 512)}
}

func TestGateEmitsSpeechStartBeforeFrame(t *testing.T) {
	sc := &scriptedClassifier{results: []ClassifierResult{{Start: true}}}
	var order []string
	var gotTimestamp float64

	g := NewGate(sc, Config{PadMs: 500}, func(f audio.Frame) {
		order = append(order, "frame")
		if !f.InSpeech {
			t.Errorf("expected frame stamped in_speech=true")
		}
	}, func(m SpeechMarker) {
		order = append(order, "marker")
		gotTimestamp = m.SpeechStartTime
	})

	g.Process(silentFrame(1.5))

	if len(order) != 2 || order[0] != "marker" || order[1] != "frame" {
		t.Fatalf("expected marker before frame, got %v", order)
	}
	if gotTimestamp != 1.5 {
		t.Errorf("expected speech start time 1.5, got %v", gotTimestamp)
	}
}

func TestGateEmitsSpeechStopAfterFrame(t *testing.T) {
	sc := &scriptedClassifier{results: []ClassifierResult{{Start: true}, {}, {End: true}}}
	var order []string
	var stopTime float64

	g := NewGate(sc, Config{PadMs: 500}, func(f audio.Frame) {
		order = append(order, "frame")
	}, func(m SpeechMarker) {
		order = append(order, "marker")
		if m.Kind == SpeechStop {
			stopTime = m.LastSpeechFrameTime
		}
	})

	g.Process(silentFrame(2.0)) // start
	g.Process(silentFrame(2.1)) // in speech
	g.Process(silentFrame(5.5)) // stop

	want := []string{"marker", "frame", "frame", "frame", "marker"}
	if len(order) != len(want) {
		t.Fatalf("expected order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
	// The stop-triggering frame at 5.5 carries in_speech=false, so the last
	// in-speech frame is the one at 2.1 and the pad is subtracted from it.
	if stopTime != 2.1-0.5 {
		t.Errorf("expected last speech frame time %v, got %v", 2.1-0.5, stopTime)
	}
}

func TestGateStopWhileInSpeechSynthesizesStop(t *testing.T) {
	sc := &scriptedClassifier{results: []ClassifierResult{{Start: true}}}
	var stopped bool

	g := NewGate(sc, Config{}, func(audio.Frame) {}, func(m SpeechMarker) {
		if m.Kind == SpeechStop {
			stopped = true
		}
	})

	g.Process(silentFrame(0))
	g.OnStop()

	if !stopped {
		t.Error("expected synthesized SpeechStop on OnStop while in speech")
	}
}

func TestGateUpdateConfigResetsClassifier(t *testing.T) {
	sc := &scriptedClassifier{}
	g := NewGate(sc, Config{Threshold: 0.1}, func(audio.Frame) {}, func(SpeechMarker) {})
	g.UpdateConfig(Config{Threshold: 0.2})
	if sc.resets != 1 {
		t.Errorf("expected classifier reset on config change, got %d resets", sc.resets)
	}
}

func TestGateEscalatesAfterThreeFailures(t *testing.T) {
	failing := &alwaysFailClassifier{}
	var escalated int
	g := NewGate(failing, Config{}, func(audio.Frame) {}, func(SpeechMarker) {})
	g.OnEscalate(func(err error) { escalated++ })

	g.Process(silentFrame(0))
	g.Process(silentFrame(1))
	if escalated != 0 {
		t.Fatalf("expected no escalation yet, got %d", escalated)
	}
	g.Process(silentFrame(2))
	if escalated != 1 {
		t.Fatalf("expected escalation after 3 consecutive failures, got %d", escalated)
	}
}

type alwaysFailClassifier struct{}

func (alwaysFailClassifier) Classify(window []float32) (ClassifierResult, error) {
	return ClassifierResult{}, errClassifier
}
func (alwaysFailClassifier) Reset() {}

var errClassifier = fmtError("boom")

type fmtError string

func (e fmtError) Error() string { return string(e) }
