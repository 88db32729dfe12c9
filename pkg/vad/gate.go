package vad

import (
	"fmt"

	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
)

// Config holds the policy inputs VadGate applies to the classifier; VadGate
// never tunes these itself, it only forwards them and resets the
// classifier whenever they change (spec §4.C).
type Config struct {
	Threshold float64
	PadMs     float64
	SilenceMs float64
}

// maxClassifierFailures is how many consecutive ClassifierError results are
// tolerated before VadGate escalates (spec §7).
const maxClassifierFailures = 3

// Gate wraps a SpeechClassifier, partitioning an incoming frame stream into
// speech/non-speech and emitting SpeechMarker boundaries with the ordering
// spec §4.C requires.
type Gate struct {
	classifier SpeechClassifier
	cfg        Config

	inSpeech        bool
	speechStartTime float64
	lastInSpeech    *audio.Frame

	consecutiveFailures int
	onEscalate          func(error)

	onFrame  func(audio.Frame)
	onMarker func(SpeechMarker)
}

// NewGate creates a gate around classifier with the given policy config.
// onFrame receives every frame (stamped with InSpeech) in order; onMarker
// receives SpeechStart/SpeechStop boundaries, interleaved with onFrame per
// the ordering rules in spec §4.C.
func NewGate(classifier SpeechClassifier, cfg Config, onFrame func(audio.Frame), onMarker func(SpeechMarker)) *Gate {
	return &Gate{classifier: classifier, cfg: cfg, onFrame: onFrame, onMarker: onMarker}
}

// OnEscalate registers a callback invoked after three consecutive
// ClassifierError results (spec §7).
func (g *Gate) OnEscalate(fn func(error)) { g.onEscalate = fn }

// UpdateConfig applies new policy and resets the classifier, as required on
// every threshold/pad change.
func (g *Gate) UpdateConfig(cfg Config) {
	g.cfg = cfg
	g.classifier.Reset()
}

// Process classifies one incoming frame and forwards it (stamped) plus any
// boundary marker, in the order spec §4.C mandates.
func (g *Gate) Process(f audio.Frame) {
	window := prepareWindow(f.Samples)
	result, err := g.classifier.Classify(window)
	if err != nil {
		g.handleClassifierError(f, err)
		return
	}
	g.consecutiveFailures = 0

	switch {
	case result.Start && !g.inSpeech:
		g.inSpeech = true
		g.speechStartTime = f.Timestamp
		g.onMarker(SpeechMarker{
			Kind:            SpeechStart,
			SpeechStartTime: g.speechStartTime,
			Threshold:       g.cfg.Threshold,
			PadMs:           g.cfg.PadMs,
			SilenceMs:       g.cfg.SilenceMs,
		})
		stamped := f.WithInSpeech(true)
		g.lastInSpeech = &stamped
		g.onFrame(stamped)

	case result.End && g.inSpeech:
		g.inSpeech = false
		stamped := f.WithInSpeech(false)
		g.onFrame(stamped)
		lastTime := f.Timestamp
		if g.lastInSpeech != nil {
			lastTime = g.lastInSpeech.Timestamp
		}
		g.onMarker(SpeechMarker{
			Kind:                SpeechStop,
			SpeechStartTime:     g.speechStartTime,
			LastSpeechFrameTime: lastTime - g.cfg.PadMs/1000,
		})

	default:
		stamped := f.WithInSpeech(g.inSpeech)
		if g.inSpeech {
			g.lastInSpeech = &stamped
		}
		g.onFrame(stamped)
	}
}

func (g *Gate) handleClassifierError(f audio.Frame, err error) {
	g.consecutiveFailures++
	// Forward the frame unchanged (in_speech preserved) per spec §7.
	g.onFrame(f.WithInSpeech(g.inSpeech))
	if g.consecutiveFailures >= maxClassifierFailures && g.onEscalate != nil {
		g.onEscalate(fmt.Errorf("vad: classifier failed %d times consecutively: %w", g.consecutiveFailures, err))
	}
}

// OnStop synthesizes a SpeechStop if speech was active, before the caller
// forwards the Stop marker downstream (spec §4.C).
func (g *Gate) OnStop() {
	if !g.inSpeech {
		return
	}
	g.inSpeech = false
	lastTime := g.speechStartTime
	if g.lastInSpeech != nil {
		lastTime = g.lastInSpeech.Timestamp
	}
	g.onMarker(SpeechMarker{
		Kind:                SpeechStop,
		SpeechStartTime:     g.speechStartTime,
		LastSpeechFrameTime: lastTime - g.cfg.PadMs/1000,
	})
}

// prepareWindow tail-trims or zero-pads samples to WindowSamples.
func prepareWindow(samples []float32) []float32 {
	if len(samples) == WindowSamples {
		return samples
	}
	if len(samples) > WindowSamples {
		return samples[len(samples)-WindowSamples:]
	}
	padded := make([]float32, WindowSamples)
	copy(padded, samples)
	return padded
}
