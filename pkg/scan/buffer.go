// Package scan accumulates in-speech audio into fixed-duration windows for
// the transcriber.
package scan

import "github.com/lokutor-ai/lokutor-dictation/pkg/audio"

// MinSegmentDuration is the shortest final window ScanBuffer will release
// on speech end; anything shorter is discarded (spec §4.E).
const MinSegmentDuration = 1.2

// Window is a fixed-duration slice of in-speech audio ready for
// transcription.
type Window struct {
	Samples    []float32
	SampleRate int
	Channels   int
	StartTime  float64
	EndTime    float64
	SourceID   string
}

// Buffer accumulates frames while speech is active and releases windows
// either when scanSamples worth of audio has accumulated, or when speech
// ends (a short final window, subject to MinSegmentDuration).
type Buffer struct {
	scanSamples int
	sampleRate  int

	samples  []float32
	sourceID string
	startTS  float64
	haveData bool
}

// NewBuffer creates a buffer that releases windows of secondsPerScan
// seconds at sampleRate (expected 16000, mono).
func NewBuffer(secondsPerScan float64, sampleRate int) *Buffer {
	return &Buffer{
		scanSamples: int(secondsPerScan * float64(sampleRate)),
		sampleRate:  sampleRate,
	}
}

// Seed pre-loads pre-roll audio recovered from the AudioRing when speech
// starts, so transcription sees context before the detected onset.
func (b *Buffer) Seed(frames []audio.Frame) {
	for _, f := range frames {
		b.appendFrame(f)
	}
}

// Push appends an in-speech frame, returning a released Window if the scan
// window is now full.
func (b *Buffer) Push(f audio.Frame) (Window, bool) {
	b.appendFrame(f)
	if len(b.samples) < b.scanSamples {
		return Window{}, false
	}

	release := b.samples[:b.scanSamples]
	remainder := append([]float32(nil), b.samples[b.scanSamples:]...)

	w := b.makeWindow(release)
	b.samples = remainder
	b.startTS = w.EndTime
	if len(remainder) == 0 {
		b.haveData = false
	}
	return w, true
}

func (b *Buffer) appendFrame(f audio.Frame) {
	if !b.haveData {
		b.sourceID = f.SourceID
		b.startTS = f.Timestamp
		b.haveData = true
	}
	b.samples = append(b.samples, f.Samples...)
}

// Flush releases whatever remains when speech ends. If the remaining
// duration is below MinSegmentDuration, it is discarded and Flush returns
// false.
func (b *Buffer) Flush() (Window, bool) {
	if !b.haveData || len(b.samples) == 0 {
		b.reset()
		return Window{}, false
	}

	duration := float64(len(b.samples)) / float64(b.sampleRate)
	if duration < MinSegmentDuration {
		b.reset()
		return Window{}, false
	}

	w := b.makeWindow(b.samples)
	b.reset()
	return w, true
}

func (b *Buffer) reset() {
	b.samples = nil
	b.haveData = false
}

func (b *Buffer) makeWindow(samples []float32) Window {
	dur := float64(len(samples)) / float64(b.sampleRate)
	return Window{
		Samples:    append([]float32(nil), samples...),
		SampleRate: b.sampleRate,
		Channels:   1,
		StartTime:  b.startTS,
		EndTime:    b.startTS + dur,
		SourceID:   b.sourceID,
	}
}
