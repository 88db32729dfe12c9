package vad

// SpeechMarkerKind distinguishes the two SpeechMarker variants.
type SpeechMarkerKind int

const (
	SpeechStart SpeechMarkerKind = iota
	SpeechStop
)

// SpeechMarker is emitted by VadGate at speech/non-speech boundaries.
type SpeechMarker struct {
	Kind SpeechMarkerKind

	// SpeechStart fields.
	SpeechStartTime float64
	Threshold       float64
	PadMs           float64
	SilenceMs       float64

	// SpeechStop fields.
	LastSpeechFrameTime float64
}
