package audio

import (
	"bytes"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	sampleRate := 44100
	wav := EncodeWAV(samples, sampleRate)

	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Errorf("expected RIFF prefix")
	}
	if !bytes.Contains(wav, []byte("WAVE")) {
		t.Errorf("expected WAVE format identifier")
	}

	expectedLen := 44 + len(samples)*2
	if len(wav) != expectedLen {
		t.Errorf("expected length %d, got %d", expectedLen, len(wav))
	}
}

func TestEncodeWAVClampsOutOfRangeSamples(t *testing.T) {
	wav := EncodeWAV([]float32{2, -2}, 16000)
	data := wav[44:]
	if len(data) != 4 {
		t.Fatalf("expected 4 bytes of PCM data, got %d", len(data))
	}
	// +2 clamps to +1 -> int16 32767 -> 0xFF 0x7F little-endian.
	if data[0] != 0xFF || data[1] != 0x7F {
		t.Errorf("expected clamped max sample 0xFF7F, got %#x %#x", data[0], data[1])
	}
}
