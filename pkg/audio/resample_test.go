package audio

import "testing"

func TestResampleSameRate(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	out := Resample(samples, 16000, 16000)
	if len(out) != len(samples) {
		t.Fatalf("expected same length, got %d", len(out))
	}
}

func TestResampleDownsample(t *testing.T) {
	samples := make([]float32, 44100)
	out := Resample(samples, 44100, 16000)
	expected := 16000
	if out == nil || len(out) < expected-10 || len(out) > expected+10 {
		t.Fatalf("expected ~%d samples, got %d", expected, len(out))
	}
}

func TestMixToMonoDownmix(t *testing.T) {
	stereo := []float32{1.0, -1.0, 0.5, 0.5}
	mono := mixToMono(stereo, 2)
	if len(mono) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(mono))
	}
	if mono[0] != 0 {
		t.Errorf("expected channel average 0, got %v", mono[0])
	}
	if mono[1] != 0.5 {
		t.Errorf("expected channel average 0.5, got %v", mono[1])
	}
}

func TestResamplerOnFrame(t *testing.T) {
	r := NewResampler()
	f := Frame{
		SourceID:   "mic",
		Timestamp:  1.0,
		SampleRate: 44100,
		Channels:   2,
		Samples:    make([]float32, 44100*2),
	}
	out, err := r.OnFrame(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SampleRate != TargetSampleRate || out.Channels != TargetChannels {
		t.Fatalf("expected canonical format, got rate=%d channels=%d", out.SampleRate, out.Channels)
	}
	if out.SourceID != f.SourceID || out.Timestamp != f.Timestamp {
		t.Errorf("identity fields not preserved")
	}
}

func TestResamplerOnMarkerRewritesStart(t *testing.T) {
	r := NewResampler()
	m := StartMarker(44100, 2, 1024)
	out := r.OnMarker(m)
	if out.SampleRate != TargetSampleRate || out.Channels != TargetChannels {
		t.Fatalf("expected rewritten start marker, got %+v", out)
	}
}

func TestResamplerOnMarkerPassesThroughStop(t *testing.T) {
	r := NewResampler()
	out := r.OnMarker(StopMarker())
	if out.Kind != MarkerStop {
		t.Fatalf("expected stop marker unchanged, got %+v", out)
	}
}
