package vad

import "testing"

func loudWindow() []float32 {
	w := make([]float32, WindowSamples)
	for i := range w {
		w[i] = 0.9
	}
	return w
}

func quietWindow() []float32 {
	return make([]float32, WindowSamples)
}

func TestEnergyClassifierConfirmsAfterMinFrames(t *testing.T) {
	c := NewEnergyClassifier(0.1, 3)

	r, _ := c.Classify(loudWindow())
	if r.Start {
		t.Fatal("expected no start on first loud frame")
	}
	r, _ = c.Classify(loudWindow())
	if r.Start {
		t.Fatal("expected no start on second loud frame")
	}
	r, _ = c.Classify(loudWindow())
	if !r.Start {
		t.Fatal("expected start confirmed on third consecutive loud frame")
	}
}

func TestEnergyClassifierEndsOnSilence(t *testing.T) {
	c := NewEnergyClassifier(0.1, 1)
	r, _ := c.Classify(loudWindow())
	if !r.Start {
		t.Fatal("expected immediate start with minConfirmed=1")
	}
	r, _ = c.Classify(quietWindow())
	if !r.End {
		t.Fatal("expected end on silence after speech")
	}
}

func TestEnergyClassifierResetClearsState(t *testing.T) {
	c := NewEnergyClassifier(0.1, 1)
	c.Classify(loudWindow())
	c.Reset()
	r, _ := c.Classify(quietWindow())
	if r.End {
		t.Fatal("expected no end marker after reset cleared speaking state")
	}
}
