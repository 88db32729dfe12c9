package vad

import (
	"testing"

	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
)

func frameAt(ts, dur float64) audio.Frame {
	return audio.Frame{Timestamp: ts, Duration: dur}
}

func TestRingDrainFrom(t *testing.T) {
	r := NewRing(10)
	r.Push(frameAt(0, 0.1), 0)
	r.Push(frameAt(1, 0.1), 1)
	r.Push(frameAt(2, 0.1), 2)

	out := r.DrainFrom(1)
	if len(out) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(out))
	}
	if out[0].Timestamp != 1 || out[1].Timestamp != 2 {
		t.Fatalf("unexpected frames: %+v", out)
	}
}

func TestRingEvictsOldFrames(t *testing.T) {
	r := NewRing(2) // 2s retention
	r.Push(frameAt(0, 0.1), 0)
	r.Push(frameAt(5, 0.1), 5) // now=5, cut=3, frame at 0 should be evicted

	out := r.DrainFrom(0)
	if len(out) != 1 {
		t.Fatalf("expected eviction of old frame, got %d frames", len(out))
	}
	if out[0].Timestamp != 5 {
		t.Errorf("expected remaining frame at t=5, got %v", out[0].Timestamp)
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing(10)
	r.Push(frameAt(0, 0.1), 0)
	r.Clear()
	if len(r.DrainFrom(0)) != 0 {
		t.Error("expected empty ring after Clear")
	}
}
