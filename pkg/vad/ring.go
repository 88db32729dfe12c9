package vad

import "github.com/lokutor-ai/lokutor-dictation/pkg/audio"

// Ring is a bounded, timestamp-keyed FIFO of recent frames retained for
// retention seconds. VadGate is the sole producer; ScanBuffer is the sole
// consumer (spec §5: single-producer/single-consumer).
type Ring struct {
	retention float64
	frames    []audio.Frame
}

func NewRing(retentionSeconds float64) *Ring {
	return &Ring{retention: retentionSeconds}
}

// Push appends a frame and evicts any frame whose coverage has fully aged
// out of the retention window.
func (r *Ring) Push(f audio.Frame, now float64) {
	r.frames = append(r.frames, f)
	r.evict(now)
}

func (r *Ring) evict(now float64) {
	cut := now - r.retention
	i := 0
	for i < len(r.frames) && r.frames[i].Timestamp+r.frames[i].Duration < cut {
		i++
	}
	if i > 0 {
		r.frames = append([]audio.Frame(nil), r.frames[i:]...)
	}
}

// DrainFrom returns all retained frames with Timestamp >= t, in insertion
// (i.e. chronological) order.
func (r *Ring) DrainFrom(t float64) []audio.Frame {
	out := make([]audio.Frame, 0, len(r.frames))
	for _, f := range r.frames {
		if f.Timestamp >= t {
			out = append(out, f)
		}
	}
	return out
}

func (r *Ring) Clear() {
	r.frames = nil
}
