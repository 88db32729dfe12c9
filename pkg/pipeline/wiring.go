package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/lokutor-ai/lokutor-dictation/pkg/audio"
	"github.com/lokutor-ai/lokutor-dictation/pkg/draft"
	"github.com/lokutor-ai/lokutor-dictation/pkg/eventbus"
	"github.com/lokutor-ai/lokutor-dictation/pkg/scan"
	"github.com/lokutor-ai/lokutor-dictation/pkg/store"
	"github.com/lokutor-ai/lokutor-dictation/pkg/transcribe"
	"github.com/lokutor-ai/lokutor-dictation/pkg/vad"
)

// onRawFrame is the Source sink's Frame callback: resample, then forward
// into the VAD gate.
func (p *Pipeline) onRawFrame(f audio.Frame) {
	rf, err := p.resampler.OnFrame(f)
	if err != nil {
		p.reportFatal(fmt.Errorf("resampler: %w", err))
		return
	}
	atomic.AddInt64(&p.counters.framesIn, 1)
	p.gate.Process(rf)
}

// onRawMarker is the Source sink's Marker callback.
func (p *Pipeline) onRawMarker(m audio.Marker) {
	rm := p.resampler.OnMarker(m)
	switch rm.Kind {
	case audio.MarkerStart:
		p.publish(eventbus.ClassAudioStart, map[string]interface{}{
			"sample_rate": rm.SampleRate,
			"channels":    rm.Channels,
		})
	case audio.MarkerStop:
		p.gate.OnStop()
		p.publish(eventbus.ClassAudioStop, map[string]interface{}{})
	case audio.MarkerError:
		p.publish(eventbus.ClassAudioError, map[string]interface{}{"message": rm.Message})
	}
}

// onSpeechFrame is VadGate's onFrame callback: every frame, stamped with
// in_speech, is fed to the pre-roll ring and published as an AudioChunk
// event; frames with in_speech set are also fed to the scan buffer.
func (p *Pipeline) onSpeechFrame(f audio.Frame) {
	p.ring.Push(f, f.Timestamp)
	if f.InSpeech {
		if w, ok := p.scanBuf.Push(f); ok {
			p.submitWindow(w)
		}
	}
	p.publish(eventbus.ClassAudioChunk, map[string]interface{}{
		"samples":   f.Samples,
		"in_speech": f.InSpeech,
		"timestamp": f.Timestamp,
	})
}

// onSpeechMarker is VadGate's onMarker callback for SpeechStart/SpeechStop
// boundaries.
func (p *Pipeline) onSpeechMarker(m vad.SpeechMarker) {
	switch m.Kind {
	case vad.SpeechStart:
		pre := p.ring.DrainFrom(m.SpeechStartTime - p.cfg.PreBufferSeconds)
		p.scanBuf.Seed(pre)
		p.publish(eventbus.ClassAudioSpeechStart, map[string]interface{}{
			"speech_start_time": m.SpeechStartTime,
		})
	case vad.SpeechStop:
		if w, ok := p.scanBuf.Flush(); ok {
			p.submitWindow(w)
		}
		p.publish(eventbus.ClassAudioSpeechStop, map[string]interface{}{
			"last_speech_frame_time": m.LastSpeechFrameTime,
		})
	}
}

func (p *Pipeline) submitWindow(w scan.Window) {
	atomic.AddInt64(&p.counters.windowsOut, 1)
	p.pool.Submit(transcribe.AudioWindow{
		Samples:    w.Samples,
		SampleRate: w.SampleRate,
		Channels:   w.Channels,
		StartTime:  w.StartTime,
		EndTime:    w.EndTime,
		SourceID:   w.SourceID,
	})
}

// drainTranscripts feeds ordered TextEvents into the assembler and
// publishes them as Text events.
func (p *Pipeline) drainTranscripts(ctx context.Context) {
	defer p.workerDone.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case te, ok := <-p.pool.Out():
			if !ok {
				return
			}
			texts := make([]string, len(te.Segments))
			for i, seg := range te.Segments {
				texts[i] = seg.Text
			}
			p.assembler.Ingest(texts, te.Timestamp)
			p.publish(eventbus.ClassText, te)
		}
	}
}

func (p *Pipeline) drainSoftErrors(ctx context.Context) {
	defer p.workerDone.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-p.pool.SoftErrors():
			if !ok {
				return
			}
			atomic.AddInt64(&p.counters.softErrors, 1)
			p.log.Warn("pipeline: transcriber soft error", "error", err)
		}
	}
}

const draftClassName = "dictation_draft"

// onDraftEvent is the Assembler's onEvent callback: persists closed drafts
// and publishes DraftStart/DraftEnd to the bus.
func (p *Pipeline) onDraftEvent(e draft.Event) {
	switch e.Kind {
	case draft.DraftStart:
		atomic.AddInt64(&p.counters.draftsOpen, 1)
		p.publish(eventbus.ClassDraftStart, draftPayload(e.Draft))

	case draft.DraftEnd:
		atomic.AddInt64(&p.counters.draftsClosed, 1)
		if p.draftDB != nil {
			rec := toDraftRecord(e.Draft)
			if err := p.draftDB.Put(context.Background(), rec); err != nil {
				p.log.Error("pipeline: store draft failed", "error", err, "draft_id", rec.DraftID)
				p.reportFatal(fmt.Errorf("store: %w", err))
			}
		}
		p.publish(eventbus.ClassDraftEnd, draftPayload(e.Draft))
	}
}

func toDraftRecord(d draft.Draft) store.DraftRecord {
	rec := store.DraftRecord{
		DraftID:   d.DraftID,
		Timestamp: d.Timestamp,
		StartText: d.StartMark.Text,
		FullText:  d.FullText,
		ClassName: draftClassName,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if d.EndMark != nil {
		rec.EndText = &d.EndMark.Text
	}
	if d.ParentDraftID != "" {
		rec.ParentDraftID = &d.ParentDraftID
	}
	return rec
}

func draftPayload(d draft.Draft) map[string]interface{} {
	payload := map[string]interface{}{
		"draft_id":   d.DraftID,
		"timestamp":  d.Timestamp,
		"start_text": d.StartMark.Text,
		"full_text":  d.FullText,
	}
	if d.ParentDraftID != "" {
		payload["parent_draft_id"] = d.ParentDraftID
	}
	if d.EndMark != nil {
		payload["end_text"] = d.EndMark.Text
	}
	return payload
}

func (p *Pipeline) publish(class string, payload interface{}) {
	p.bus.Publish(eventbus.Event{
		Class:     class,
		EventID:   newEventID(),
		Timestamp: nowSeconds(),
		SourceID:  p.sourceID,
		Payload:   payload,
	})
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
