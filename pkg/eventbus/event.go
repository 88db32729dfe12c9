// Package eventbus serializes the pipeline's typed events and fans them
// out to subscribers filtered by event-class set.
package eventbus

import "encoding/json"

// Known event classes, the fixed set a client may subscribe to.
const (
	ClassAudioStart       = "AudioStart"
	ClassAudioStop        = "AudioStop"
	ClassAudioChunk       = "AudioChunk"
	ClassAudioSpeechStart = "AudioSpeechStart"
	ClassAudioSpeechStop  = "AudioSpeechStop"
	ClassAudioError       = "AudioError"
	ClassText             = "Text"
	ClassDraftStart       = "DraftStart"
	ClassDraftEnd         = "DraftEnd"
	ClassDraftRescan      = "DraftRescan"

	aliasAll           = "all"
	aliasAllButChunks  = "all_but_chunks"
)

var knownClasses = []string{
	ClassAudioStart, ClassAudioStop, ClassAudioChunk,
	ClassAudioSpeechStart, ClassAudioSpeechStop, ClassAudioError,
	ClassText, ClassDraftStart, ClassDraftEnd, ClassDraftRescan,
}

// Event is one envelope published on the bus. Payload is the
// event-specific body (e.g. a draft.Event, a vad.SpeechMarker); its fields
// are flattened alongside the envelope fields when serialized, per spec
// §6: "Each event carries event_class, event_id, timestamp, source_id or
// author_uri, plus event-specific fields."
type Event struct {
	Class     string
	EventID   string
	Timestamp float64
	SourceID  string
	Payload   interface{}
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
	}
	out["event_class"] = e.Class
	out["event_id"] = e.EventID
	out["timestamp"] = e.Timestamp
	if e.SourceID != "" {
		out["source_id"] = e.SourceID
	}
	return json.Marshal(out)
}
