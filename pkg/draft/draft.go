// Package draft assembles incoming transcribed text into drafts delimited
// by fuzzy-matched spoken start/end command phrases.
package draft

// TextMark identifies a matched span of working text.
type TextMark struct {
	Start int // inclusive character offset into working_text
	End   int // exclusive
	Text  string
}

// Draft is one open or closed span of dictated text between a start and
// end command phrase.
type Draft struct {
	DraftID       string
	ParentDraftID string // empty when there is no previous draft in the session
	StartMark     TextMark
	EndMark       *TextMark // nil while open
	FullText      string
	Timestamp     float64
}

// EventKind distinguishes DraftStart from DraftEnd.
type EventKind int

const (
	DraftStart EventKind = iota
	DraftEnd
)

// Event is emitted on every draft open/close.
type Event struct {
	Kind  EventKind
	Draft Draft
}
