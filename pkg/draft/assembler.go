package draft

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultThreshold is τ, the default fuzzy-match acceptance threshold.
const DefaultThreshold = 0.80

// Assembler owns the growing working text and the open/closed draft state
// machine. It is not safe for concurrent use; the pipeline drives it from
// a single goroutine fed by the Transcriber pool's ordered output.
type Assembler struct {
	startPatterns []string
	endPatterns   []string
	tau           float64
	start         *matcher
	end           *matcher

	workingText string
	scanPos     int

	current       *Draft
	prevDraftID   string
	idGen         func() string
	onEvent       func(Event)
}

// New builds an Assembler. startPatterns and endPatterns are literal
// command phrases in declaration order (used for tie-breaks). onEvent is
// invoked synchronously with every DraftStart/DraftEnd.
func New(startPatterns, endPatterns []string, tau float64, onEvent func(Event)) *Assembler {
	if tau <= 0 {
		tau = DefaultThreshold
	}
	return &Assembler{
		startPatterns: startPatterns,
		endPatterns:   endPatterns,
		tau:           tau,
		start:         newMatcher(tau),
		end:           newMatcher(tau),
		idGen:         uuid.NewString,
		onEvent:       onEvent,
	}
}

// Ingest appends one TextEvent's recognized segments to the working text
// and resumes scanning for command phrases, emitting DraftStart/DraftEnd
// events as matches are found, until no more matches are found in the
// newly available text.
func (a *Assembler) Ingest(segments []string, timestamp float64) {
	addition := strings.Join(segments, " ")
	if addition == "" {
		return
	}
	if a.workingText != "" {
		a.workingText += " "
	}
	a.workingText += addition
	a.scan(timestamp)
}

func (a *Assembler) scan(timestamp float64) {
	for {
		if a.current == nil {
			res, ok := a.start.find(a.workingText[a.scanPos:], a.startPatterns)
			if !ok {
				return
			}
			a.openDraft(offsetMark(res.Mark, a.scanPos), timestamp)
			continue
		}

		// While a draft is open, both an end match and a start match are
		// live candidates: an end match closes normally, but a start match
		// that occurs first implicitly closes the current draft at that
		// point and opens the next one, so draft N+1's start phrase also
		// serves as draft N's boundary. A tie goes to the end pattern.
		endRes, endOK := a.end.find(a.workingText[a.scanPos:], a.endPatterns)
		startRes, startOK := a.start.find(a.workingText[a.scanPos:], a.startPatterns)

		switch {
		case endOK && (!startOK || endRes.Mark.Start <= startRes.Mark.Start):
			mark := offsetMark(endRes.Mark, a.scanPos)
			a.closeDraft(mark)
			a.scanPos = mark.End
		case startOK:
			mark := offsetMark(startRes.Mark, a.scanPos)
			a.closeDraft(TextMark{Start: mark.Start, End: mark.Start})
			a.openDraft(mark, timestamp)
		default:
			return
		}
	}
}

func (a *Assembler) openDraft(mark TextMark, timestamp float64) {
	a.current = &Draft{
		DraftID:       a.idGen(),
		ParentDraftID: a.prevDraftID,
		StartMark:     mark,
		Timestamp:     timestamp,
	}
	a.scanPos = mark.End
	a.emit(DraftStart, *a.current)
}

// EndOfInput closes any still-open draft with an empty end mark at the
// tail of the working text.
func (a *Assembler) EndOfInput() {
	if a.current == nil {
		return
	}
	n := len(a.workingText)
	a.closeDraft(TextMark{Start: n, End: n, Text: ""})
}

func (a *Assembler) closeDraft(end TextMark) {
	full := strings.TrimSpace(a.workingText[a.current.StartMark.End:end.Start])
	a.current.EndMark = &end
	a.current.FullText = full
	a.prevDraftID = a.current.DraftID
	closed := *a.current
	a.current = nil
	a.emit(DraftEnd, closed)
}

func (a *Assembler) emit(kind EventKind, d Draft) {
	if a.onEvent != nil {
		a.onEvent(Event{Kind: kind, Draft: d})
	}
}

func offsetMark(m TextMark, offset int) TextMark {
	return TextMark{Start: m.Start + offset, End: m.End + offset, Text: m.Text}
}
