package draft

import (
	"strings"
	"testing"
)

func collect() (*[]Event, func(Event)) {
	var events []Event
	return &events, func(e Event) { events = append(events, e) }
}

func TestAssemblerSingleDraft(t *testing.T) {
	events, record := collect()
	a := New([]string{"freddy take this down"}, []string{"freddy break break"}, 0, record)

	a.Ingest([]string{"Freddy, take this down okay here's the text in the body and some more Freddy break break"}, 1)

	if len(*events) != 2 {
		t.Fatalf("expected DraftStart+DraftEnd, got %d events", len(*events))
	}
	start, end := (*events)[0], (*events)[1]
	if start.Kind != DraftStart || end.Kind != DraftEnd {
		t.Fatalf("expected Start then End, got %v then %v", start.Kind, end.Kind)
	}
	if end.Draft.FullText != "okay here's the text in the body and some more" {
		t.Errorf("unexpected full_text: %q", end.Draft.FullText)
	}
	if start.Draft.StartMark.Text != "Freddy, take this down" {
		t.Errorf("unexpected start_mark text: %q", start.Draft.StartMark.Text)
	}
	if end.Draft.EndMark.Text != "Freddy break break" {
		t.Errorf("unexpected end_mark text: %q", end.Draft.EndMark.Text)
	}
}

func TestAssemblerTwoDraftsInOneEvent(t *testing.T) {
	events, record := collect()
	a := New([]string{"freddy take this down"}, []string{"freddy break break"}, 0, record)

	a.Ingest([]string{"Freddy take this down! Here is body one. Freddy break break! Freddy Take this down. This is body two. Freddy break break."}, 1)

	var ends []Draft
	for _, e := range *events {
		if e.Kind == DraftEnd {
			ends = append(ends, e.Draft)
		}
	}
	if len(ends) != 2 {
		t.Fatalf("expected 2 closed drafts, got %d", len(ends))
	}
	if ends[0].FullText != "Here is body one." {
		t.Errorf("unexpected first full_text: %q", ends[0].FullText)
	}
	if ends[1].FullText != "This is body two." {
		t.Errorf("unexpected second full_text: %q", ends[1].FullText)
	}
	if ends[1].ParentDraftID != ends[0].DraftID {
		t.Errorf("expected second draft's parent to be the first draft's id")
	}
}

func TestAssemblerLastDraftUnclosedOnEndOfInput(t *testing.T) {
	events, record := collect()
	a := New([]string{"freddy take this down"}, []string{"freddy break break"}, 0, record)

	a.Ingest([]string{"Freddy take this down. First body. Freddy break break."}, 1)
	a.Ingest([]string{"Freddy take this down. Second body."}, 2)
	a.EndOfInput()

	var ends []Draft
	for _, e := range *events {
		if e.Kind == DraftEnd {
			ends = append(ends, e.Draft)
		}
	}
	if len(ends) != 2 {
		t.Fatalf("expected 2 DraftEnd events (one explicit, one synthesized), got %d", len(ends))
	}
	last := ends[1]
	if last.EndMark.Text != "" {
		t.Errorf("expected synthesized empty end_mark text, got %q", last.EndMark.Text)
	}
	if last.FullText != "Second body." {
		t.Errorf("unexpected trailing full_text: %q", last.FullText)
	}
}

// TestAssemblerStartPatternImplicitlyClosesOpenDraft covers the three-draft,
// last-unclosed scenario: a start phrase occurring while a draft is open
// implicitly closes that draft (rather than being ignored as plain text)
// and opens the next one, so three start phrases with only one explicit
// end phrase still yield three drafts.
func TestAssemblerStartPatternImplicitlyClosesOpenDraft(t *testing.T) {
	events, record := collect()
	a := New([]string{"freddy take this down"}, []string{"freddy break break"}, 0, record)

	a.Ingest([]string{"Freddy take this down and here is some more stuff freddy break break break. Freddy take this down. Oh good. Freddy Take this down foo bar"}, 1)
	a.EndOfInput()

	var starts int
	var ends []Draft
	for _, e := range *events {
		switch e.Kind {
		case DraftStart:
			starts++
		case DraftEnd:
			ends = append(ends, e.Draft)
		}
	}
	if starts != 3 {
		t.Fatalf("expected three DraftStart events, got %d", starts)
	}
	if len(ends) != 3 {
		t.Fatalf("expected three DraftEnd events (two implicit/explicit closes, one synthesized), got %d", len(ends))
	}
	last := ends[2]
	if last.EndMark.Text != "" {
		t.Errorf("expected synthesized empty end_mark text on the last draft, got %q", last.EndMark.Text)
	}
	if strings.TrimSpace(last.FullText) != "foo bar" {
		t.Errorf("unexpected third draft full_text: %q", last.FullText)
	}
}

func TestAssemblerIdempotentReplay(t *testing.T) {
	run := func() []string {
		events, record := collect()
		a := New([]string{"freddy take this down"}, []string{"freddy break break"}, 0, record)
		a.Ingest([]string{"Freddy take this down. Body text here. Freddy break break."}, 1)

		var texts []string
		for _, e := range *events {
			texts = append(texts, e.Draft.FullText)
		}
		return texts
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("expected same event count across replays, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("replay diverged at event %d: %q != %q", i, first[i], second[i])
		}
	}
}

func TestAssemblerTieBreakPrefersDeclarationOrder(t *testing.T) {
	events, record := collect()
	a := New([]string{"begin now", "start now"}, []string{"stop now"}, 0.99, record)

	a.Ingest([]string{"random filler begin now start now content here stop now"}, 1)

	if len(*events) == 0 || (*events)[0].Kind != DraftStart {
		t.Fatal("expected a DraftStart")
	}

	// "now start" and "start now" both score 1.0 on the span "start now"
	// (token overlap ignores order); the first declared must win.
	res, ok := newMatcher(0.99).find("start now", []string{"now start", "start now"})
	if !ok || res.PatternIdx != 0 {
		t.Errorf("expected the first declared pattern to win the tie, got ok=%v %+v", ok, res)
	}
}
