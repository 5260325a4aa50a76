package memory

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, dir string) []Event {
	t.Helper()
	f, err := os.Open(filepath.Join(dir, journalRelPath))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func TestAppendStampsIDAndDefaults(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "sess-1", "proj-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if err := j.Append(Event{Source: SourceManual, EventType: EventSummary, Text: "hi"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got := readEvents(t, dir)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	ev := got[0]
	if ev.EventID == "" {
		t.Error("expected event_id to be stamped")
	}
	if ev.SessionID != "sess-1" || ev.ProjectID != "proj-1" {
		t.Errorf("got session=%q project=%q", ev.SessionID, ev.ProjectID)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected ts to be stamped")
	}
	if ev.RetrievalState != StateEligible {
		t.Errorf("expected default retrieval_state eligible, got %q", ev.RetrievalState)
	}
}

func TestVoiceTranscriptConvenienceConstructor(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "s", "p")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	j.VoiceTranscript("run the tests", "voice")

	got := readEvents(t, dir)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].EventType != EventVoiceTranscript || got[0].Source != SourceVoiceCapture {
		t.Errorf("got %+v", got[0])
	}
	if got[0].Text != "run the tests" {
		t.Errorf("got text %q", got[0].Text)
	}
}

func TestCommandIntentConvenienceConstructor(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "s", "p")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	j.CommandIntent("Error: file not found")

	got := readEvents(t, dir)
	if len(got) != 1 || got[0].EventType != EventCommandIntent {
		t.Fatalf("got %+v", got)
	}
}

func TestMultipleAppendsAreOrderedLines(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "s", "p")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	j.VoiceTranscript("first", "voice")
	j.InputSubmitted("second")
	j.CommandIntent("third")

	got := readEvents(t, dir)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Text != "first" || got[1].Text != "second" || got[2].Text != "third" {
		t.Fatalf("got out-of-order events: %+v", got)
	}
}

func TestNopJournalDiscardsSilently(t *testing.T) {
	j := Nop()
	j.VoiceTranscript("anything", "voice")
	j.InputSubmitted("anything")
	j.CommandIntent("anything")
	if err := j.Close(); err != nil {
		t.Fatalf("expected nil close error on Nop journal, got %v", err)
	}
}

func TestOpenCreatesNestedDotVoicetermDir(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir, "s", "p")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()

	if _, err := os.Stat(filepath.Join(dir, ".voiceterm")); err != nil {
		t.Fatalf("expected .voiceterm dir to exist: %v", err)
	}
}
