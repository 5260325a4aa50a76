package inputreader

import (
	"testing"
	"time"
)

func TestClassifyPlainBytes(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour) // outside burst window
	buf := []byte("ab")
	events := c.Feed(buf, len(buf), nil)
	if len(events) != 2 || events[0].Kind != EventBytes || events[1].Kind != EventBytes {
		t.Fatalf("got %+v", events)
	}
}

func TestClassifyEnter(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	events := c.Feed([]byte{'\r'}, 1, nil)
	if len(events) != 1 || events[0].Kind != EventEnter {
		t.Fatalf("got %+v", events)
	}
}

func TestClassifyArrowCSI(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	buf := []byte{0x1B, '[', 'A'}
	events := c.Feed(buf, len(buf), nil)
	if len(events) != 1 || events[0].Kind != EventArrow || events[0].Arrow != ArrowUp {
		t.Fatalf("got %+v", events)
	}
}

func TestClassifyArrowSS3(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	buf := []byte{0x1B, 'O', 'D'}
	events := c.Feed(buf, len(buf), nil)
	if len(events) != 1 || events[0].Kind != EventArrow || events[0].Arrow != ArrowLeft {
		t.Fatalf("got %+v", events)
	}
}

func TestClassifySGRMouse(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	buf := []byte("\x1B[<0;10;5M")
	events := c.Feed(buf, len(buf), nil)
	if len(events) != 1 || events[0].Kind != EventMouse {
		t.Fatalf("got %+v", events)
	}
	m := events[0].Mouse
	if m.Button != 0 || m.Col != 10 || m.Row != 5 || !m.Pressed {
		t.Fatalf("got %+v", m)
	}
}

func TestClassifySGRMouseRelease(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	buf := []byte("\x1B[<0;10;5m")
	events := c.Feed(buf, len(buf), nil)
	if len(events) != 1 || events[0].Mouse.Pressed {
		t.Fatalf("expected release event, got %+v", events[0])
	}
}

func TestClassifyIncompleteEscapeBuffersAcrossFeeds(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	events := c.Feed([]byte{0x1B, '['}, 2, nil)
	if len(events) != 0 {
		t.Fatalf("expected no events yet, got %+v", events)
	}
	events = c.Feed([]byte{'A'}, 1, events)
	if len(events) != 1 || events[0].Kind != EventArrow {
		t.Fatalf("got %+v", events)
	}
}

func TestLoneEscapeSwallowedDuringStartupBurst(t *testing.T) {
	c := NewClassifier() // startedAt = now, inside burst window
	events := c.Feed([]byte{0x1B}, 1, nil)
	events = c.Feed([]byte{'x'}, 1, events)
	for _, e := range events {
		if e.Kind == EventEscape {
			t.Fatalf("expected lone ESC to be swallowed in burst window, got %+v", events)
		}
	}
}

func TestLoneEscapePassesThroughAfterBurstWindow(t *testing.T) {
	c := NewClassifier()
	c.startedAt = time.Now().Add(-time.Hour)
	events := c.Feed([]byte{0x1B}, 1, nil)
	events = c.Feed([]byte{'x'}, 1, events)
	foundEscape := false
	for _, e := range events {
		if e.Kind == EventEscape {
			foundEscape = true
		}
	}
	if !foundEscape {
		t.Fatalf("expected real ESC after burst window, got %+v", events)
	}
}
