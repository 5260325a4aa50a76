package prompttracker

import (
	"regexp"
	"testing"
	"time"
)

func newTestTracker() *Tracker {
	promptRe := regexp.MustCompile(`\$\s*$`)
	return New(promptRe, false, GenericApprovalProfile)
}

func TestReadyToInjectAfterPromptStabilizes(t *testing.T) {
	tr := newTestTracker()
	base := time.Now()

	tr.FeedOutput(base, []byte("hello\n"))
	tr.FeedOutput(base.Add(5*time.Millisecond), []byte("$ "))

	// Immediately after the match: not yet stabilized.
	if tr.ReadyToInject(base.Add(6*time.Millisecond), 0, 10*time.Millisecond) {
		t.Fatal("expected not ready immediately after prompt match")
	}

	// After stabilize epsilon and write-idle window: ready.
	later := base.Add(100 * time.Millisecond)
	if !tr.ReadyToInject(later, 0, 10*time.Millisecond) {
		t.Fatal("expected ready once prompt has stabilized and output is idle")
	}
}

func TestReadyToInjectFalseWithoutAnyMatch(t *testing.T) {
	tr := newTestTracker()
	if tr.ReadyToInject(time.Now(), 0, 0) {
		t.Fatal("expected not ready before any prompt match")
	}
}

func TestEnterIdleGating(t *testing.T) {
	tr := newTestTracker()
	base := time.Now()
	tr.FeedOutput(base, []byte("$ "))
	tr.NoteEnter(base.Add(10 * time.Millisecond))

	at := base.Add(50 * time.Millisecond)
	if tr.ReadyToInject(at, 100*time.Millisecond, 0) {
		t.Fatal("expected not ready: enter was too recent")
	}
	at2 := base.Add(500 * time.Millisecond)
	if !tr.ReadyToInject(at2, 100*time.Millisecond, 0) {
		t.Fatal("expected ready once enter_idle window has passed")
	}
}

func TestOcclusionBlocksDelivery(t *testing.T) {
	tr := newTestTracker()
	base := time.Now()
	tr.FeedOutput(base, []byte("$ "))
	// Move the detector out of StartupGuard into Idle before arming it.
	tr.occlusion.state = OcclusionIdle

	tr.FeedOutput(base.Add(10*time.Millisecond), []byte("approval required"))
	if tr.occlusion.State() != OcclusionArmed {
		t.Fatalf("expected Armed, got %v", tr.occlusion.State())
	}

	at := base.Add(100 * time.Millisecond)
	if tr.ReadyToInject(at, 0, 0) {
		t.Fatal("expected ready_to_inject false while occlusion armed")
	}

	tr.FeedOutput(base.Add(110*time.Millisecond), []byte("approved"))
	if tr.occlusion.State() != OcclusionStickyHold {
		t.Fatalf("expected StickyHold, got %v", tr.occlusion.State())
	}
	if tr.ReadyToInject(base.Add(120*time.Millisecond), 0, 0) {
		t.Fatal("expected ready_to_inject false during StickyHold")
	}

	afterHold := base.Add(110*time.Millisecond + GenericApprovalProfile.StickyHoldWindow + time.Millisecond)
	tr.FeedOutput(afterHold, []byte("$ "))
	if tr.occlusion.State() != OcclusionIdle {
		t.Fatalf("expected Idle after StickyHold window elapses, got %v", tr.occlusion.State())
	}
}

func TestGatingMonotoneUntilIdleElapses(t *testing.T) {
	tr := newTestTracker()
	base := time.Now()
	tr.FeedOutput(base, []byte("$ "))
	tr.FeedOutput(base.Add(200*time.Millisecond), []byte("still working...\n"))

	writeIdle := 50 * time.Millisecond
	// Right after new output: not ready.
	if tr.ReadyToInject(base.Add(210*time.Millisecond), 0, writeIdle) {
		t.Fatal("expected not ready right after fresh output")
	}
	// Still within the idle window: still not ready.
	if tr.ReadyToInject(base.Add(240*time.Millisecond), 0, writeIdle) {
		t.Fatal("expected not ready before write_idle elapses")
	}
	// Past idle window: ready again.
	if !tr.ReadyToInject(base.Add(260*time.Millisecond), 0, writeIdle) {
		t.Fatal("expected ready once write_idle has elapsed with no new output")
	}
}

func TestLearnPromotesAfterThreshold(t *testing.T) {
	tr := newTestTracker()
	tr.allowAutoLearn = true

	for i := 0; i < learnMatchThreshold-1; i++ {
		tr.Learn("custom-prompt>")
	}
	if tr.matchesAnyPrompt("custom-prompt>") {
		t.Fatal("expected no promotion before threshold")
	}
	tr.Learn("custom-prompt>")
	if !tr.matchesAnyPrompt("custom-prompt>") {
		t.Fatal("expected promotion at threshold")
	}
}

func TestLastErrorLineTracksErrorHeuristics(t *testing.T) {
	tr := newTestTracker()
	tr.FeedOutput(time.Now(), []byte("build ok\nerror: something broke\n"))
	if tr.LastErrorLine() != "error: something broke" {
		t.Fatalf("got %q", tr.LastErrorLine())
	}
}
