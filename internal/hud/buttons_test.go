package hud

import "testing"

func TestGetButtonPositionsEmptyWhenPromptSuppressed(t *testing.T) {
	st := State{Mode: ModeFull, PromptSuppressed: true}
	if got := GetButtonPositions(st, 120); got != nil {
		t.Fatalf("expected no hitboxes, got %+v", got)
	}
}

func TestGetButtonPositionsFullModeBelowCompactBreakpointReturnsNone(t *testing.T) {
	st := State{Mode: ModeFull}
	if got := GetButtonPositions(st, compactBreakpoint-1); got != nil {
		t.Fatalf("expected no hitboxes below breakpoint, got %+v", got)
	}
}

func TestGetButtonPositionsFullRowUsesFullSeparatorWhenItFits(t *testing.T) {
	st := State{Mode: ModeFull}
	positions := GetButtonPositions(st, 200)
	if len(positions) != len(defaultButtons) {
		t.Fatalf("expected %d buttons, got %d", len(defaultButtons), len(positions))
	}
	for i, p := range positions {
		if p.Action != defaultButtons[i].action {
			t.Errorf("position %d: got action %v, want %v", i, p.Action, defaultButtons[i].action)
		}
	}
}

func TestGetButtonPositionsCompactSubsetDropsHudToggle(t *testing.T) {
	row, positions := formatButtonRow(10, 1)
	if len(positions) != len(compactButtonIndices) {
		t.Fatalf("expected %d compact buttons, got %d (%q)", len(compactButtonIndices), len(positions), row)
	}
	for _, p := range positions {
		if p.Action == ActionToggleHudMode {
			t.Fatal("expected 'hud' button dropped in compact mode")
		}
	}
}

func TestGetButtonPositionsHitboxesAreDisjoint(t *testing.T) {
	st := State{Mode: ModeFull}
	positions := GetButtonPositions(st, 200)
	for i := range positions {
		for j := range positions {
			if i == j {
				continue
			}
			a, b := positions[i], positions[j]
			if a.Row != b.Row {
				continue
			}
			if a.StartX < b.EndX && b.StartX < a.EndX {
				t.Fatalf("overlapping hitboxes: %+v and %+v", a, b)
			}
		}
	}
}

func TestGetButtonPositionsHiddenModeOnlyWhileIdle(t *testing.T) {
	st := State{Mode: ModeHidden, RecordingState: RecordingRecording}
	if got := GetButtonPositions(st, 80); got != nil {
		t.Fatalf("expected no launcher while recording, got %+v", got)
	}
	st.RecordingState = RecordingIdle
	if got := GetButtonPositions(st, 80); len(got) == 0 {
		t.Fatal("expected an [open] launcher while idle")
	}
}

func TestGetButtonPositionsMinimalModeExposesBackButton(t *testing.T) {
	st := State{Mode: ModeMinimal}
	positions := GetButtonPositions(st, 80)
	if len(positions) != 1 {
		t.Fatalf("expected exactly one minimal-mode button, got %+v", positions)
	}
}
