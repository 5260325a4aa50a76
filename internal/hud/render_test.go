package hud

import (
	"strings"
	"testing"

	"voiceterm/internal/style"
)

func TestRenderFullProducesNonEmptyFramedOutput(t *testing.T) {
	colors := style.Resolve(style.BuiltIn(style.ThemeCoral))
	st := State{Mode: ModeFull, StatusLine: "ready"}
	out, positions := Render(st, colors, 100)
	if out == "" {
		t.Fatal("expected non-empty render")
	}
	if len(positions) == 0 {
		t.Fatal("expected button hitboxes in full mode")
	}
	if !strings.Contains(out, colors.Borders.TopLeft) {
		t.Fatalf("expected border glyphs in output, got %q", out)
	}
}

func TestRenderMinimalFitsWidth(t *testing.T) {
	colors := style.Resolve(style.BuiltIn(style.ThemeCoral))
	st := State{Mode: ModeMinimal, StatusLine: "listening"}
	out, _ := Render(st, colors, 30)
	if lipglossDisplayWidth(out) > 30 {
		t.Fatalf("expected output truncated to width 30, got width %d (%q)", lipglossDisplayWidth(out), out)
	}
}

func TestRenderHiddenEmptyWhileRecording(t *testing.T) {
	colors := style.Resolve(style.BuiltIn(style.ThemeCoral))
	st := State{Mode: ModeHidden, RecordingState: RecordingRecording}
	out, positions := Render(st, colors, 80)
	if out != "" || positions != nil {
		t.Fatalf("expected hidden mode to render nothing while recording, got %q / %+v", out, positions)
	}
}

func TestRenderHiddenShowsLauncherWhileIdle(t *testing.T) {
	colors := style.Resolve(style.BuiltIn(style.ThemeCoral))
	st := State{Mode: ModeHidden, RecordingState: RecordingIdle}
	out, _ := Render(st, colors, 80)
	if !strings.Contains(out, "[open]") {
		t.Fatalf("expected [open] launcher, got %q", out)
	}
}

func TestMeterTextShowsPlaceholderWithoutSample(t *testing.T) {
	if got := meterText(State{}); got != "--dB" {
		t.Fatalf("got %q", got)
	}
}
