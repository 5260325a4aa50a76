package eventloop

import (
	"context"
	"regexp"
	"testing"
	"time"

	"voiceterm/internal/hud"
	"voiceterm/internal/inputreader"
	"voiceterm/internal/overlay"
	"voiceterm/internal/prompttracker"
	"voiceterm/internal/toast"
	"voiceterm/internal/transcript"
	"voiceterm/internal/voice"
	"voiceterm/internal/writer"
)

// fakeWriter collects every chunk written, signaling on a channel so tests
// don't need to sleep-and-hope against the writer's own goroutine.
type fakeWriter struct {
	got chan []byte
}

func newFakeWriter() *fakeWriter { return &fakeWriter{got: make(chan []byte, 16)} }

func (f *fakeWriter) Write(p []byte) (int, error) {
	cp := append([]byte(nil), p...)
	f.got <- cp
	return len(p), nil
}

func (f *fakeWriter) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-f.got:
		if string(got) != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for writer output")
	}
}

type fakePTYWriter struct {
	written [][]byte
	block   bool
}

func (f *fakePTYWriter) TryWrite(p []byte) (int, bool, error) {
	if f.block {
		return 0, true, nil
	}
	f.written = append(f.written, append([]byte(nil), p...))
	return len(p), false, nil
}

func newTestLoop() (*Loop, *toast.Center, *transcript.Queue, *prompttracker.Tracker, *hud.State, *overlay.Overlay) {
	toasts := toast.NewCenter()
	tq := transcript.NewQueue()
	tracker := prompttracker.New(nil, false, prompttracker.BackendProfile{})
	st := &hud.State{}
	ov := &overlay.Overlay{}
	l := New(Config{
		Transcript: tq,
		Tracker:    tracker,
		Toasts:     toasts,
		HUDState:   st,
		Overlay:    ov,
	})
	return l, toasts, tq, tracker, st, ov
}

func TestHandlePTYOutputForwardsWhenOverlayClosed(t *testing.T) {
	l, _, _, _, _, _ := newTestLoop()
	fw := newFakeWriter()
	l.cfg.Writer = writer.New(fw)
	defer l.cfg.Writer.Close()

	l.handlePTYOutput([]byte("hello"))
	fw.expect(t, "hello")
}

func TestHandlePTYOutputBuffersWhenOverlayOpen(t *testing.T) {
	l, _, _, _, _, ov := newTestLoop()
	fw := newFakeWriter()
	l.cfg.Writer = writer.New(fw)
	defer l.cfg.Writer.Close()

	ov.Open(overlay.VariantHelp, 0, 0)
	l.handlePTYOutput([]byte("occluded"))

	select {
	case got := <-fw.got:
		t.Fatalf("expected no writer output while occluded, got %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	flushed, _, _ := ov.Close(true)
	if string(flushed) != "occluded" {
		t.Fatalf("got %q", flushed)
	}
}

func TestHandleVoiceTranscriptEnqueuesAndIdles(t *testing.T) {
	l, _, tq, _, st, _ := newTestLoop()
	st.RecordingState = hud.RecordingRecording

	l.handleVoice(voice.Message{Kind: voice.MsgTranscript, Text: "run the tests", Source: "voice"})

	if tq.Len() != 1 {
		t.Fatalf("expected 1 queued transcript, got %d", tq.Len())
	}
	rec, _ := tq.Front()
	if rec.Text != "run the tests" {
		t.Fatalf("got %q", rec.Text)
	}
	if st.RecordingState != hud.RecordingIdle {
		t.Fatal("expected recording state reset to idle")
	}
	if !l.dirty {
		t.Fatal("expected dirty flag set")
	}
}

func TestHandleVoiceEmptyPushesInfoToast(t *testing.T) {
	l, toasts, _, _, _, _ := newTestLoop()
	l.handleVoice(voice.Message{Kind: voice.MsgEmpty})
	active := toasts.Active()
	if len(active) != 1 || active[0].Severity != toast.Info {
		t.Fatalf("got %+v", active)
	}
}

func TestHandleVoiceErrorPushesErrorToast(t *testing.T) {
	l, toasts, _, _, _, _ := newTestLoop()
	l.handleVoice(voice.Message{Kind: voice.MsgError})
	active := toasts.Active()
	if len(active) != 1 || active[0].Severity != toast.Error {
		t.Fatalf("got %+v", active)
	}
}

func TestMeterThrottleSuppressesRapidUpdates(t *testing.T) {
	l, _, _, _, st, _ := newTestLoop()
	l.handleVoice(voice.Message{Kind: voice.MsgMeter, DB: -10})
	if !st.HasMeterSample || st.MeterDB != -10 {
		t.Fatalf("expected first sample applied, got %+v", st)
	}
	l.handleVoice(voice.Message{Kind: voice.MsgMeter, DB: -5})
	if st.MeterDB != -10 {
		t.Fatal("expected second rapid sample throttled away")
	}
}

func TestRunTimersClearsStatusLineAfterDeadline(t *testing.T) {
	l, _, _, _, st, _ := newTestLoop()
	l.setStatus("sent transcript")
	if st.StatusLine != "sent transcript" {
		t.Fatal("expected status line set")
	}
	l.statusClearDeadline = time.Now().Add(-time.Millisecond)
	l.runTimers(time.Now())
	if st.StatusLine != "" {
		t.Fatalf("expected status line cleared, got %q", st.StatusLine)
	}
}

func TestRunTimersTicksToastCenter(t *testing.T) {
	l, toasts, _, _, _, _ := newTestLoop()
	toasts.Push(time.Now().Add(-time.Hour), toast.Info, "stale", time.Millisecond)
	l.lastToastTick = time.Now().Add(-time.Hour)
	l.runTimers(time.Now())
	if len(toasts.Active()) != 0 {
		t.Fatalf("expected stale toast dismissed into history, got %d active", len(toasts.Active()))
	}
}

func TestReadyToInjectFalseWhileOverlayOpen(t *testing.T) {
	tracker := prompttracker.New(regexp.MustCompile(`\$\s*$`), false, prompttracker.BackendProfile{})
	ov := &overlay.Overlay{}
	l := New(Config{Tracker: tracker, Overlay: ov})

	now := time.Now().Add(-time.Hour)
	tracker.FeedOutput(now, []byte("$ "))
	tracker.NoteEnter(now)
	if !l.readyToInject() {
		t.Fatal("expected ready to inject with no overlay open and a stable idle prompt")
	}

	ov.Open(overlay.VariantSettings, 0, 0)
	if l.readyToInject() {
		t.Fatal("expected transcript release blocked while an overlay is open")
	}
}

func TestShutdownDrainsTranscriptAndStopsWriter(t *testing.T) {
	l, _, tq, _, _, _ := newTestLoop()
	tq.Enqueue("left over", "voice", transcript.TargetAuto)
	fw := newFakeWriter()
	l.cfg.Writer = writer.New(fw)

	l.shutdown()

	if tq.Len() != 0 {
		t.Fatalf("expected transcript queue drained, got %d", tq.Len())
	}
	select {
	case <-fw.got:
	case <-time.After(time.Second):
		t.Fatal("expected a shutdown write to reach the writer")
	}
}

func TestRunExitsOnExplicitExitInput(t *testing.T) {
	l, _, _, _, _, _ := newTestLoop()
	input := make(chan inputreader.Event, 1)
	l.cfg.Input = input
	l.cfg.IsExit = func(ev inputreader.Event) bool { return ev.Kind == inputreader.EventHotkey && ev.Hotkey == 'q' }

	input <- inputreader.Event{Kind: inputreader.EventHotkey, Hotkey: 'q'}

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to exit on explicit Exit input")
	}
}

func TestRunExitsOnContextCancel(t *testing.T) {
	l, _, _, _, _, _ := newTestLoop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to exit promptly on cancelled context")
	}
}

func TestRunDeliversQueuedTranscriptWhenPromptReady(t *testing.T) {
	tq := transcript.NewQueue()
	tracker := prompttracker.New(regexp.MustCompile(`\$\s*$`), false, prompttracker.BackendProfile{})
	l := New(Config{
		Transcript: tq,
		Tracker:    tracker,
		Toasts:     toast.NewCenter(),
		HUDState:   &hud.State{},
		Overlay:    &overlay.Overlay{},
		WriteIdle:  time.Millisecond,
	})
	pw := &fakePTYWriter{}
	l.cfg.PTYWriter = pw
	ctx, cancel := context.WithCancel(context.Background())

	now := time.Now().Add(-time.Hour)
	tracker.FeedOutput(now, []byte("$ "))
	tracker.NoteEnter(now)
	tq.Enqueue("say hello", "voice", transcript.TargetAuto)

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(pw.written) == 0 {
		select {
		case <-deadline:
			cancel()
			<-done
			t.Fatal("expected queued transcript to reach the PTY writer")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if string(pw.written[0]) != "say hello\n" {
		t.Fatalf("got %q", pw.written[0])
	}
}
