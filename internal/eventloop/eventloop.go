// Package eventloop implements the single-threaded dispatch loop that ties
// together input, PTY output, voice, and wake events with the HUD, overlay,
// and transcript-delivery subsystems. It owns no I/O itself: every channel,
// writer, and tracker it touches is supplied by the caller, so the loop can
// run against fakes in tests exactly as it runs against the real terminal.
package eventloop

import (
	"context"
	"sync/atomic"
	"time"

	"voiceterm/internal/hud"
	"voiceterm/internal/inputreader"
	"voiceterm/internal/overlay"
	"voiceterm/internal/prompttracker"
	"voiceterm/internal/style"
	"voiceterm/internal/toast"
	"voiceterm/internal/transcript"
	"voiceterm/internal/voice"
	"voiceterm/internal/writer"
)

const (
	selectTimeout      = 50 * time.Millisecond
	spinnerTickEvery   = 120 * time.Millisecond
	heartbeatTickEvery = 700 * time.Millisecond
	toastTickEvery     = 250 * time.Millisecond
	geometryPollEvery  = time.Second
	themeFilePollEvery = 500 * time.Millisecond
	statusLineHold     = 3 * time.Second
	previewHold        = 2 * time.Second

	writerJoinTimeout = 500 * time.Millisecond
	inputJoinTimeout  = 100 * time.Millisecond
)

// MemorySink receives journal events at the points the data flow names:
// voice transcript arrival and PTY-output-derived command intent. main
// wires this to internal/memory.Journal; a nil sink disables journaling.
type MemorySink interface {
	VoiceTranscript(text, source string)
	CommandIntent(line string)
}

// DevLogger receives structured dev-mode trace lines. main wires this to
// internal/devlog.Logger when --dev-log is set; nil disables logging.
type DevLogger interface {
	Log(event string, fields map[string]any)
}

// Config wires the loop to its collaborators. Every field is optional
// except Transcript, Tracker, and Toasts; an unset channel simply never
// selects, and an unset callback is skipped.
type Config struct {
	Input     <-chan inputreader.Event
	PTYOutput <-chan []byte
	Voice     <-chan voice.Message
	Wake      <-chan struct{}

	PTYWriter transcript.PTYWriter
	Writer    *writer.Writer
	VoiceMgr  *voice.Manager
	Overlay   *overlay.Overlay

	Transcript    *transcript.Queue
	Tracker       *prompttracker.Tracker
	Toasts        *toast.Center
	StyleHistory  *style.History
	HUDState      *hud.State
	VoiceSendMode transcript.TargetMode

	// MainDispatch handles one input event when no overlay is open, or when
	// an overlay just closed on a navigation-neutral event and asks for the
	// event to be replayed. Returns dirty=true if the HUD/terminal needs a
	// redraw as a result.
	MainDispatch func(ev inputreader.Event) (dirty bool)
	// OverlayHandle handles one input event for the currently active
	// overlay variant; see overlay.Route.
	OverlayHandle   func(v overlay.Variant, ev inputreader.Event) (consumed bool)
	IsExit          func(ev inputreader.Event) bool
	IsHistoryToggle func(ev inputreader.Event) bool

	// PollGeometry reports the current terminal size; ok is false if it
	// could not be determined.
	PollGeometry func() (rows, cols int, ok bool)
	// Resize is called whenever a window-change signal fired or the
	// periodic geometry poll finds a new size.
	Resize func(rows, cols int)
	// PollThemeFile is invoked on the theme-file maintenance tick; it owns
	// its own change detection (see style.WatchThemeFile for the same
	// polling shape used standalone).
	PollThemeFile func(now time.Time)
	// Redraw renders and flushes the HUD/overlay whenever the loop is
	// dirty. Errors are the caller's concern; the loop never stops for one.
	Redraw func()

	// InputJoin blocks until the input-reader worker has stopped; it is
	// called with a bounded timeout during shutdown.
	InputJoin func()

	AutoIdle  time.Duration
	EnterIdle time.Duration
	WriteIdle time.Duration

	Memory MemorySink
	DevLog DevLogger
}

// Loop is the per-iteration dispatcher described by the worker roster and
// concurrency model: a multi-way select with a ~50ms default timeout,
// followed by a fixed timer sweep and a conditional redraw.
type Loop struct {
	cfg Config

	running         atomic.Bool
	geometryChanged atomic.Bool

	dirty bool

	lastRows, lastCols int

	lastSpinnerTick     time.Time
	lastHeartbeatTick   time.Time
	lastToastTick       time.Time
	lastGeometryPoll    time.Time
	lastThemeFilePoll   time.Time
	lastAutoTriggerAt   time.Time
	lastMeterUpdate     time.Time
	statusClearDeadline time.Time
	previewClearDeadline time.Time

	lastSeenErrorLine string
}

// New constructs a Loop from cfg.
func New(cfg Config) *Loop {
	return &Loop{cfg: cfg}
}

// SignalWindowChanged records that a SIGWINCH (or equivalent) fired. It is
// safe to call from a signal handler; the actual geometry query happens on
// the next loop iteration, not inline.
func (l *Loop) SignalWindowChanged() { l.geometryChanged.Store(true) }

// Stop asks the loop to exit after its current iteration. Safe to call from
// any goroutine, including from within MainDispatch itself (e.g. on an
// unrecoverable PTY write error surfaced outside the loop).
func (l *Loop) Stop() { l.running.Store(false) }

// Run drives the loop until Stop is called, ctx is cancelled, an explicit
// Exit input arrives, or the input/PTY-output channels are closed (EOF).
func (l *Loop) Run(ctx context.Context) {
	l.running.Store(true)
	now := time.Now()
	l.lastSpinnerTick, l.lastHeartbeatTick, l.lastToastTick = now, now, now
	l.lastGeometryPoll, l.lastThemeFilePoll = now, now

	for l.running.Load() {
		select {
		case <-ctx.Done():
			l.running.Store(false)
		case ev, ok := <-l.cfg.Input:
			if !ok {
				l.running.Store(false)
			} else {
				l.handleInput(ev)
			}
		case chunk, ok := <-l.cfg.PTYOutput:
			if !ok {
				l.running.Store(false)
			} else {
				l.handlePTYOutput(chunk)
			}
		case msg, ok := <-l.cfg.Voice:
			if ok {
				l.handleVoice(msg)
			}
		case <-l.cfg.Wake:
			l.handleWake()
		case <-time.After(selectTimeout):
		}

		iterNow := time.Now()
		l.maybeResize(iterNow)
		l.runTimers(iterNow)
		l.deliverTranscripts()

		if l.dirty {
			if l.cfg.Redraw != nil {
				l.cfg.Redraw()
			}
			l.dirty = false
		}
	}
	l.shutdown()
}

// handleInput dispatches one input event via the overlay state machine when
// an overlay is open, otherwise straight to MainDispatch.
func (l *Loop) handleInput(ev inputreader.Event) {
	if l.cfg.IsExit != nil && l.cfg.IsExit(ev) && (l.cfg.Overlay == nil || !l.cfg.Overlay.IsOpen()) {
		l.running.Store(false)
		return
	}
	if l.cfg.Overlay != nil && l.cfg.Overlay.IsOpen() {
		d := l.cfg.Overlay.Route(ev, l.cfg.IsExit, l.cfg.IsHistoryToggle, l.cfg.OverlayHandle)
		l.dirty = true
		if d.Closed {
			if flushed, _, _ := l.cfg.Overlay.Close(true); len(flushed) > 0 && l.cfg.Writer != nil {
				l.cfg.Writer.Send(writer.Message{Kind: writer.KindPTYOutput, Payload: flushed})
			}
		}
		if d.Closed && d.Replay && l.cfg.MainDispatch != nil {
			if l.cfg.MainDispatch(ev) {
				l.dirty = true
			}
		}
		return
	}
	if l.cfg.MainDispatch != nil && l.cfg.MainDispatch(ev) {
		l.dirty = true
	}
	if ev.Kind == inputreader.EventEnter && l.cfg.Tracker != nil {
		l.cfg.Tracker.NoteEnter(time.Now())
	}
}

// handlePTYOutput feeds the prompt tracker, buffers or forwards the chunk
// depending on overlay occlusion, and surfaces a newly seen error line to
// the memory sink.
func (l *Loop) handlePTYOutput(chunk []byte) {
	now := time.Now()
	if l.cfg.Tracker != nil {
		l.cfg.Tracker.FeedOutput(now, chunk)
		if line := l.cfg.Tracker.LastErrorLine(); line != "" && line != l.lastSeenErrorLine {
			l.lastSeenErrorLine = line
			if l.cfg.Memory != nil {
				l.cfg.Memory.CommandIntent(line)
			}
		}
	}
	l.deliverTranscripts()

	if l.cfg.Overlay != nil && l.cfg.Overlay.IsOpen() {
		l.cfg.Overlay.BufferPTYOutput(chunk)
		return
	}
	if l.cfg.Writer != nil {
		l.cfg.Writer.Send(writer.Message{Kind: writer.KindPTYOutput, Payload: chunk})
	}
}

// handleVoice applies one voice.Message to the HUD's recording state,
// throttling meter samples and surfacing toasts on empty/error outcomes.
func (l *Loop) handleVoice(msg voice.Message) {
	switch msg.Kind {
	case voice.MsgStarted:
		if l.cfg.HUDState != nil {
			l.cfg.HUDState.RecordingState = hud.RecordingRecording
		}
		l.dirty = true
	case voice.MsgMeter:
		if !voice.MeterThrottle(l.lastMeterUpdate, time.Now(), false) {
			return
		}
		l.lastMeterUpdate = time.Now()
		if l.cfg.HUDState != nil {
			l.cfg.HUDState.MeterDB = msg.DB
			l.cfg.HUDState.HasMeterSample = true
		}
		l.dirty = true
	case voice.MsgTranscript:
		if l.cfg.Memory != nil {
			l.cfg.Memory.VoiceTranscript(msg.Text, msg.Source)
		}
		if l.cfg.Transcript != nil {
			if _, dropped := l.cfg.Transcript.Enqueue(msg.Text, msg.Source, l.cfg.VoiceSendMode); dropped {
				l.pushToast(toast.Warning, "transcript queue full, dropped oldest")
			}
		}
		l.finishRecording()
	case voice.MsgEmpty:
		reason := msg.EmptyReason
		if reason == "" {
			reason = "no speech detected"
		}
		l.pushToast(toast.Info, reason)
		l.finishRecording()
	case voice.MsgError:
		text := "voice capture failed"
		if msg.Err != nil {
			text = msg.Err.Error()
		}
		l.pushToast(toast.Error, text)
		l.logDev("voice_error", map[string]any{"error": text})
		l.finishRecording()
	}
}

func (l *Loop) finishRecording() {
	if l.cfg.HUDState != nil {
		l.cfg.HUDState.RecordingState = hud.RecordingIdle
	}
	l.dirty = true
}

// handleWake starts an Auto-triggered capture, respecting the mutual
// exclusion the voice manager already enforces against an in-flight
// capture or a currently-active listener.
func (l *Loop) handleWake() {
	if l.cfg.VoiceMgr == nil || l.cfg.VoiceMgr.IsActive() {
		return
	}
	if err := l.cfg.VoiceMgr.TriggerAuto(); err == nil {
		if l.cfg.HUDState != nil {
			l.cfg.HUDState.RecordingState = hud.RecordingRecording
		}
		l.dirty = true
	}
}

// maybeResize queries geometry when a window-change signal fired or the
// periodic poll interval elapsed, issuing a resize only on an actual
// dimension change.
func (l *Loop) maybeResize(now time.Time) {
	changed := l.geometryChanged.Swap(false)
	if !changed {
		if now.Sub(l.lastGeometryPoll) < geometryPollEvery {
			return
		}
		changed = true
	}
	l.lastGeometryPoll = now
	if l.cfg.PollGeometry == nil {
		return
	}
	rows, cols, ok := l.cfg.PollGeometry()
	if !ok {
		return
	}
	if rows == l.lastRows && cols == l.lastCols {
		return
	}
	l.lastRows, l.lastCols = rows, cols
	if l.cfg.Resize != nil {
		l.cfg.Resize(rows, cols)
	}
	l.dirty = true
}

// runTimers evaluates every clock named in the per-iteration dispatch
// table: animation ticks, transient status/preview expiry, the theme
// picker's numeric quick-pick deadline, theme-file maintenance, and the
// auto-voice re-arm rate limit.
func (l *Loop) runTimers(now time.Time) {
	if now.Sub(l.lastSpinnerTick) >= spinnerTickEvery {
		l.lastSpinnerTick = now
		l.dirty = true
	}
	if now.Sub(l.lastHeartbeatTick) >= heartbeatTickEvery {
		l.lastHeartbeatTick = now
		l.dirty = true
	}
	if l.cfg.Toasts != nil && now.Sub(l.lastToastTick) >= toastTickEvery {
		l.lastToastTick = now
		before := len(l.cfg.Toasts.Active())
		l.cfg.Toasts.Tick(now)
		if len(l.cfg.Toasts.Active()) != before {
			l.dirty = true
		}
	}
	if !l.statusClearDeadline.IsZero() && now.After(l.statusClearDeadline) {
		if l.cfg.HUDState != nil {
			l.cfg.HUDState.StatusLine = ""
		}
		l.statusClearDeadline = time.Time{}
		l.dirty = true
	}
	if !l.previewClearDeadline.IsZero() && now.After(l.previewClearDeadline) {
		l.previewClearDeadline = time.Time{}
		l.dirty = true
	}
	if l.cfg.Overlay != nil && l.cfg.Overlay.Active == overlay.VariantThemePicker {
		if theme, ok := l.cfg.Overlay.ThemePicker.Tick(now); ok {
			l.applyTheme(theme)
		}
	}
	if l.cfg.PollThemeFile != nil && now.Sub(l.lastThemeFilePoll) >= themeFilePollEvery {
		l.lastThemeFilePoll = now
		l.cfg.PollThemeFile(now)
	}
	if l.cfg.Tracker != nil && l.cfg.VoiceMgr != nil &&
		l.cfg.Tracker.ShouldAutoTrigger(now, l.cfg.AutoIdle, l.lastAutoTriggerAt) {
		l.lastAutoTriggerAt = now
		l.handleWake()
	}
}

func (l *Loop) applyTheme(theme style.Theme) {
	if l.cfg.StyleHistory != nil {
		l.cfg.StyleHistory.Push(style.BuiltIn(theme))
	}
	l.dirty = true
}

// deliverTranscripts runs one delivery pass. handlePTYOutput calls it right
// after feeding the tracker, and Run calls it again on every iteration; a
// pass is cheap and a no-op when nothing changed.
func (l *Loop) deliverTranscripts() {
	if l.cfg.Transcript == nil || l.cfg.PTYWriter == nil {
		return
	}
	transcript.Deliver(l.cfg.Transcript, l.readyToInject, l.cfg.PTYWriter, l.onTranscriptEnter, l.setStatus)
}

func (l *Loop) readyToInject() bool {
	if l.cfg.Overlay != nil && l.cfg.Overlay.IsOpen() {
		return false // invariant: never release a transcript while an overlay is open
	}
	if l.cfg.Tracker == nil {
		return false
	}
	return l.cfg.Tracker.ReadyToInject(time.Now(), l.cfg.EnterIdle, l.cfg.WriteIdle)
}

func (l *Loop) onTranscriptEnter() {
	if l.cfg.Tracker != nil {
		l.cfg.Tracker.NoteEnter(time.Now())
	}
}

func (l *Loop) setStatus(text string) {
	if l.cfg.HUDState != nil {
		l.cfg.HUDState.StatusLine = text
	}
	l.statusClearDeadline = time.Now().Add(statusLineHold)
	l.dirty = true
}

func (l *Loop) pushToast(sev toast.Severity, message string) {
	if l.cfg.Toasts == nil {
		return
	}
	l.cfg.Toasts.Push(time.Now(), sev, message, 0)
	l.dirty = true
}

func (l *Loop) logDev(event string, fields map[string]any) {
	if l.cfg.DevLog != nil {
		l.cfg.DevLog.Log(event, fields)
	}
}

// shutdown runs the cancellation sequence: drain the transcript queue,
// signal workers, then bounded-join the writer and input threads, detaching
// rather than blocking if either exceeds its timeout.
func (l *Loop) shutdown() {
	l.logDev("shutdown", nil)
	if l.cfg.Transcript != nil {
		for l.cfg.Transcript.Len() > 0 {
			l.cfg.Transcript.Pop()
		}
	}
	if l.cfg.VoiceMgr != nil {
		l.cfg.VoiceMgr.Cancel()
	}
	if l.cfg.Writer != nil {
		l.cfg.Writer.Send(writer.Message{Kind: writer.KindShutdown})
		joinWithTimeout(l.cfg.Writer.Close, writerJoinTimeout)
	}
	if l.cfg.InputJoin != nil {
		joinWithTimeout(l.cfg.InputJoin, inputJoinTimeout)
	}
}

// joinWithTimeout runs fn in its own goroutine and returns as soon as fn
// completes or timeout elapses, whichever comes first. A timeout detaches
// rather than blocks shutdown forever; fn's goroutine is left to finish on
// its own.
func joinWithTimeout(fn func(), timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
