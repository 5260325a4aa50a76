// Package app wires the event loop's callback surface (MainDispatch,
// OverlayHandle, geometry polling, redraw) to the concrete terminal, PTY
// session, and HUD/overlay state for a single voiceterm run. Everything
// here is glue: the actual algorithms live in the packages it imports.
package app

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"voiceterm/internal/devlog"
	"voiceterm/internal/hud"
	"voiceterm/internal/inputreader"
	"voiceterm/internal/memory"
	"voiceterm/internal/overlay"
	"voiceterm/internal/ptysession"
	"voiceterm/internal/style"
	"voiceterm/internal/toast"
	"voiceterm/internal/transcript"
	"voiceterm/internal/writer"
)

const transcriptHistoryMax = 50

// ptyWriterAdapter satisfies transcript.PTYWriter over a *ptysession.Session,
// mapping its write-timeout error to wouldBlock so the delivery queue
// requeues rather than drops.
type ptyWriterAdapter struct {
	session *ptysession.Session
}

func (a ptyWriterAdapter) TryWrite(p []byte) (int, bool, error) {
	n, err := a.session.Write(p)
	if err == ptysession.ErrWriteTimeout {
		return n, true, nil
	}
	return n, false, err
}

// App holds every piece of per-run state the event loop's callbacks close
// over: the backend PTY, the HUD/overlay/style state, and the hotkey table
// that decides what a given input event means outside of an open overlay.
type App struct {
	Session  *ptysession.Session
	Writer   *writer.Writer
	Overlay  *overlay.Overlay
	HUD      *hud.State
	Styles   *style.History
	Toasts   *toast.Center
	Memory   *memory.Journal
	DevLog   *devlog.Logger

	ThemeFilePath string
	themeFileSeen time.Time

	TranscriptHistory []string

	stdinFD int
}

// New constructs an App. stdinFD is the file descriptor term.GetSize polls
// for geometry.
func New(stdinFD int) *App {
	return &App{stdinFD: stdinFD}
}

// PTYWriter returns the transcript.PTYWriter view of the backend session.
func (a *App) PTYWriter() transcript.PTYWriter {
	return ptyWriterAdapter{session: a.Session}
}

// RecordDelivered appends a transcript text to the bounded history ring
// shown by the TranscriptHistory overlay.
func (a *App) RecordDelivered(text string) {
	a.TranscriptHistory = append(a.TranscriptHistory, text)
	if len(a.TranscriptHistory) > transcriptHistoryMax {
		a.TranscriptHistory = a.TranscriptHistory[len(a.TranscriptHistory)-transcriptHistoryMax:]
	}
}

// IsExit reports whether ev is the global quit hotkey (Ctrl-Q). With no
// overlay open the event loop stops on it; with an overlay open it closes
// that overlay without replaying the key.
func (a *App) IsExit(ev inputreader.Event) bool {
	return ev.Kind == inputreader.EventHotkey && ev.Hotkey == 17 // Ctrl-Q
}

// IsHistoryToggle reports whether ev is the hotkey that closes an overlay
// back to the main view without being swallowed (e.g. re-pressing the
// hotkey that opened it).
func (a *App) IsHistoryToggle(ev inputreader.Event) bool {
	return ev.Kind == inputreader.EventHotkey && (ev.Hotkey == 'h' || ev.Hotkey == 't')
}

// MainDispatch handles one input event when no overlay is open. Hotkeys
// open overlays or toggle HUD state; everything else is forwarded to the
// backend PTY verbatim.
func (a *App) MainDispatch(ev inputreader.Event) bool {
	switch ev.Kind {
	case inputreader.EventHotkey:
		switch ev.Hotkey {
		case 's': // Ctrl-S style binding reserved for Settings
			a.Overlay.Open(overlay.VariantSettings, 0, 0)
			return true
		case '?':
			a.Overlay.Open(overlay.VariantHelp, 0, 0)
			return true
		case 'p':
			a.Overlay.Open(overlay.VariantThemePicker, 0, 0)
			return true
		case 'T':
			a.Overlay.Open(overlay.VariantThemeStudio, 0, 0)
			return true
		case 'd':
			a.HUD.DevMode = !a.HUD.DevMode
			a.Overlay.Open(overlay.VariantDevPanel, 0, 0)
			return true
		case 'h':
			a.Overlay.Open(overlay.VariantTranscriptHistory, 0, 0)
			return true
		case 't':
			a.Overlay.Open(overlay.VariantToastHistory, 0, 0)
			return true
		}
		return false
	case inputreader.EventBytes:
		_, err := a.Session.Write(ev.Bytes)
		return err != nil
	case inputreader.EventEnter:
		_, err := a.Session.Write([]byte("\r"))
		return err != nil
	default:
		return false
	}
}

// OverlayHandle handles one input event for the currently active overlay
// variant, following the same per-mode table-dispatch shape the backend
// input reader itself uses to route bytes by mode.
func (a *App) OverlayHandle(v overlay.Variant, ev inputreader.Event) bool {
	switch v {
	case overlay.VariantSettings:
		return a.handleSettings(ev)
	case overlay.VariantThemePicker:
		return a.handleThemePicker(ev)
	case overlay.VariantThemeStudio:
		return a.handleThemeStudio(ev)
	case overlay.VariantTranscriptHistory:
		return a.handleHistory(ev, len(a.TranscriptHistory))
	case overlay.VariantToastHistory:
		return a.handleHistory(ev, len(a.Toasts.History()))
	case overlay.VariantHelp, overlay.VariantDevPanel:
		return false // any key dismisses; overlay.Route handles the close
	default:
		return false
	}
}

func (a *App) handleSettings(ev inputreader.Event) bool {
	if ev.Kind != inputreader.EventArrow {
		return false
	}
	switch ev.Arrow {
	case inputreader.ArrowDown:
		a.Overlay.Settings.Next()
	case inputreader.ArrowUp:
		a.Overlay.Settings.Prev()
	default:
		return false
	}
	return true
}

func (a *App) handleThemePicker(ev inputreader.Event) bool {
	if ev.Kind != inputreader.EventBytes || len(ev.Bytes) != 1 {
		return false
	}
	b := ev.Bytes[0]
	if b < '0' || b > '9' {
		return false
	}
	theme, matched := a.Overlay.ThemePicker.PushDigit(time.Now(), b, 0)
	if matched {
		a.Styles.Push(style.BuiltIn(theme))
	}
	return true
}

func (a *App) handleThemeStudio(ev inputreader.Event) bool {
	if ev.Kind != inputreader.EventHotkey {
		return false
	}
	switch ev.Hotkey {
	case '\t':
		a.Overlay.ThemeStudio.Page = a.Overlay.ThemeStudio.Page.NextPage()
	default:
		return false
	}
	return true
}

func (a *App) handleHistory(ev inputreader.Event, count int) bool {
	if ev.Kind != inputreader.EventArrow {
		return false
	}
	page := &a.Overlay.History
	switch ev.Arrow {
	case inputreader.ArrowDown:
		page.Move(1, count)
	case inputreader.ArrowUp:
		page.Move(-1, count)
	default:
		return false
	}
	return true
}

// PollGeometry reads the current terminal size from the controlling tty.
func (a *App) PollGeometry() (rows, cols int, ok bool) {
	cols, rows, err := term.GetSize(a.stdinFD)
	if err != nil || rows <= 0 || cols <= 0 {
		return 0, 0, false
	}
	return rows, cols, true
}

// Resize applies a new terminal size to the backend PTY, shrinking its rows
// by however many the active HUD mode or overlay reserves.
func (a *App) Resize(rows, cols int) {
	reserved := hud.ReservedRows(a.HUD.Mode)
	if a.Overlay.IsOpen() {
		reserved += a.Overlay.Active.ReservedRows()
	}
	childRows := rows - reserved
	if childRows < 1 {
		childRows = 1
	}
	if err := a.Session.Resize(childRows, cols); err != nil {
		a.DevLog.Log("resize_failed", map[string]any{"error": err.Error()})
	}
}

// PollThemeFile re-reads ThemeFilePath if its mtime has advanced since the
// last poll, applying the new theme to the style history. The caller (the
// event loop) is responsible for the ~500ms poll-interval gate; this just
// gates the reparse itself on mtime so an unchanged file never pushes a
// duplicate snapshot onto the undo history.
func (a *App) PollThemeFile(now time.Time) {
	if a.ThemeFilePath == "" {
		return
	}
	info, err := os.Stat(a.ThemeFilePath)
	if err != nil {
		return
	}
	if !info.ModTime().After(a.themeFileSeen) {
		return
	}
	tf, err := style.LoadThemeFile(a.ThemeFilePath)
	if err != nil {
		return
	}
	a.themeFileSeen = info.ModTime()
	a.Styles.Push(style.ResolveThemeFile(tf))
}

// Redraw renders the HUD (and, if open, the active overlay) and flushes it
// through the writer as a status-bar update.
func (a *App) Redraw() {
	_, cols, ok := a.PollGeometry()
	if !ok {
		cols = 80
	}
	colors := style.Resolve(a.Styles.Current())
	out, _ := hud.Render(*a.HUD, colors, cols)
	a.Writer.Send(writer.Message{Kind: writer.KindStatusBar, Payload: []byte(out)})
}

// SetupRawMode puts fd into raw mode and returns a restore func, grounded
// on the overlay's own term.MakeRaw/Restore pairing around its child PTY.
func SetupRawMode(fd int) (restore func(), err error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	return func() { term.Restore(fd, state) }, nil
}
