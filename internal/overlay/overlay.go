// Package overlay implements the modal UI layered over the backend PTY:
// settings, help, theme picker, Theme Studio, dev panel, and transcript/toast
// history. At most one overlay is active at a time; input routes either to
// the active overlay's handler or, when none is open, straight through to
// the backend.
package overlay

import "voiceterm/internal/inputreader"

// Variant identifies which overlay (if any) is currently open.
type Variant int

const (
	VariantNone Variant = iota
	VariantSettings
	VariantHelp
	VariantThemePicker
	VariantThemeStudio
	VariantDevPanel
	VariantTranscriptHistory
	VariantToastHistory
)

// ReservedRows reports how many terminal rows this overlay's chrome
// consumes when open, so the event loop can shrink the PTY accordingly.
func (v Variant) ReservedRows() int {
	switch v {
	case VariantNone:
		return 0
	case VariantHelp, VariantTranscriptHistory, VariantToastHistory:
		return 10
	default:
		return 12
	}
}

// Dispatch is the outcome of routing one input event through the overlay.
type Dispatch struct {
	// Closed is true if handling this event closed the overlay.
	Closed bool
	// Replay is true if the same event must be re-delivered to the main
	// dispatcher because it was "navigation-neutral" for the overlay that
	// just closed (so it is not silently swallowed).
	Replay bool
}

// Overlay owns the currently active variant and its PTY-output byte buffer
// (accumulated while occluded, flushed in order on close — a plain []byte
// buffer rather than a virtual-terminal screen, since only ordered replay is
// required, not re-rendering what the backend drew while hidden).
type Overlay struct {
	Active Variant

	pendingPTYOutput []byte
	savedCursorRow   int
	savedCursorCol   int

	Settings    SettingsPage
	ThemePicker ThemePickerPage
	ThemeStudio ThemeStudioPage
	History     HistoryPage
}

// IsOpen reports whether any overlay variant is currently active.
func (o *Overlay) IsOpen() bool { return o.Active != VariantNone }

// Open switches to variant, saving the current cursor position and
// preserving any PTY output buffered while the overlay draws over it.
func (o *Overlay) Open(variant Variant, cursorRow, cursorCol int) {
	o.Active = variant
	o.savedCursorRow = cursorRow
	o.savedCursorCol = cursorCol
	o.pendingPTYOutput = o.pendingPTYOutput[:0]
}

// BufferPTYOutput appends backend output produced while the overlay is open,
// to be replayed through the writer in order once the overlay closes with
// restorePTY.
func (o *Overlay) BufferPTYOutput(data []byte) {
	if o.Active == VariantNone {
		return
	}
	o.pendingPTYOutput = append(o.pendingPTYOutput, data...)
}

// Close deactivates the current overlay. If restorePTY is true, the
// buffered PTY output is returned for the caller to flush through the
// writer and the saved cursor position is returned so the caller can issue
// a matching window-size/redraw sequence; otherwise the buffer is
// discarded.
func (o *Overlay) Close(restorePTY bool) (flushed []byte, cursorRow, cursorCol int) {
	o.Active = VariantNone
	if !restorePTY {
		o.pendingPTYOutput = nil
		return nil, o.savedCursorRow, o.savedCursorCol
	}
	flushed = o.pendingPTYOutput
	o.pendingPTYOutput = nil
	return flushed, o.savedCursorRow, o.savedCursorCol
}

// isNavigationNeutral reports whether ev is neither an Exit action nor a
// mouse click nor a TranscriptHistory-toggle hotkey — the three event
// classes that close an overlay outright rather than triggering a replay.
func isNavigationNeutral(ev inputreader.Event, isExit, isHistoryToggle func(inputreader.Event) bool) bool {
	if ev.Kind == inputreader.EventMouse {
		return false
	}
	if isExit != nil && isExit(ev) {
		return false
	}
	if isHistoryToggle != nil && isHistoryToggle(ev) {
		return false
	}
	return true
}

// Route dispatches one input event to the active overlay's handler. A
// navigation-neutral event that the overlay doesn't consume itself closes
// the overlay and asks the caller to replay the event against the main
// dispatcher, so no keystroke is ever silently lost.
//
// handle is the per-variant key handler; it returns consumed=true if the
// overlay fully handled the event (and should stay open).
func (o *Overlay) Route(ev inputreader.Event, isExit, isHistoryToggle func(inputreader.Event) bool, handle func(Variant, inputreader.Event) (consumed bool)) Dispatch {
	if o.Active == VariantNone {
		return Dispatch{}
	}
	if handle(o.Active, ev) {
		return Dispatch{}
	}
	o.Active = VariantNone
	if isNavigationNeutral(ev, isExit, isHistoryToggle) {
		return Dispatch{Closed: true, Replay: true}
	}
	return Dispatch{Closed: true}
}
