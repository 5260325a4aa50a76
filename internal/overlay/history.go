package overlay

// HistoryPage is the shared scroll state for the TranscriptHistory and
// ToastHistory overlay variants: both are a simple scrollable list over an
// externally-owned record slice, so only the cursor/offset needs to live
// here.
type HistoryPage struct {
	Cursor int
	Offset int
}

// Move adjusts the cursor by delta, clamping to [0, count-1], and keeps
// Offset within [0, count-1] too so a subsequent render can derive a
// visible window from (Offset, Offset+visibleRows).
func (h *HistoryPage) Move(delta, count int) {
	if count <= 0 {
		h.Cursor, h.Offset = 0, 0
		return
	}
	h.Cursor += delta
	if h.Cursor < 0 {
		h.Cursor = 0
	}
	if h.Cursor >= count {
		h.Cursor = count - 1
	}
}

// ScrollIntoView adjusts Offset so Cursor stays within a visibleRows-tall
// window.
func (h *HistoryPage) ScrollIntoView(visibleRows int) {
	if visibleRows <= 0 {
		return
	}
	if h.Cursor < h.Offset {
		h.Offset = h.Cursor
	}
	if h.Cursor >= h.Offset+visibleRows {
		h.Offset = h.Cursor - visibleRows + 1
	}
}
