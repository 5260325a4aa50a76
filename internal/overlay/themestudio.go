package overlay

import (
	"regexp"
	"strings"

	"voiceterm/internal/style"
)

// StudioPage is one of Theme Studio's sub-pages. Tab/Shift-Tab cycles
// forward/backward through them; each page owns its own selection state.
type StudioPage int

const (
	StudioHome StudioPage = iota
	StudioColors
	StudioBorders
	StudioComponents
	StudioPreview
	StudioExport
)

var studioPageOrder = []StudioPage{
	StudioHome, StudioColors, StudioBorders, StudioComponents, StudioPreview, StudioExport,
}

// NextPage cycles forward, wrapping from Export back to Home.
func (p StudioPage) NextPage() StudioPage {
	for i, cur := range studioPageOrder {
		if cur == p {
			return studioPageOrder[(i+1)%len(studioPageOrder)]
		}
	}
	return StudioHome
}

// PrevPage cycles backward, wrapping from Home to Export.
func (p StudioPage) PrevPage() StudioPage {
	for i, cur := range studioPageOrder {
		if cur == p {
			return studioPageOrder[(i-1+len(studioPageOrder))%len(studioPageOrder)]
		}
	}
	return StudioHome
}

const colorPickerHexMaxLen = 7 // "#rrggbb"

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ColorPicker is the embedded RGB picker nested under the Colors page: a
// micro-state with its own selection cursor plus an optional hex-entry mode
// toggled by H/h.
type ColorPicker struct {
	Selected      int
	HexEntryMode  bool
	HexBuffer     string
}

// ToggleHexMode flips hex-entry mode, seeding the buffer with "#" on entry.
func (p *ColorPicker) ToggleHexMode() {
	p.HexEntryMode = !p.HexEntryMode
	if p.HexEntryMode && p.HexBuffer == "" {
		p.HexBuffer = "#"
	}
}

// PushHexChar appends a character to the hex buffer if there's room,
// seeding a leading '#' first if the buffer was empty.
func (p *ColorPicker) PushHexChar(c byte) {
	if !p.HexEntryMode {
		return
	}
	if p.HexBuffer == "" {
		p.HexBuffer = "#"
	}
	if len(p.HexBuffer) < colorPickerHexMaxLen {
		p.HexBuffer += string(c)
	}
}

// PopHexChar removes the last character, but never the leading '#'.
func (p *ColorPicker) PopHexChar() {
	if !p.HexEntryMode || len(p.HexBuffer) <= 1 {
		return
	}
	p.HexBuffer = p.HexBuffer[:len(p.HexBuffer)-1]
}

// ValidHex reports whether the current buffer is a well-formed #rrggbb
// color.
func (p *ColorPicker) ValidHex() bool {
	return hexColorRe.MatchString(p.HexBuffer)
}

// ApplyHexBuffer commits the buffer as the picker's selected color,
// returning false (leaving the buffer untouched) if it isn't valid
// #rrggbb.
func (p *ColorPicker) ApplyHexBuffer() (string, bool) {
	if !p.ValidHex() {
		return "", false
	}
	return strings.ToLower(p.HexBuffer), true
}

// ThemeStudioPage holds Theme Studio's navigation and per-page state. Every
// mutation goes through the style-pack override history so undo/redo works
// uniformly across pages.
type ThemeStudioPage struct {
	Page        StudioPage
	ColorPicker *ColorPicker
	History     *style.History
}

// NewThemeStudioPage seeds a Theme Studio session from the currently
// resolved style pack.
func NewThemeStudioPage(initial style.StylePack) ThemeStudioPage {
	return ThemeStudioPage{Page: StudioHome, History: style.NewHistory(initial)}
}

// EnsureColorPicker lazily creates the embedded picker the first time the
// Colors page is visited.
func (t *ThemeStudioPage) EnsureColorPicker() *ColorPicker {
	if t.ColorPicker == nil {
		t.ColorPicker = &ColorPicker{}
	}
	return t.ColorPicker
}

// Tab cycles to the next page.
func (t *ThemeStudioPage) Tab() { t.Page = t.Page.NextPage() }

// ShiftTab cycles to the previous page.
func (t *ThemeStudioPage) ShiftTab() { t.Page = t.Page.PrevPage() }
