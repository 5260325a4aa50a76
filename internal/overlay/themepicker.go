package overlay

import (
	"strconv"
	"time"

	"voiceterm/internal/style"
)

const themePickerDigitMaxLen = 3

// defaultDigitDeadline is how long the picker waits after the last digit
// before finalizing a non-unique prefix.
const defaultDigitDeadline = 600 * time.Millisecond

// ThemePickerPage offers a numeric quick-pick: digits accumulate for up to
// themePickerDigitMaxLen characters; once a prefix uniquely identifies one
// option it applies immediately, otherwise the picker waits for the deadline
// and applies the best (lowest-index) match, or does nothing if no option's
// index starts with the typed digits. No method here moves Selected, so the
// page has no arrow-key navigation.
type ThemePickerPage struct {
	Selected int
	digits   string
	deadline time.Time
}

// Options lists the themes selectable in a stable, numbered order.
var Options = []style.Theme{
	style.ThemeCoral, style.ThemeClaude, style.ThemeCodex, style.ThemeChatGPT,
	style.ThemeCatppuccin, style.ThemeDracula, style.ThemeNord, style.ThemeTokyoNight,
	style.ThemeGruvbox, style.ThemeAnsi, style.ThemeNone,
}

// PushDigit appends a digit to the pending quick-pick buffer and returns the
// selected theme immediately if the buffer now uniquely identifies exactly
// one option's 1-based index.
func (p *ThemePickerPage) PushDigit(now time.Time, digit byte, digitDeadline time.Duration) (style.Theme, bool) {
	if digitDeadline <= 0 {
		digitDeadline = defaultDigitDeadline
	}
	if len(p.digits) >= themePickerDigitMaxLen {
		p.digits = ""
	}
	p.digits += string(digit)
	p.deadline = now.Add(digitDeadline)

	matches := p.matchingIndices()
	if len(matches) == 1 {
		theme := Options[matches[0]]
		p.Reset()
		return theme, true
	}
	return 0, false
}

// matchingIndices returns the 0-based Options indices whose 1-based index
// string has p.digits as a prefix.
func (p *ThemePickerPage) matchingIndices() []int {
	if p.digits == "" {
		return nil
	}
	var matches []int
	for i := range Options {
		if hasPrefix(strconv.Itoa(i+1), p.digits) {
			matches = append(matches, i)
		}
	}
	return matches
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Tick finalizes a pending quick-pick once the deadline elapses: applies the
// lowest-index match if any, otherwise clears the buffer with no effect.
func (p *ThemePickerPage) Tick(now time.Time) (style.Theme, bool) {
	if p.digits == "" || now.Before(p.deadline) {
		return 0, false
	}
	matches := p.matchingIndices()
	p.Reset()
	if len(matches) == 0 {
		return 0, false
	}
	return Options[matches[0]], true
}

// Reset clears the pending quick-pick buffer.
func (p *ThemePickerPage) Reset() {
	p.digits = ""
	p.deadline = time.Time{}
}

// Pending reports whether a quick-pick buffer is awaiting its deadline.
func (p *ThemePickerPage) Pending() bool { return p.digits != "" }
