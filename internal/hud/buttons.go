package hud

// ButtonAction identifies what a HUD button does when clicked.
type ButtonAction int

const (
	ActionToggleRecording ButtonAction = iota
	ActionToggleVoiceMode // auto/ptt
	ActionSendOrEdit      // Auto delivers, Manual opens edit-before-send
	ActionOpenSettings
	ActionToggleHudMode
	ActionOpenHelp
	ActionOpenThemeStudio
)

// defaultButtons is the full button row, in display order. Index order is
// load-bearing: compactButtonIndices below references these positions.
var defaultButtons = []struct {
	label  string
	action ButtonAction
}{
	{"rec", ActionToggleRecording},
	{"auto/ptt", ActionToggleVoiceMode},
	{"send/edit", ActionSendOrEdit},
	{"set", ActionOpenSettings},
	{"hud", ActionToggleHudMode},
	{"help", ActionOpenHelp},
	{"studio", ActionOpenThemeStudio},
}

// compactButtonIndices selects which of defaultButtons survive when the
// full row would overflow inner_width; index 4 ("hud") is dropped.
var compactButtonIndices = []int{0, 1, 2, 3, 5, 6}

const fullItemSeparator = " · "
const compactItemSeparator = " "

// ButtonPosition is a clickable hitbox in terminal-cell coordinates,
// counted from the HUD's own origin (row 0 = the HUD's first row).
type ButtonPosition struct {
	StartX, EndX int
	Row          int
	Action       ButtonAction
}

// GetButtonPositions computes the clickable hitboxes for the current state,
// mirroring buttons.rs's get_button_positions: Full mode lays out a row of
// buttons (compact subset if the full row would overflow width), Minimal
// mode exposes a single "back" button, and Hidden mode exposes, only while
// recording is idle, an "open" launcher plus "hide" when the width allows.
func GetButtonPositions(st State, width int) []ButtonPosition {
	if st.PromptSuppressed {
		return nil
	}
	switch st.Mode {
	case ModeFull:
		if width < compactBreakpoint {
			return nil
		}
		innerWidth := width - 2
		if innerWidth < 0 {
			innerWidth = 0
		}
		_, positions := formatButtonRow(innerWidth, row2FromBottom(st))
		return positions
	case ModeMinimal:
		return []ButtonPosition{{StartX: 0, EndX: 4, Row: 0, Action: ActionToggleHudMode}}
	default: // ModeHidden
		if st.RecordingState != RecordingIdle {
			return nil
		}
		return formatHiddenLauncher(width)
	}
}

// row2FromBottom is the row the button line occupies in the bordered
// Full-mode frame: row 2, below the top border and the status line.
func row2FromBottom(st State) int {
	return ReservedRows(ModeFull) - 1
}

// effectiveMode degrades Full to Minimal below the compact breakpoint,
// mirroring layout.rs's effective_hud_style_for_state.
func effectiveMode(st State, width int) Mode {
	if st.Mode == ModeFull && width < compactBreakpoint {
		return ModeMinimal
	}
	return st.Mode
}

func formatButtonRow(innerWidth, row int) (string, []ButtonPosition) {
	fullWidth := 0
	for i, b := range defaultButtons {
		if i > 0 {
			fullWidth += len(fullItemSeparator)
		}
		fullWidth += len(b.label)
	}
	if fullWidth <= innerWidth {
		return layoutButtons(defaultButtons, fullItemSeparator, row)
	}

	compact := make([]struct {
		label  string
		action ButtonAction
	}, 0, len(compactButtonIndices))
	for _, idx := range compactButtonIndices {
		compact = append(compact, defaultButtons[idx])
	}
	return layoutButtons(compact, compactItemSeparator, row)
}

func layoutButtons(items []struct {
	label  string
	action ButtonAction
}, sep string, row int) (string, []ButtonPosition) {
	var line string
	positions := make([]ButtonPosition, 0, len(items))
	x := 0
	for i, b := range items {
		if i > 0 {
			line += sep
			x += len(sep)
		}
		start := x
		line += b.label
		x += len(b.label)
		positions = append(positions, ButtonPosition{StartX: start, EndX: x, Row: row, Action: b.action})
	}
	return line, positions
}

func formatHiddenLauncher(width int) []ButtonPosition {
	const openLabel = "[open]"
	positions := []ButtonPosition{{StartX: 0, EndX: len(openLabel), Row: 0, Action: ActionToggleHudMode}}
	const hideLabel = "[hide]"
	if width >= len(openLabel)+1+len(hideLabel) {
		start := len(openLabel) + 1
		positions = append(positions, ButtonPosition{StartX: start, EndX: start + len(hideLabel), Row: 0, Action: ActionToggleHudMode})
	}
	return positions
}
