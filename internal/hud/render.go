package hud

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"voiceterm/internal/style"
)

func lipglossBorder(b style.BorderSet) lipgloss.Border {
	return lipgloss.Border{
		Top:         b.Horizontal,
		Bottom:      b.Horizontal,
		Left:        b.Vertical,
		Right:       b.Vertical,
		TopLeft:     b.TopLeft,
		TopRight:    b.TopRight,
		BottomLeft:  b.BottomLeft,
		BottomRight: b.BottomRight,
	}
}

// Render draws the HUD for the given state and resolved colors, returning
// the rendered string and the clickable hitboxes it corresponds to.
func Render(st State, colors style.Colors, width int) (string, []ButtonPosition) {
	positions := GetButtonPositions(st, width)
	switch effectiveMode(st, width) {
	case ModeFull:
		return renderFull(st, colors, width), positions
	case ModeMinimal:
		return renderMinimal(st, colors, width), positions
	default:
		return renderHidden(st, width), positions
	}
}

func modeIndicator(st State, colors style.Colors) string {
	switch st.RecordingState {
	case RecordingRecording:
		return colors.IndicatorRec
	case RecordingProcessing:
		return colors.IndicatorProcessing
	case RecordingResponding:
		return colors.IndicatorResp
	default:
		switch st.VoiceMode {
		case VoiceModeAuto:
			return colors.IndicatorAuto
		case VoiceModeManual:
			return colors.IndicatorManual
		default:
			return colors.IndicatorIdle
		}
	}
}

func meterText(st State) string {
	if !st.HasMeterSample {
		return "--dB"
	}
	return fmt.Sprintf("%3.0fdB", st.MeterDB)
}

func renderFull(st State, colors style.Colors, width int) string {
	inner := width - 2
	if inner < 0 {
		inner = 0
	}
	statusRow := ansi.Truncate(fmt.Sprintf("%s %s  %s", modeIndicator(st, colors), meterText(st), st.StatusLine), inner, "…")
	buttonRow, _ := formatButtonRow(inner, row2FromBottom(st))
	badgeParts := []string{}
	if b := formatQueueBadge(st.QueueDepth); b != "" {
		badgeParts = append(badgeParts, b)
	}
	if b := formatWakeBadge(st.WakeArmed); b != "" {
		badgeParts = append(badgeParts, b)
	}
	if b := formatDevBadge(st.DevMode); b != "" {
		badgeParts = append(badgeParts, b)
	}
	badgeRow := ansi.Truncate(strings.Join(badgeParts, " "), inner, "…")

	body := statusRow + "\n" + buttonRow + "\n" + badgeRow
	return lipgloss.NewStyle().
		Border(lipglossBorder(colors.Borders)).
		Width(inner).
		Render(body)
}

func renderMinimal(st State, colors style.Colors, width int) string {
	line := fmt.Sprintf("%s %s", modeIndicator(st, colors), meterText(st))
	if st.StatusLine != "" {
		line += "  " + st.StatusLine
	}
	if panel := renderRightPanel(st); panel != "" {
		pad := width - lipglossDisplayWidth(line) - lipglossDisplayWidth(panel)
		if pad < 1 {
			pad = 1
		}
		line += strings.Repeat(" ", pad) + panel
	}
	return ansi.Truncate(line, width, "…")
}

func renderRightPanel(st State) string {
	switch st.RightPanel {
	case RightPanelRibbonWaveform:
		return "▁▂▃▄▅▆▇"
	case RightPanelDotMeter:
		return "●●●○○"
	case RightPanelHeartbeat:
		return "♥"
	default:
		return ""
	}
}

func lipglossDisplayWidth(s string) int {
	return lipgloss.Width(s)
}

func renderHidden(st State, width int) string {
	if st.RecordingState != RecordingIdle {
		return ""
	}
	launcher := "[open]"
	if width >= len(launcher)+1+len("[hide]") {
		launcher += " [hide]"
	}
	return ansi.Truncate(launcher, width, "")
}
