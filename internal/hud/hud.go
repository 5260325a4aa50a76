// Package hud renders the status strip drawn above (or within) the backend
// PTY's visible rows: a multi-row framed HUD in Full mode, a single-row
// strip in Minimal mode, or a bare launcher in Hidden mode. The renderer is
// pure — (state, style pack, width) in, (string, button hitboxes) out — so
// it can be unit tested without a terminal.
package hud

// Mode selects how much of the HUD chrome is drawn.
type Mode int

const (
	ModeFull Mode = iota
	ModeMinimal
	ModeHidden
)

// VoiceMode mirrors the capture trigger mode shown by the mode indicator.
type VoiceMode int

const (
	VoiceModeIdle VoiceMode = iota
	VoiceModeAuto
	VoiceModeManual
)

// RecordingState is the current voice-capture lifecycle phase.
type RecordingState int

const (
	RecordingIdle RecordingState = iota
	RecordingRecording
	RecordingProcessing
	RecordingResponding
)

// RightPanel selects the Minimal-mode animation shown to the right of the
// status lane.
type RightPanel int

const (
	RightPanelOff RightPanel = iota
	RightPanelRibbonWaveform
	RightPanelDotMeter
	RightPanelHeartbeat
)

// State is the full set of inputs the HUD renders from.
type State struct {
	Mode             Mode
	VoiceMode        VoiceMode
	RecordingState   RecordingState
	MeterDB          float64
	HasMeterSample   bool
	LatencyMillis    float64
	HasLatencySample bool
	RealTimeFactor   float64
	HasRTFSample     bool
	QueueDepth       int
	WakeArmed        bool
	DevMode          bool
	RightPanel       RightPanel
	StatusLine       string
	// PromptSuppressed mirrors claude_prompt_suppressed: when true, no
	// button hitboxes are produced regardless of mode (the backend owns
	// the terminal's bottom rows itself, e.g. during its own prompt UI).
	PromptSuppressed bool
}

// breakpoint widths below which Full mode degrades, mirroring layout.rs's
// breakpoints module.
const compactBreakpoint = 40

// ReservedRows reports how many terminal rows this HUD mode consumes.
func ReservedRows(mode Mode) int {
	switch mode {
	case ModeFull:
		return 3
	case ModeMinimal:
		return 1
	default:
		return 0
	}
}
