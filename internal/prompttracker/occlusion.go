package prompttracker

import (
	"bytes"
	"time"
)

// OcclusionState is a state in the occlusion sub-state machine.
type OcclusionState int

const (
	OcclusionIdle OcclusionState = iota
	OcclusionStartupGuard
	OcclusionArmed
	OcclusionStickyHold
)

// BackendProfile names the output substrings a specific backend emits around
// an approval/review modal that visually resembles a prompt but must not
// receive synthetic input. The exact substring set is backend-specific and
// product-owned; this ships one concrete profile grounded on the generic
// "approval required" / "esc to interrupt" banner family common to this
// class of backend, pluggable per --backend.
type BackendProfile struct {
	Name string

	// StartupGuardWindow bounds how long after the first output the detector
	// stays in StartupGuard before falling back to Idle. Arm substrings arm
	// it in StartupGuard just as they do in Idle.
	StartupGuardWindow time.Duration

	// ArmSubstrings: any one appearing transitions Idle/StartupGuard -> Armed.
	ArmSubstrings []string

	// ResolveSubstrings: any one appearing while Armed transitions to
	// StickyHold (the modal is closing but its tail may still repaint).
	ResolveSubstrings []string

	// StickyHoldWindow bounds how long StickyHold lasts before falling back
	// to Idle even without a clean prompt re-match.
	StickyHoldWindow time.Duration
}

// GenericApprovalProfile is the default profile: a generic "approval
// required" / "esc to interrupt" banner family.
var GenericApprovalProfile = BackendProfile{
	Name:               "generic",
	StartupGuardWindow: 2 * time.Second,
	ArmSubstrings: []string{
		"approval required",
		"esc to interrupt",
		"press y to approve",
		"allow this action",
	},
	ResolveSubstrings: []string{
		"approved",
		"denied",
		"cancelled",
	},
	StickyHoldWindow: 500 * time.Millisecond,
}

// OcclusionDetector implements the Idle -> StartupGuard -> Armed ->
// StickyHold -> Idle sub-state machine.
type OcclusionDetector struct {
	profile   BackendProfile
	state     OcclusionState
	startedAt time.Time
	armedAt   time.Time
	holdAt    time.Time
}

// NewOcclusionDetector starts in StartupGuard; callers should construct one
// per PTY session at spawn time.
func NewOcclusionDetector(profile BackendProfile) *OcclusionDetector {
	return &OcclusionDetector{
		profile: profile,
		state:   OcclusionStartupGuard,
	}
}

// Armed reports whether ready_to_inject must currently return false.
func (d *OcclusionDetector) Armed() bool {
	return d.state == OcclusionArmed || d.state == OcclusionStickyHold
}

// State returns the current sub-state, mainly for tests/diagnostics.
func (d *OcclusionDetector) State() OcclusionState { return d.state }

// Feed advances the state machine from a chunk of raw PTY output.
func (d *OcclusionDetector) Feed(now time.Time, data []byte) {
	if d.startedAt.IsZero() {
		d.startedAt = now
	}

	switch d.state {
	case OcclusionStartupGuard:
		if now.Sub(d.startedAt) > d.profile.StartupGuardWindow {
			d.state = OcclusionIdle
		}
		if containsAny(data, d.profile.ArmSubstrings) {
			d.state = OcclusionArmed
			d.armedAt = now
		}
	case OcclusionIdle:
		if containsAny(data, d.profile.ArmSubstrings) {
			d.state = OcclusionArmed
			d.armedAt = now
		}
	case OcclusionArmed:
		if containsAny(data, d.profile.ResolveSubstrings) {
			d.state = OcclusionStickyHold
			d.holdAt = now
		}
	case OcclusionStickyHold:
		if now.Sub(d.holdAt) > d.profile.StickyHoldWindow {
			d.state = OcclusionIdle
		}
		// A fresh modal can re-arm directly out of StickyHold.
		if containsAny(data, d.profile.ArmSubstrings) {
			d.state = OcclusionArmed
			d.armedAt = now
		}
	}
}

func containsAny(data []byte, substrings []string) bool {
	for _, s := range substrings {
		if bytes.Contains(data, []byte(s)) {
			return true
		}
	}
	return false
}
