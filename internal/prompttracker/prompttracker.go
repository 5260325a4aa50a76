// Package prompttracker decides whether the backend CLI is currently at an
// input prompt and whether a buffered transcript may safely be written now
// rather than swallowed by a spinner, a progress animation, or an approval
// modal.
package prompttracker

import (
	"bytes"
	"regexp"
	"strings"
	"time"
)

const (
	maxRollingLines   = 1024
	maxLearnedPatterns = 8

	// promptStabilizeEpsilon is how long a prompt-regex match must have been
	// visible before it is trusted not to still be mid-redraw.
	promptStabilizeEpsilon = 30 * time.Millisecond

	defaultWriteIdle = 50 * time.Millisecond

	// learnMatchThreshold (K) and learnTickWindow (M): a candidate line
	// promoted to a secondary pattern after appearing at the terminal's
	// bottom immediately before user input at least K times within M ticks.
	// Any K in [3,5] and M in [30,60] preserves the behavior this is
	// distilled from; this implementation fixes K=4, M=45.
	learnMatchThreshold = 4
	learnTickWindow     = 45
)

var errorLineRe = regexp.MustCompile(`(?i)\b(error:|fatal:|traceback|panic:)`)

// candidate tracks a not-yet-promoted line's recent sighting history for the
// learning rule.
type candidate struct {
	line      string
	sightings []int // tick indices at which this line appeared at the bottom pre-input
}

// Tracker is the per-session prompt state machine.
type Tracker struct {
	promptRe       *regexp.Regexp
	learnedRe      []*regexp.Regexp
	allowAutoLearn bool

	rollingLines   []string
	lastMatchAt    time.Time
	lastActivityAt time.Time
	lastEnterAt    time.Time
	lastErrorLine  string

	tick        int
	candidates  map[string]*candidate
	learnOrder  []string // promotion order of learned pattern source lines

	occlusion *OcclusionDetector
}

// New constructs a Tracker for the given prompt regexp.
func New(promptRe *regexp.Regexp, allowAutoLearn bool, profile BackendProfile) *Tracker {
	return &Tracker{
		promptRe:       promptRe,
		allowAutoLearn: allowAutoLearn,
		candidates:     make(map[string]*candidate),
		occlusion:      NewOcclusionDetector(profile),
	}
}

// FeedOutput processes a chunk of raw PTY output.
func (t *Tracker) FeedOutput(now time.Time, data []byte) {
	t.occlusion.Feed(now, data)

	lines := splitLinesKeepTail(data)
	for _, line := range lines {
		t.rollingLines = append(t.rollingLines, line)
		if len(t.rollingLines) > maxRollingLines {
			t.rollingLines = t.rollingLines[len(t.rollingLines)-maxRollingLines:]
		}
		if strings.TrimSpace(line) != "" {
			t.lastActivityAt = now
		}
		if errorLineRe.MatchString(line) {
			t.lastErrorLine = line
		}
		if t.matchesAnyPrompt(line) {
			t.lastMatchAt = now
		}
	}
}

func (t *Tracker) matchesAnyPrompt(line string) bool {
	if t.promptRe != nil && t.promptRe.MatchString(line) {
		return true
	}
	for _, re := range t.learnedRe {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// NoteEnter records that the user pressed Enter at now.
func (t *Tracker) NoteEnter(now time.Time) {
	t.lastEnterAt = now
	t.lastActivityAt = now
}

// LastErrorLine returns the most recent line matching an error heuristic.
func (t *Tracker) LastErrorLine() string { return t.lastErrorLine }

// ReadyToInject is the core predicate: may a queued transcript be written
// to the PTY right now? at is the current time; enterIdle/writeIdle are the
// idle windows required since the last Enter and the last output activity.
func (t *Tracker) ReadyToInject(at time.Time, enterIdle, writeIdle time.Duration) bool {
	if writeIdle == 0 {
		writeIdle = defaultWriteIdle
	}
	if t.lastMatchAt.IsZero() {
		return false
	}
	if at.Sub(t.lastMatchAt) < promptStabilizeEpsilon {
		return false
	}
	if t.lastActivityAt.IsZero() || at.Sub(t.lastActivityAt) < writeIdle {
		return false
	}
	if !t.lastEnterAt.IsZero() && at.Sub(t.lastEnterAt) < enterIdle {
		return false
	}
	t.occlusion.Feed(at, nil) // lets an expired StickyHold fall back to Idle
	if t.occlusion.Armed() {
		return false
	}
	return true
}

// ShouldAutoTrigger answers whether an idle prompt should start an
// auto-voice capture.
func (t *Tracker) ShouldAutoTrigger(at time.Time, idle time.Duration, lastAuto time.Time) bool {
	if t.lastActivityAt.IsZero() || at.Sub(t.lastActivityAt) < idle {
		return false
	}
	if !lastAuto.IsZero() && at.Sub(lastAuto) < idle {
		return false
	}
	return true
}

// Learn evaluates the learning rule against the current bottom line, when
// allow_auto_learn is set. Call once per tick with the line currently at the
// bottom of the terminal, immediately before dispatching user input.
func (t *Tracker) Learn(line string) {
	if !t.allowAutoLearn {
		return
	}
	t.tick++
	line = strings.TrimSpace(line)
	if line == "" || t.matchesAnyPrompt(line) {
		return
	}

	c, ok := t.candidates[line]
	if !ok {
		c = &candidate{line: line}
		t.candidates[line] = c
	}
	c.sightings = append(c.sightings, t.tick)
	// drop sightings outside the learning window
	cutoff := t.tick - learnTickWindow
	kept := c.sightings[:0]
	for _, s := range c.sightings {
		if s > cutoff {
			kept = append(kept, s)
		}
	}
	c.sightings = kept

	if len(c.sightings) >= learnMatchThreshold {
		t.promote(line)
		delete(t.candidates, line)
	}
}

func (t *Tracker) promote(line string) {
	re, err := regexp.Compile(regexp.QuoteMeta(line))
	if err != nil {
		return
	}
	t.learnedRe = append(t.learnedRe, re)
	t.learnOrder = append(t.learnOrder, line)
	if len(t.learnedRe) > maxLearnedPatterns {
		// Evict the earliest-promoted learned pattern (first in, first out).
		t.learnedRe = t.learnedRe[1:]
		t.learnOrder = t.learnOrder[1:]
	}
}

// splitLinesKeepTail splits data on '\n', keeping a non-empty trailing
// partial line: a prompt is printed without a newline, so the tail is
// often the very line the prompt regex has to match.
func splitLinesKeepTail(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	parts := bytes.Split(data, []byte("\n"))
	if len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	var lines []string
	for _, p := range parts {
		lines = append(lines, string(bytes.TrimRight(p, "\r")))
	}
	return lines
}
