// Package memory implements the append-only journal of significant
// user/backend interactions: one JSON object per line under
// <cwd>/.voiceterm/events.jsonl, mirroring the durable-JSONL-per-session
// discipline of h2's eventstore (one file, O_APPEND, no in-place rewrites).
// This is a write-only sink — retrieval is out of scope.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Source identifies what produced an Event.
type Source string

const (
	SourceVoiceCapture  Source = "voice_capture"
	SourcePTYInput      Source = "pty_input"
	SourcePTYOutput     Source = "pty_output"
	SourceDevtoolOutput Source = "devtool_output"
	SourceGitSummary    Source = "git_summary"
	SourceManual        Source = "manual"
)

// EventType classifies the nature of an Event.
type EventType string

const (
	EventChatTurn         EventType = "chat_turn"
	EventVoiceTranscript  EventType = "voice_transcript"
	EventCommandIntent    EventType = "command_intent"
	EventCommandRun       EventType = "command_run"
	EventFileChange       EventType = "file_change"
	EventTestResult       EventType = "test_result"
	EventDecision         EventType = "decision"
	EventHandoff          EventType = "handoff"
	EventSummary          EventType = "summary"
)

// Role identifies who produced the text of an Event, when applicable.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RetrievalState marks an Event's eligibility for future retrieval passes
// (no retrieval path exists yet; this field is carried for forward
// compatibility with one).
type RetrievalState string

const (
	StateEligible   RetrievalState = "eligible"
	StateQuarantined RetrievalState = "quarantined"
	StateDeprecated RetrievalState = "deprecated"
)

// Artifact references a produced or touched artifact.
type Artifact struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

// Event is one journal record.
type Event struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	Timestamp time.Time `json:"ts"`

	Source    Source    `json:"source"`
	EventType EventType `json:"event_type"`
	Role      Role      `json:"role,omitempty"`
	Text      string    `json:"text,omitempty"`

	TopicTags []string   `json:"topic_tags,omitempty"`
	Entities  []string   `json:"entities,omitempty"`
	TaskRefs  []string   `json:"task_refs,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`

	Importance float64 `json:"importance"`
	Confidence float64 `json:"confidence"`

	RetrievalState RetrievalState `json:"retrieval_state"`
	Hash           string         `json:"hash,omitempty"`
}

const journalRelPath = ".voiceterm/events.jsonl"

// Journal appends Events to <cwd>/.voiceterm/events.jsonl.
type Journal struct {
	file      *os.File
	sessionID string
	projectID string
}

// Open creates (or appends to) the journal file under dir's
// .voiceterm/events.jsonl. sessionID/projectID are stamped onto every
// Event this Journal produces.
func Open(dir, sessionID, projectID string) (*Journal, error) {
	path := filepath.Join(dir, journalRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open memory journal: %w", err)
	}
	return &Journal{file: f, sessionID: sessionID, projectID: projectID}, nil
}

// Nop returns a Journal that discards every event, for runs with journaling
// disabled.
func Nop() *Journal { return &Journal{} }

// Close closes the underlying file. Safe to call on a Nop journal.
func (j *Journal) Close() error {
	if j.file == nil {
		return nil
	}
	return j.file.Close()
}

// Append stamps ev with a fresh event_id/ts (if unset) and this Journal's
// session/project IDs, then writes it as one JSON line.
func (j *Journal) Append(ev Event) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.SessionID == "" {
		ev.SessionID = j.sessionID
	}
	if ev.ProjectID == "" {
		ev.ProjectID = j.projectID
	}
	if ev.RetrievalState == "" {
		ev.RetrievalState = StateEligible
	}
	if j.file == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal memory event: %w", err)
	}
	data = append(data, '\n')
	_, err = j.file.Write(data)
	return err
}

// VoiceTranscript records a transcript as it arrives from the voice
// pipeline, before it is enqueued for delivery. Journaling is best-effort:
// a write failure is swallowed rather than propagated to the event loop.
func (j *Journal) VoiceTranscript(text, source string) {
	_ = j.Append(Event{
		Source:     SourceVoiceCapture,
		EventType:  EventVoiceTranscript,
		Role:       RoleUser,
		Text:       text,
		Entities:   []string{source},
		Importance: 0.5,
		Confidence: 0.8,
	})
}

// InputSubmitted records a line of text submitted to the backend's stdin,
// whether typed or delivered from a released transcript.
func (j *Journal) InputSubmitted(text string) {
	_ = j.Append(Event{
		Source:     SourcePTYInput,
		EventType:  EventChatTurn,
		Role:       RoleUser,
		Text:       text,
		Importance: 0.4,
		Confidence: 1.0,
	})
}

// CommandIntent records a line from PTY output that looked like an error or
// command-intent signal, surfaced by the prompt tracker's error-line cache.
func (j *Journal) CommandIntent(line string) {
	_ = j.Append(Event{
		Source:     SourcePTYOutput,
		EventType:  EventCommandIntent,
		Role:       RoleSystem,
		Text:       line,
		Importance: 0.3,
		Confidence: 0.6,
	})
}
