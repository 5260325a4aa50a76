// Package transcript implements the bounded transcript delivery queue that
// releases buffered voice transcripts into the PTY once the prompt tracker
// says it is safe to do so.
package transcript

import (
	"github.com/google/uuid"
)

// TargetMode controls how a record is delivered.
type TargetMode int

const (
	// TargetAuto appends a newline, submitting the transcript immediately.
	TargetAuto TargetMode = iota
	// TargetInsert delivers text only; the user must press Enter.
	TargetInsert
)

// Record is one pending transcript.
type Record struct {
	ID         string
	Text       string
	Source     string
	TargetMode TargetMode
}

const capacity = 16

// Queue is a bounded FIFO with drop-oldest overflow.
type Queue struct {
	items []Record
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Enqueue adds a record, returning the dropped record (and true) if the
// queue was already at capacity.
func (q *Queue) Enqueue(text, source string, mode TargetMode) (Record, bool) {
	rec := Record{ID: uuid.NewString(), Text: text, Source: source, TargetMode: mode}
	var dropped Record
	var didDrop bool
	if len(q.items) >= capacity {
		dropped = q.items[0]
		q.items = q.items[1:]
		didDrop = true
	}
	q.items = append(q.items, rec)
	return dropped, didDrop
}

// Len returns the number of pending records.
func (q *Queue) Len() int { return len(q.items) }

// Front returns the head record without removing it.
func (q *Queue) Front() (Record, bool) {
	if len(q.items) == 0 {
		return Record{}, false
	}
	return q.items[0], true
}

// Pop removes the head record.
func (q *Queue) Pop() {
	if len(q.items) == 0 {
		return
	}
	q.items = q.items[1:]
}

// RequeueFront pushes a record back onto the front, used when a PTY write
// would have blocked after Front was already observed.
func (q *Queue) RequeueFront(rec Record) {
	q.items = append([]Record{rec}, q.items...)
}

// PTYWriter writes bytes to the backend child, reporting whether the write
// would block rather than treating that as an error.
type PTYWriter interface {
	TryWrite(p []byte) (n int, wouldBlock bool, err error)
}

// ReadyChecker answers the prompt tracker's ready_to_inject predicate.
type ReadyChecker func() bool

// StatusSetter surfaces a short transient status line (e.g. "sent
// transcript (source=voice)").
type StatusSetter func(text string)

// OnEnter records that an Auto-delivered transcript counts as a submitted
// Enter, which the prompt tracker needs to gate enter_idle.
type OnEnter func()

// Deliver runs one pass of the delivery algorithm: while the queue is
// non-empty and the prompt tracker is ready, write the head transcript. It
// stops as soon as the PTY would block (requeuing the head) or the tracker
// is not ready.
func Deliver(q *Queue, ready ReadyChecker, w PTYWriter, onEnter OnEnter, setStatus StatusSetter) {
	for {
		if q.Len() == 0 {
			return
		}
		if !ready() {
			return
		}
		head, ok := q.Front()
		if !ok {
			return
		}
		q.Pop()

		payload := []byte(head.Text)
		if head.TargetMode == TargetAuto {
			payload = append(payload, '\n')
		}

		n, wouldBlock, err := w.TryWrite(payload)
		if err != nil {
			// Best-effort: drop the record rather than spin forever on a
			// broken PTY; the event loop surfaces the write error elsewhere.
			return
		}
		if wouldBlock {
			q.RequeueFront(head)
			return
		}
		if n < len(payload) {
			// TryWrite is contracted as all-or-would-block; a short write
			// with no error and wouldBlock=false means some bytes already
			// reached the PTY. Requeuing the whole record would resend
			// those bytes, so drop it instead of risking duplication.
			return
		}

		if head.TargetMode == TargetAuto && onEnter != nil {
			onEnter()
		}
		if setStatus != nil {
			setStatus("sent transcript (source=" + head.Source + ")")
		}
	}
}
