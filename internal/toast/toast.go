// Package toast implements the bounded transient-notification center: an
// active set of at most three concurrent toasts and a bounded history ring,
// ported field-for-field from the Rust original's toast.rs.
package toast

import "time"

// Severity is a toast's urgency level.
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

// HistoryMax bounds the history ring (TOAST_HISTORY_MAX in the original).
const HistoryMax = 50

const maxActive = 3

func defaultDismissDuration(sev Severity) time.Duration {
	switch sev {
	case Warning:
		return 6 * time.Second
	case Error:
		return 8 * time.Second
	default: // Info, Success
		return 4 * time.Second
	}
}

// Toast is a single notification.
type Toast struct {
	ID        uint64
	Severity  Severity
	Message   string
	CreatedAt time.Time
	DismissAt time.Time
	Dismissed bool
}

// Center owns the active set and history ring.
type Center struct {
	nextID  uint64
	active  []Toast
	history []Toast
}

// NewCenter returns an empty Center.
func NewCenter() *Center { return &Center{} }

// Push adds a toast. If the active set is already at capacity, the oldest
// active toast is popped into history (marked dismissed) first.
func (c *Center) Push(now time.Time, sev Severity, message string, dismissAfter time.Duration) Toast {
	if dismissAfter <= 0 {
		dismissAfter = defaultDismissDuration(sev)
	}
	c.nextID++
	t := Toast{
		ID:        c.nextID,
		Severity:  sev,
		Message:   message,
		CreatedAt: now,
		DismissAt: now.Add(dismissAfter),
	}
	if len(c.active) >= maxActive {
		oldest := c.active[0]
		c.active = c.active[1:]
		c.moveToHistory(oldest)
	}
	c.active = append(c.active, t)
	return t
}

// Tick drops every active toast whose DismissAt has passed, moving them to
// history.
func (c *Center) Tick(now time.Time) {
	var kept []Toast
	for _, t := range c.active {
		if now.After(t.DismissAt) {
			c.moveToHistory(t)
			continue
		}
		kept = append(kept, t)
	}
	c.active = kept
}

// DismissLatest moves the most recently pushed active toast to history.
func (c *Center) DismissLatest() {
	if len(c.active) == 0 {
		return
	}
	last := c.active[len(c.active)-1]
	c.active = c.active[:len(c.active)-1]
	c.moveToHistory(last)
}

// DismissAll moves every active toast to history.
func (c *Center) DismissAll() {
	for _, t := range c.active {
		c.moveToHistory(t)
	}
	c.active = nil
}

func (c *Center) moveToHistory(t Toast) {
	t.Dismissed = true
	c.history = append(c.history, t)
	if len(c.history) > HistoryMax {
		c.history = c.history[len(c.history)-HistoryMax:]
	}
}

// Active returns the current active set, oldest first.
func (c *Center) Active() []Toast { return c.active }

// History returns the history ring, oldest first.
func (c *Center) History() []Toast { return c.history }
