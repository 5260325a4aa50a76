// Package sessionguard tracks PTY child ownership across process restarts so
// a new voiceterm run can reap stale backend children left behind by a prior
// run that crashed before its watchdog could clean up.
package sessionguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
)

const (
	guardDirEnv     = "VOICETERM_SESSION_GUARD_DIR"
	guardEnabledEnv = "VOICETERM_SESSION_GUARD"
	orphanSweepEnv  = "VOICETERM_ORPHAN_SWEEP"
	guardDirName    = "voiceterm-session-guard"

	// StaleCleanupMinInterval rate-limits sweeps process-wide.
	StaleCleanupMinInterval = 2 * time.Second
	// OrphanSweepMinAge is the minimum elapsed time before a detached
	// backend process is considered an orphan candidate.
	OrphanSweepMinAge = 60 * time.Second
	// TerminationGrace is how long a sweep waits after SIGTERM before SIGKILL.
	TerminationGrace = 500 * time.Millisecond
)

// Lease records a single owned PTY child on disk.
type Lease struct {
	OwnerPID       int
	OwnerExecName  string
	OwnerStartTime string // optional, "ps lstart" format
	ChildPID       int
	ExecName       string
	ChildStartTime string // optional

	path string
	lock *flock.Flock
}

var sweepSequence atomic.Uint64
var lastSweepMillis atomic.Int64

// Enabled reports whether the session guard is active (env toggle default on).
func Enabled() bool {
	return !isFalsy(os.Getenv(guardEnabledEnv))
}

// OrphanSweepEnabled reports whether the detached-orphan sweep is active.
func OrphanSweepEnabled() bool {
	return !isFalsy(os.Getenv(orphanSweepEnv))
}

func isFalsy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "off":
		return true
	default:
		return false
	}
}

// Dir returns the directory lease files are written under.
func Dir() string {
	if d := strings.TrimSpace(os.Getenv(guardDirEnv)); d != "" {
		return d
	}
	return filepath.Join(os.TempDir(), guardDirName)
}

func execBasename(cmd string) string {
	return filepath.Base(cmd)
}

// Register creates and locks a lease file for a newly-owned PTY child.
// The returned Lease must be released with Release when the child is reaped.
func Register(childPID int, command string) (*Lease, error) {
	if !Enabled() {
		return nil, nil
	}
	dir := Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session guard dir: %w", err)
	}

	l := &Lease{
		OwnerPID:      os.Getpid(),
		OwnerExecName: ownerExecName(),
		ChildPID:      childPID,
		ExecName:      execBasename(command),
	}
	seq := sweepSequence.Add(1)
	name := fmt.Sprintf("session-%d-%d-%d-%d.lease", l.OwnerPID, l.ChildPID, time.Now().UnixNano(), seq)
	l.path = filepath.Join(dir, name)

	if err := os.WriteFile(l.path, []byte(l.toText()), 0o600); err != nil {
		return nil, fmt.Errorf("write lease file: %w", err)
	}
	l.lock = flock.New(l.path)
	// Shared lock: signals "this lease is live"; a sweep takes an exclusive
	// try-lock before deleting, so it can never race this process's own
	// lease (testable property: sweep is a no-op against a live owner).
	if _, err := l.lock.TryRLock(); err != nil {
		os.Remove(l.path)
		return nil, fmt.Errorf("lock lease file: %w", err)
	}
	return l, nil
}

// Release removes the lease file and drops its lock.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	if l.lock != nil {
		l.lock.Unlock()
	}
	if l.path != "" {
		os.Remove(l.path)
	}
}

func ownerExecName() string {
	exe, err := os.Executable()
	if err != nil {
		return "voiceterm"
	}
	return filepath.Base(exe)
}

func (l *Lease) toText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "owner_pid=%d\n", l.OwnerPID)
	fmt.Fprintf(&b, "owner_exec_name=%s\n", l.OwnerExecName)
	fmt.Fprintf(&b, "child_pid=%d\n", l.ChildPID)
	fmt.Fprintf(&b, "exec_name=%s\n", l.ExecName)
	if l.OwnerStartTime != "" {
		fmt.Fprintf(&b, "owner_start_time=%s\n", l.OwnerStartTime)
	}
	if l.ChildStartTime != "" {
		fmt.Fprintf(&b, "child_start_time=%s\n", l.ChildStartTime)
	}
	return b.String()
}

func parseLease(text string) (*Lease, bool) {
	l := &Lease{}
	haveOwner, haveChild, haveExec := false, false, false
	haveOwnerExec := false
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "owner_pid":
			n, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			l.OwnerPID = n
			haveOwner = true
		case "owner_exec_name":
			l.OwnerExecName = value
			haveOwnerExec = true
		case "owner_start_time":
			l.OwnerStartTime = value
		case "child_pid":
			n, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			l.ChildPID = n
			haveChild = true
		case "exec_name":
			l.ExecName = value
			haveExec = true
		case "child_start_time":
			l.ChildStartTime = value
		}
	}
	if !haveOwner || !haveChild || !haveExec {
		return nil, false
	}
	if !haveOwnerExec {
		l.OwnerExecName = "voiceterm"
	}
	if strings.TrimSpace(l.OwnerExecName) == "" || strings.TrimSpace(l.ExecName) == "" {
		return nil, false
	}
	return l, true
}
