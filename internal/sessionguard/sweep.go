package sessionguard

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v4/process"
)

// Killer signals a process group or a bare PID. Overridable in tests.
type Killer func(pid int, sig syscall.Signal) error

func defaultKiller(pid int, sig syscall.Signal) error {
	// Try the process group first; fall back to the bare PID (e.g. when the
	// child never called setsid and has no group of its own).
	if err := syscall.Kill(-pid, sig); err == nil {
		return nil
	}
	return syscall.Kill(pid, sig)
}

// Sweeper performs stale-lease and detached-orphan sweeps.
type Sweeper struct {
	Kill Killer
}

// New returns a Sweeper with the default process-group signaling behavior.
func New() *Sweeper {
	return &Sweeper{Kill: defaultKiller}
}

// CleanupStaleSessions removes lease files whose owner process is gone (or
// whose identity no longer matches), escalating SIGTERM/SIGKILL against any
// child PID that is still alive and still matches the lease. Rate-limited to
// once per StaleCleanupMinInterval regardless of call frequency.
func (s *Sweeper) CleanupStaleSessions() {
	if !Enabled() {
		return
	}
	now := time.Now().UnixMilli()
	last := lastSweepMillis.Load()
	if now-last < StaleCleanupMinInterval.Milliseconds() {
		return
	}
	if !lastSweepMillis.CompareAndSwap(last, now) {
		return // another goroutine won the race; skip this round
	}

	dir := Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		s.sweepLeaseFile(path)
	}
}

func (s *Sweeper) sweepLeaseFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lease, ok := parseLease(string(data))
	if !ok {
		return
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil || !locked {
		// Another process holds the lock: it's the live owner. Leave it alone
		// — this is exactly invariant §8.8 (sweep is a no-op against a live owner).
		return
	}
	defer fl.Unlock()

	if processMatches(lease.OwnerPID, lease.OwnerExecName) {
		return // owner still alive and matches; nothing to do
	}

	if processMatches(lease.ChildPID, lease.ExecName) {
		s.terminateWithEscalation(lease.ChildPID)
	}
	os.Remove(path)
}

func (s *Sweeper) terminateWithEscalation(pid int) {
	_ = s.Kill(pid, syscall.SIGTERM)
	deadline := time.Now().Add(TerminationGrace)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	_ = s.Kill(pid, syscall.SIGKILL)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}

func processMatches(pid int, execName string) bool {
	if !processAlive(pid) {
		return false
	}
	if execName == "" {
		return true
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	name, err := p.Name()
	if err != nil {
		return false
	}
	return name == execName
}

var backendExecNames = map[string]bool{
	"codex": true, "claude": true, "gemini": true, "aider": true, "opencode": true,
}

var shellExecNames = map[string]bool{
	"sh": true, "bash": true, "zsh": true, "fish": true, "nu": true, "ksh": true, "tcsh": true,
}

// SweepDetachedOrphans reaps backend processes from prior runs that were
// reparented to PID 1, still attached to a tty, and have no shell sitting on
// that tty, per spec §4.2's second sweep.
func (s *Sweeper) SweepDetachedOrphans() {
	if !OrphanSweepEnabled() {
		return
	}
	procs, err := process.Processes()
	if err != nil {
		return
	}

	leased := leasedChildPIDs()
	ttyHasShell := map[string]bool{}
	type candidate struct {
		pid int
		tty string
	}
	var candidates []candidate

	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil || ppid != 1 {
			continue
		}
		name, err := p.Name()
		if err != nil || !backendExecNames[name] {
			continue
		}
		tty, err := p.Terminal()
		if err != nil || tty == "" || tty == "?" || tty == "??" {
			continue
		}
		createMs, err := p.CreateTime()
		if err != nil {
			continue
		}
		age := time.Since(time.UnixMilli(createMs))
		if age < OrphanSweepMinAge {
			continue
		}
		if leased[int(p.Pid)] {
			continue
		}
		candidates = append(candidates, candidate{pid: int(p.Pid), tty: tty})
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !shellExecNames[name] {
			continue
		}
		tty, err := p.Terminal()
		if err != nil || tty == "" {
			continue
		}
		ttyHasShell[tty] = true
	}

	for _, c := range candidates {
		if ttyHasShell[c.tty] {
			continue
		}
		s.terminateWithEscalation(c.pid)
	}
}

func leasedChildPIDs() map[int]bool {
	leased := map[int]bool{}
	entries, err := os.ReadDir(Dir())
	if err != nil {
		return leased
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(Dir(), entry.Name()))
		if err != nil {
			continue
		}
		if lease, ok := parseLease(string(data)); ok {
			leased[lease.ChildPID] = true
		}
	}
	return leased
}

// parseEtimeSeconds parses a "ps -o etime=" style elapsed-time string
// ("[[dd-]hh:]mm:ss") into seconds. Retained for parity with the session
// guard's original ps-based implementation and used by tests that exercise
// the format directly.
func parseEtimeSeconds(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	var days int64
	rest := trimmed
	if day, time, ok := strings.Cut(trimmed, "-"); ok {
		d, err := strconv.ParseInt(day, 10, 64)
		if err != nil {
			return 0, false
		}
		days = d
		rest = time
	}
	parts := strings.Split(rest, ":")
	nums := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, false
		}
		nums = append(nums, n)
	}
	var seconds int64
	switch len(nums) {
	case 2:
		seconds = nums[0]*60 + nums[1]
	case 3:
		seconds = nums[0]*3600 + nums[1]*60 + nums[2]
	default:
		return 0, false
	}
	return days*86400 + seconds, true
}
