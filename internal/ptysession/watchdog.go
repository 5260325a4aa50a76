package ptysession

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"
)

// WatchdogSubcommand is the hidden CLI subcommand name the binary re-execs
// itself as. Go cannot safely fork() without exec(), so instead of the
// original's second raw fork we re-exec the running binary and hand the
// child one end of a lifeline pipe.
const WatchdogSubcommand = "_ptywatchdog"

// spawnWatchdog launches a detached copy of the current binary running
// RunWatchdog, connected to this process by a pipe. When this process dies
// (for any reason, including SIGKILL) the pipe's write end closes, the
// watchdog's blocking read returns, and it kills the child's process group.
func (s *Session) spawnWatchdog() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create lifeline pipe: %w", err)
	}

	cmd := exec.Command(exe, WatchdogSubcommand, strconv.Itoa(s.cmd.Process.Pid))
	cmd.ExtraFiles = []*os.File{r}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return fmt.Errorf("start watchdog: %w", err)
	}
	// The watchdog owns fd 3 (the read end) in its own process now; this
	// process must close its copy so the pipe only stays open via the
	// watchdog's inherited fd and this process's write end.
	r.Close()

	s.lifelineW = w
	s.watchdogCmd = cmd
	go cmd.Wait() // reap; we don't care about its exit status

	return nil
}

// stopWatchdog closes the lifeline write end, telling the watchdog this
// session shut its child down cleanly and no reaping is needed.
func (s *Session) stopWatchdog() {
	if s.lifelineW != nil {
		s.lifelineW.Close()
		s.lifelineW = nil
	}
}

// RunWatchdog is the entry point for the hidden WatchdogSubcommand. It blocks
// reading fd 3 (the lifeline pipe's read end, inherited via ExtraFiles) until
// EOF, then escalates SIGTERM/SIGKILL against targetPID's process group.
// Call this from main() when os.Args[1] == WatchdogSubcommand, passing
// os.Args[2] as targetPID.
func RunWatchdog(targetPID int) {
	lifeline := os.NewFile(3, "lifeline")
	buf := make([]byte, 1)
	for {
		n, err := lifeline.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}

	if !processAliveWatchdog(targetPID) {
		return
	}
	_ = signalProcessGroupOrPID(targetPID, syscall.SIGTERM)

	deadline := time.Now().Add(terminationGrace)
	for time.Now().Before(deadline) {
		if !processAliveWatchdog(targetPID) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	_ = signalProcessGroupOrPID(targetPID, syscall.SIGKILL)
}

func processAliveWatchdog(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || err == syscall.EPERM
}
