// Package ptysession spawns a backend CLI inside a PTY so it behaves like a
// true interactive terminal, and owns its shutdown and resize lifecycle.
package ptysession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"voiceterm/internal/sessionguard"
)

// ErrWriteTimeout is returned by Write when the child is not draining its
// input within the write deadline.
var ErrWriteTimeout = errors.New("ptysession: write to child timed out")

// Config describes how to spawn the backend CLI.
type Config struct {
	Command    string
	Args       []string
	WorkingDir string
	Term       string
	Rows       int
	Cols       int
	// WriteTimeout bounds how long Write blocks before reporting the child
	// as hung. Zero means the 3s default.
	WriteTimeout time.Duration
}

// Session owns a single PTY-wrapped child process: its master fd, the
// watchdog lifeline, and the session-guard lease that tracks it across
// process restarts.
type Session struct {
	cfg Config

	ptmx *os.File
	cmd  *exec.Cmd

	mu       sync.Mutex
	lastRead time.Time

	lease        *sessionguard.Lease
	lifelineW    *os.File
	watchdogCmd  *exec.Cmd
	shutdownOnce sync.Once
}

// Start spawns the backend CLI in a PTY at the requested initial size and
// launches its watchdog. The PTY child reads its terminal size exactly once
// at startup; callers must pass the real initial geometry here rather than a
// placeholder that gets resized later, or the child's own layout engine will
// render for the wrong dimensions until its next redraw.
func Start(ctx context.Context, cfg Config) (*Session, error) {
	sweeper := sessionguard.New()
	sweeper.CleanupStaleSessions()
	sweeper.SweepDetachedOrphans()

	if cfg.Rows <= 0 {
		cfg.Rows = 24
	}
	if cfg.Cols <= 0 {
		cfg.Cols = 80
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	if cfg.WorkingDir != "" {
		cmd.Dir = cfg.WorkingDir
	}
	cmd.Env = append(os.Environ(), "TERM="+termOrDefault(cfg.Term))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(cfg.Rows),
		Cols: uint16(cfg.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("start pty child: %w", err)
	}

	s := &Session{cfg: cfg, ptmx: ptmx, cmd: cmd}

	lease, err := sessionguard.Register(cmd.Process.Pid, cfg.Command)
	if err != nil {
		// Non-fatal: the session still runs without a lease, it just won't
		// be reaped by a future sweep if this process crashes.
	}
	s.lease = lease

	if err := s.spawnWatchdog(); err != nil {
		// Watchdog failure is non-fatal: the child still runs, it simply
		// won't be force-reaped if this process dies uncleanly.
		_ = err
	}

	return s, nil
}

func termOrDefault(term string) string {
	if term != "" {
		return term
	}
	return "xterm-256color"
}

// Read reads raw output from the child PTY, recording the read timestamp
// used by IsIdle.
func (s *Session) Read(p []byte) (int, error) {
	n, err := s.ptmx.Read(p)
	if n > 0 {
		s.mu.Lock()
		s.lastRead = time.Now()
		s.mu.Unlock()
	}
	return n, err
}

// RespondOSCColors answers OSC 10/11 foreground/background color queries
// from the child with cached values probed at startup.
func (s *Session) RespondOSCColors(data []byte, fg, bg string) {
	if fg != "" && bytes.Contains(data, []byte("\033]10;?")) {
		fmt.Fprintf(s.ptmx, "\033]10;%s\033\\", fg)
	}
	if bg != "" && bytes.Contains(data, []byte("\033]11;?")) {
		fmt.Fprintf(s.ptmx, "\033]11;%s\033\\", bg)
	}
}

// Write sends bytes to the child, returning ErrWriteTimeout if the child is
// not draining its input within the configured timeout.
func (s *Session) Write(p []byte) (int, error) {
	deadline := time.Now().Add(s.cfg.WriteTimeout)
	if err := s.ptmx.SetWriteDeadline(deadline); err != nil {
		// Not all platforms support PTY write deadlines; fall back to a
		// plain blocking write.
		return s.ptmx.Write(p)
	}
	n, err := s.ptmx.Write(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, ErrWriteTimeout
	}
	return n, err
}

// Resize updates the PTY window size. The child must itself handle SIGWINCH;
// creack/pty.Setsize delivers it.
func (s *Session) Resize(rows, cols int) error {
	return pty.Setsize(s.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// IsIdle reports whether the child has produced no output for at least d.
func (s *Session) IsIdle(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastRead.IsZero() && time.Since(s.lastRead) > d
}

const terminationGrace = 500 * time.Millisecond

// Shutdown asks the child to exit, escalating to SIGTERM then SIGKILL against
// its process group if it does not respond in time. Safe to call more than
// once.
func (s *Session) Shutdown() {
	s.shutdownOnce.Do(func() {
		pid := s.cmd.Process.Pid

		if err := writeTextWithNewline(s.ptmx, "exit"); err != nil && !isBenignShutdownWriteError(err) {
			// Best effort: the child may not read a plain "exit" line at all.
		}
		if waitForExit(pid, terminationGrace) {
			s.finish()
			return
		}

		_ = signalProcessGroupOrPID(pid, syscall.SIGTERM)
		if waitForExit(pid, terminationGrace) {
			s.finish()
			return
		}

		_ = signalProcessGroupOrPID(pid, syscall.SIGKILL)
		waitForExit(pid, terminationGrace)
		s.finish()
	})
}

func (s *Session) finish() {
	s.stopWatchdog()
	s.ptmx.Close()
	if s.lease != nil {
		s.lease.Release()
	}
}

func writeTextWithNewline(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// isBenignShutdownWriteError absorbs the write errors expected when the
// child has already exited or its PTY slave is gone.
func isBenignShutdownWriteError(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.ENXIO) ||
		errors.Is(err, syscall.EBADF) ||
		errors.Is(err, os.ErrClosed)
}

// signalProcessGroupOrPID signals the child's process group; if that fails
// (e.g. the child never became its own group leader) it falls back to
// signaling the bare pid.
func signalProcessGroupOrPID(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err == nil {
		return nil
	}
	return syscall.Kill(pid, sig)
}

// waitForExit polls waitpid(WNOHANG) until the child reaps or timeout elapses.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var status syscall.WaitStatus
		got, err := syscall.Wait4(pid, &status, syscall.WNOHANG, nil)
		if got == pid || (err == nil && status.Exited()) {
			return true
		}
		if err == syscall.ECHILD {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}
