package ptysession

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

func TestStartAndShutdownCatSession(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	t.Setenv("VOICETERM_SESSION_GUARD", "0")

	s, err := Start(context.Background(), Config{
		Command: "cat",
		Rows:    24,
		Cols:    80,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	buf := make([]byte, 64)
	if _, err := s.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.Read(buf)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed output")
	}

	s.Shutdown()
	s.Shutdown() // must be idempotent
}

func TestIsIdleBeforeAnyRead(t *testing.T) {
	s := &Session{}
	if s.IsIdle(time.Millisecond) {
		t.Fatal("expected IsIdle to be false before any read has occurred")
	}
}

func TestIsBenignShutdownWriteError(t *testing.T) {
	cases := []struct {
		err    error
		benign bool
	}{
		{syscall.EPIPE, true},
		{syscall.EIO, true},
		{syscall.ENXIO, true},
		{syscall.EBADF, true},
		{io.ErrClosedPipe, false},
	}
	for _, c := range cases {
		if got := isBenignShutdownWriteError(c.err); got != c.benign {
			t.Errorf("isBenignShutdownWriteError(%v) = %v, want %v", c.err, got, c.benign)
		}
	}
}
