package sessionguard

import (
	"strings"
	"testing"
)

func TestLeaseRoundTrip(t *testing.T) {
	l := &Lease{
		OwnerPID:      1234,
		OwnerExecName: "voiceterm",
		ChildPID:      5678,
		ExecName:      "claude",
	}
	text := l.toText()
	got, ok := parseLease(text)
	if !ok {
		t.Fatalf("parseLease failed on: %q", text)
	}
	if got.OwnerPID != l.OwnerPID || got.ChildPID != l.ChildPID {
		t.Fatalf("pid mismatch: got %+v", got)
	}
	if got.OwnerExecName != l.OwnerExecName || got.ExecName != l.ExecName {
		t.Fatalf("exec name mismatch: got %+v", got)
	}
}

func TestLeaseRoundTripWithStartTimes(t *testing.T) {
	l := &Lease{
		OwnerPID:       1,
		OwnerExecName:  "voiceterm",
		OwnerStartTime: "Mon Jan 2 15:04:05 2006",
		ChildPID:       2,
		ExecName:       "codex",
		ChildStartTime: "Mon Jan 2 15:05:00 2006",
	}
	got, ok := parseLease(l.toText())
	if !ok {
		t.Fatal("parseLease failed")
	}
	if got.OwnerStartTime != l.OwnerStartTime || got.ChildStartTime != l.ChildStartTime {
		t.Fatalf("start time mismatch: got %+v", got)
	}
}

func TestParseLeaseRejectsMissingFields(t *testing.T) {
	cases := []string{
		"",
		"owner_pid=1\n",
		"owner_pid=1\nchild_pid=2\n",
		"owner_pid=notanumber\nchild_pid=2\nexec_name=claude\n",
		"owner_pid=1\nowner_exec_name=\nchild_pid=2\nexec_name=claude\n",
	}
	for _, c := range cases {
		if _, ok := parseLease(c); ok {
			t.Errorf("expected parseLease to reject %q", c)
		}
	}
}

func TestIsFalsy(t *testing.T) {
	for _, v := range []string{"0", "false", "False", "off", " OFF "} {
		if !isFalsy(v) {
			t.Errorf("expected %q to be falsy", v)
		}
	}
	for _, v := range []string{"", "1", "true", "on", "yes"} {
		if isFalsy(v) {
			t.Errorf("expected %q to not be falsy", v)
		}
	}
}

func TestDirUsesEnvOverride(t *testing.T) {
	t.Setenv("VOICETERM_SESSION_GUARD_DIR", "/tmp/custom-guard-dir")
	if got := Dir(); got != "/tmp/custom-guard-dir" {
		t.Fatalf("expected env override, got %q", got)
	}
}

func TestDirDefaultsUnderTempDir(t *testing.T) {
	t.Setenv("VOICETERM_SESSION_GUARD_DIR", "")
	if got := Dir(); !strings.HasSuffix(got, guardDirName) {
		t.Fatalf("expected default dir to end with %q, got %q", guardDirName, got)
	}
}

func TestRegisterAndRelease(t *testing.T) {
	t.Setenv("VOICETERM_SESSION_GUARD_DIR", t.TempDir())
	t.Setenv("VOICETERM_SESSION_GUARD", "1")

	l, err := Register(99999, "/usr/bin/claude")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if l == nil {
		t.Fatal("expected non-nil lease")
	}
	if l.ExecName != "claude" {
		t.Fatalf("expected exec_name=claude, got %q", l.ExecName)
	}
	l.Release()
}

func TestRegisterNoopWhenDisabled(t *testing.T) {
	t.Setenv("VOICETERM_SESSION_GUARD_DIR", t.TempDir())
	t.Setenv("VOICETERM_SESSION_GUARD", "0")

	l, err := Register(1, "/bin/sh")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if l != nil {
		t.Fatal("expected nil lease when guard disabled")
	}
}
