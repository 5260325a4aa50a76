package hud

import "testing"

func TestMillisSeverityThresholds(t *testing.T) {
	cases := []struct {
		ms   float64
		want LatencySeverity
	}{
		{100, LatencyGood},
		{299, LatencyGood},
		{300, LatencyWarning},
		{499, LatencyWarning},
		{500, LatencyBad},
		{900, LatencyBad},
	}
	for _, c := range cases {
		if got := millisSeverity(c.ms); got != c.want {
			t.Errorf("millisSeverity(%v) = %v, want %v", c.ms, got, c.want)
		}
	}
}

func TestRTFSeverityThresholds(t *testing.T) {
	cases := []struct {
		rtf  float64
		want LatencySeverity
	}{
		{0.1, LatencyGood},
		{0.34, LatencyGood},
		{0.35, LatencyWarning},
		{0.64, LatencyWarning},
		{0.65, LatencyBad},
	}
	for _, c := range cases {
		if got := rtfSeverity(c.rtf); got != c.want {
			t.Errorf("rtfSeverity(%v) = %v, want %v", c.rtf, got, c.want)
		}
	}
}

func TestLatencyBadgeSeverityWorseWins(t *testing.T) {
	st := State{
		HasLatencySample: true, LatencyMillis: 100, // good
		HasRTFSample: true, RealTimeFactor: 0.9, // bad
	}
	if got := LatencyBadgeSeverity(st); got != LatencyBad {
		t.Fatalf("expected worse (bad) severity to win, got %v", got)
	}
}

func TestLatencyBadgeSeverityGoodWhenNoSamples(t *testing.T) {
	if got := LatencyBadgeSeverity(State{}); got != LatencyGood {
		t.Fatalf("expected good severity absent any sample, got %v", got)
	}
}

func TestFormatQueueBadgeEmptyWhenZero(t *testing.T) {
	if got := formatQueueBadge(0); got != "" {
		t.Fatalf("expected empty badge, got %q", got)
	}
	if got := formatQueueBadge(3); got != "q:3" {
		t.Fatalf("got %q", got)
	}
}
