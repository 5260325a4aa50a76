package voice

import (
	"errors"
	"testing"
	"time"
)

type fakeCapturer struct {
	startCount int
	messages   []Message
}

func (f *fakeCapturer) Start(trigger Trigger) (<-chan Message, CancelFunc, EarlyStopFunc, error) {
	f.startCount++
	ch := make(chan Message, len(f.messages)+1)
	for _, m := range f.messages {
		m.Trigger = trigger
		ch <- m
	}
	close(ch)
	return ch, func() {}, func() {}, nil
}

type fakeWake struct {
	paused  bool
	stopped bool
}

func (f *fakeWake) Start(chan<- struct{}) error { return nil }
func (f *fakeWake) Pause()                      { f.paused = true }
func (f *fakeWake) Resume()                     { f.paused = false }
func (f *fakeWake) Stop()                       { f.stopped = true }

func TestNullCapturerReportsEmpty(t *testing.T) {
	m := NewManager(nil, nil)
	if err := m.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	select {
	case msg := <-m.Messages():
		if msg.Kind != MsgEmpty {
			t.Fatalf("expected MsgEmpty, got %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestManagerPausesWakeListenerWhileActive(t *testing.T) {
	fc := &fakeCapturer{messages: []Message{{Kind: MsgTranscript, Text: "hi"}}}
	fw := &fakeWake{}
	m := NewManager(fc, fw)

	if err := m.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	<-m.Messages() // drain the transcript so pump() reaches finish()

	deadline := time.Now().Add(time.Second)
	for m.IsActive() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if m.IsActive() {
		t.Fatal("expected capture to finish")
	}
	if fw.paused {
		t.Fatal("expected wake listener resumed after capture finished")
	}
}

func TestManagerRejectsSecondCaptureWhileActive(t *testing.T) {
	ch := make(chan Message)
	fc2 := capturerFunc(func(trigger Trigger) (<-chan Message, CancelFunc, EarlyStopFunc, error) {
		return ch, func() {}, func() {}, nil
	})
	m := NewManager(fc2, nil)

	if err := m.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	if !m.IsActive() {
		t.Fatal("expected active capture")
	}
	if err := m.TriggerAuto(); err != nil {
		t.Fatalf("TriggerAuto: %v", err)
	}
	// Still only one underlying capturer.Start call should matter here; since
	// fc2 is a plain func we can't count calls, but the invariant under test
	// is that no error/panic occurs and the manager stays in its single
	// active session.
	close(ch)
}

type capturerFunc func(trigger Trigger) (<-chan Message, CancelFunc, EarlyStopFunc, error)

func (f capturerFunc) Start(trigger Trigger) (<-chan Message, CancelFunc, EarlyStopFunc, error) {
	return f(trigger)
}

func TestManagerPropagatesStartError(t *testing.T) {
	wantErr := errors.New("mic busy")
	m := NewManager(capturerFunc(func(Trigger) (<-chan Message, CancelFunc, EarlyStopFunc, error) {
		return nil, nil, nil, wantErr
	}), nil)
	if err := m.TriggerManual(); err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestMeterThrottle(t *testing.T) {
	base := time.Now()
	if !MeterThrottle(time.Time{}, base, false) {
		t.Fatal("expected first sample to always forward")
	}
	if MeterThrottle(base, base.Add(10*time.Millisecond), false) {
		t.Fatal("expected sample within 80ms floor to be throttled")
	}
	if !MeterThrottle(base, base.Add(81*time.Millisecond), false) {
		t.Fatal("expected sample past 80ms floor to forward")
	}
	if MeterThrottle(base, base.Add(85*time.Millisecond), true) {
		t.Fatal("expected JetBrains floor (90ms) to still throttle at 85ms")
	}
}
