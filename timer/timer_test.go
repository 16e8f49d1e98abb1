package timer

import "testing"

type recordingSink struct {
	calls []struct {
		duration int
		phase    Phase
	}
}

func (r *recordingSink) Record(duration int, phase Phase) {
	r.calls = append(r.calls, struct {
		duration int
		phase    Phase
	}{duration, phase})
}

func TestNewStartsStoppedInFocus(t *testing.T) {
	m := New(nil)
	if m.Phase() != PhaseFocus {
		t.Fatalf("phase = %s, want FOCUS", m.Phase())
	}
	if m.Remaining() != FocusMinutes*60 {
		t.Fatalf("remaining = %d, want %d", m.Remaining(), FocusMinutes*60)
	}
	if m.Running() {
		t.Fatal("new machine must be stopped")
	}
}

func TestTickIgnoredWhileStopped(t *testing.T) {
	m := New(nil)
	for i := 0; i < 100; i++ {
		m.Tick()
	}
	if m.Remaining() != FocusMinutes*60 {
		t.Fatalf("stopped machine ticked down to %d", m.Remaining())
	}
}

func TestToggleStartsAndPausesWithoutResetting(t *testing.T) {
	m := New(nil)
	m.Toggle()
	if !m.Running() {
		t.Fatal("toggle must start the countdown")
	}
	m.Tick()
	m.Tick()
	m.Toggle()
	if m.Running() {
		t.Fatal("toggle must pause the countdown")
	}
	if m.Remaining() != FocusMinutes*60-2 {
		t.Fatalf("remaining = %d, pause must keep elapsed time", m.Remaining())
	}
	m.Toggle()
	m.Tick()
	if m.Remaining() != FocusMinutes*60-3 {
		t.Fatalf("remaining = %d after resume", m.Remaining())
	}
}

func TestFocusCompletionFlipsToBreak(t *testing.T) {
	sink := &recordingSink{}
	m := New(sink)
	m.Toggle()
	for i := 0; i < FocusMinutes*60; i++ {
		m.Tick()
	}

	if m.Phase() != PhaseBreak {
		t.Fatalf("phase = %s, want BREAK", m.Phase())
	}
	if m.Remaining() != BreakMinutes*60 {
		t.Fatalf("remaining = %d, want %d", m.Remaining(), BreakMinutes*60)
	}
	if m.Running() {
		t.Fatal("completed interval must leave the machine stopped")
	}
	if len(sink.calls) != 1 {
		t.Fatalf("expected exactly 1 recorded interval, got %d", len(sink.calls))
	}
	if sink.calls[0].duration != FocusMinutes || sink.calls[0].phase != PhaseFocus {
		t.Fatalf("recorded %+v, want nominal focus interval", sink.calls[0])
	}

	// Further ticks while stopped must not decrement or double-record.
	m.Tick()
	if m.Remaining() != BreakMinutes*60 || len(sink.calls) != 1 {
		t.Fatal("stopped machine advanced after completion")
	}
}

func TestBreakCompletionFlipsToFocus(t *testing.T) {
	sink := &recordingSink{}
	m := New(sink)
	m.Toggle()
	for i := 0; i < FocusMinutes*60; i++ {
		m.Tick()
	}
	m.Toggle()
	for i := 0; i < BreakMinutes*60; i++ {
		m.Tick()
	}

	if m.Phase() != PhaseFocus {
		t.Fatalf("phase = %s, want FOCUS", m.Phase())
	}
	if m.Remaining() != FocusMinutes*60 {
		t.Fatalf("remaining = %d, want full focus interval", m.Remaining())
	}
	if len(sink.calls) != 2 {
		t.Fatalf("expected 2 recorded intervals, got %d", len(sink.calls))
	}
	if sink.calls[1].duration != BreakMinutes || sink.calls[1].phase != PhaseBreak {
		t.Fatalf("recorded %+v, want nominal break interval", sink.calls[1])
	}
}

func TestResetDiscardsProgressSilently(t *testing.T) {
	sink := &recordingSink{}
	m := New(sink)
	m.Toggle()
	for i := 0; i < 600; i++ {
		m.Tick()
	}
	m.Reset()

	if m.Phase() != PhaseFocus || m.Remaining() != FocusMinutes*60 || m.Running() {
		t.Fatalf("reset left machine in phase=%s remaining=%d running=%v", m.Phase(), m.Remaining(), m.Running())
	}
	if len(sink.calls) != 0 {
		t.Fatalf("reset must not record, got %d calls", len(sink.calls))
	}
}

func TestResetDuringBreakReturnsToFocus(t *testing.T) {
	m := New(nil)
	m.Toggle()
	for i := 0; i < FocusMinutes*60; i++ {
		m.Tick()
	}
	m.Toggle()
	m.Tick()
	m.Reset()

	if m.Phase() != PhaseFocus || m.Remaining() != FocusMinutes*60 {
		t.Fatalf("reset from break left phase=%s remaining=%d", m.Phase(), m.Remaining())
	}
}
