// Package timer implements the client-local Pomodoro countdown. State
// lives entirely on the client; the server only learns about an interval
// once it completes.
package timer

// Phase is the interval type currently counting down.
type Phase string

const (
	PhaseFocus Phase = "FOCUS"
	PhaseBreak Phase = "BREAK"
)

// Interval lengths in minutes. A completed interval is always recorded
// with its nominal length, not elapsed wall-clock time, so pausing and
// resuming does not shrink the recorded session.
const (
	FocusMinutes = 25
	BreakMinutes = 5
)

// Sink receives completed intervals. Implementations must not block the
// tick loop.
type Sink interface {
	Record(duration int, phase Phase)
}

// Machine is the two-state countdown. It is not safe for concurrent use;
// the UI event loop owns it and ticks it once per second while running.
type Machine struct {
	phase     Phase
	remaining int // seconds
	running   bool
	sink      Sink
}

// New returns a stopped machine in the focus phase with the full interval
// remaining.
func New(sink Sink) *Machine {
	return &Machine{phase: PhaseFocus, remaining: FocusMinutes * 60, sink: sink}
}

// Phase returns the current interval type.
func (m *Machine) Phase() Phase { return m.phase }

// Remaining returns the seconds left in the current interval.
func (m *Machine) Remaining() int { return m.remaining }

// Running reports whether ticks currently advance the countdown.
func (m *Machine) Running() bool { return m.running }

// Toggle starts or pauses the countdown without touching the remaining
// time.
func (m *Machine) Toggle() {
	m.running = !m.running
}

// Reset forces the focus phase with the full interval remaining and stops
// the countdown. Nothing is recorded.
func (m *Machine) Reset() {
	m.phase = PhaseFocus
	m.remaining = FocusMinutes * 60
	m.running = false
}

// Tick advances the countdown by one second. When the interval reaches
// zero the machine flips phase, stops, and hands the completed interval to
// the sink with its nominal duration.
func (m *Machine) Tick() {
	if !m.running {
		return
	}
	m.remaining--
	if m.remaining > 0 {
		return
	}

	completed := m.phase
	m.running = false
	switch completed {
	case PhaseFocus:
		m.phase = PhaseBreak
		m.remaining = BreakMinutes * 60
		m.record(FocusMinutes, PhaseFocus)
	case PhaseBreak:
		m.phase = PhaseFocus
		m.remaining = FocusMinutes * 60
		m.record(BreakMinutes, PhaseBreak)
	}
}

func (m *Machine) record(duration int, phase Phase) {
	if m.sink == nil {
		return
	}
	m.sink.Record(duration, phase)
}
