package memory

// State describes where a session sits in the compaction lifecycle. It is
// never stored; it is computed from the turn count on every cycle.
type State int

const (
	// StateCold: not enough turns to fill the raw buffer.
	StateCold State = iota
	// StateWarm: buffer full, compaction eligible but not yet triggered.
	StateWarm
	// StateDue: threshold crossed, compaction should run.
	StateDue
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateWarm:
		return "warm"
	case StateDue:
		return "due"
	default:
		return "unknown"
	}
}

// StateFor computes the compaction state from a turn count and the configured
// buffer size and summary threshold.
func StateFor(count, bufferSize, summaryThreshold int) State {
	switch {
	case count < bufferSize:
		return StateCold
	case count < summaryThreshold:
		return StateWarm
	default:
		return StateDue
	}
}
