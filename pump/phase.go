package pump

// Phase of the pump life cycle
type Phase int32

const (
	// Idle is before Run was called
	Idle Phase = iota
	// Running is submitting frames
	Running
	// Draining is releasing the frame buffer after the loop ended
	Draining
	// Stopped is after Run returned
	Stopped
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
