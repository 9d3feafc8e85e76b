package state

// Phase is a room lifecycle state.
type Phase int

const (
	Waiting Phase = iota
	Starting
	Playing
	Ended
	Disposed
)

var phaseNames = [...]string{
	Waiting:  "waiting",
	Starting: "starting",
	Playing:  "playing",
	Ended:    "ended",
	Disposed: "disposed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// MarshalText lets phases appear by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
