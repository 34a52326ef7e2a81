package sensing

// lampState is the hysteresis machine's position: the side of the
// threshold band the last command put the lamp on.
type lampState int

const (
	lampOff lampState = iota
	lampOn
)

// Hysteresis is the two-threshold lamp policy. The on threshold sits
// below the off threshold, opening a dead band between them where no
// command fires; a brightness value oscillating inside the band never
// flaps the lamp.
type Hysteresis struct {
	state lampState
}

// Evaluate feeds one brightness sample through the policy. It returns
// whether a command should fire and, if so, the commanded state.
// Commands fire only on transitions: a sample that lands on the side
// the machine is already on produces nothing.
func (h *Hysteresis) Evaluate(brightness, onThreshold, offThreshold float64) (fire bool, on bool) {
	switch {
	case brightness < onThreshold && h.state != lampOn:
		h.state = lampOn
		return true, true
	case brightness > offThreshold && h.state != lampOff:
		h.state = lampOff
		return true, false
	}
	return false, false
}

// State reports whether the machine last commanded the lamp on.
func (h *Hysteresis) State() bool {
	return h.state == lampOn
}
