package sensing

import "math"

// round3 rounds to three decimals, the precision published on the bus.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// changeGate suppresses republishes of readings the bus has already
// seen. Brightness is compared after rounding, so the gate tracks
// exactly the value subscribers receive.
type changeGate struct {
	hasLast        bool
	lastBrightness float64
	lastPresence   bool
}

// observe records one sample and reports which of the two readings
// changed. The first sample ever seen reports both.
func (g *changeGate) observe(brightness float64, presence bool) (pubBrightness, pubPresence bool) {
	rounded := round3(brightness)
	if !g.hasLast {
		g.hasLast = true
		g.lastBrightness = rounded
		g.lastPresence = presence
		return true, true
	}

	pubBrightness = rounded != g.lastBrightness
	pubPresence = presence != g.lastPresence
	g.lastBrightness = rounded
	g.lastPresence = presence
	return pubBrightness, pubPresence
}
