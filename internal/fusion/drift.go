package fusion

// DriftCorrector nudges the estimate toward a reference over one smoothing
// window. On engagement it records the window start and the orientation gap;
// every tick it re-derives the curve value from the elapsed time and applies
// only the increment since the previous tick.
//
// When the curve or the time constant changes mid-window, progress is rebased
// to the new parameterization at the current elapsed time: the correction
// already applied stays put and subsequent ticks follow the new curve's
// marginal steps, so a live switch never jumps the output.
type DriftCorrector struct {
	active bool
	t0     float64

	deltaPitch float64
	deltaRoll  float64
	deltaYaw   float64
	hasYaw     bool

	curve      Curve
	smoothingS float64
	gPrev      float64
}

// Engage opens a correction window at time t0 for the given gaps under the
// given curve and time constant. A yaw gap is only present when a fresh
// vision reference exists.
func (d *DriftCorrector) Engage(t0, gapPitch, gapRoll, gapYaw float64, hasYaw bool, curve Curve, smoothingS float64) {
	d.active = true
	d.t0 = t0
	d.deltaPitch = gapPitch
	d.deltaRoll = gapRoll
	d.deltaYaw = gapYaw
	d.hasYaw = hasYaw
	d.curve = curve
	d.smoothingS = smoothingS
	d.gPrev = 0
}

// Cancel abandons the window; corrections already applied stay applied.
func (d *DriftCorrector) Cancel() {
	d.active = false
}

// Active reports whether a correction window is open.
func (d *DriftCorrector) Active() bool { return d.active }

// Step advances the window to time t under the given curve and time constant
// and returns this tick's increments. done is true once the window has run
// its course; the window closes itself.
func (d *DriftCorrector) Step(t float64, curve Curve, smoothingS float64) (dPitch, dRoll, dYaw float64, done bool) {
	if !d.active {
		return 0, 0, 0, false
	}

	f := d.fraction(t, smoothingS)
	if curve != d.curve || smoothingS != d.smoothingS {
		d.curve = curve
		d.smoothingS = smoothingS
		d.gPrev = curve.Value(f)
	}
	g := curve.Value(f)

	inc := g - d.gPrev
	d.gPrev = g

	dPitch = d.deltaPitch * inc
	dRoll = d.deltaRoll * inc
	if d.hasYaw {
		dYaw = d.deltaYaw * inc
	}

	if f >= 1 {
		d.active = false
		return dPitch, dRoll, dYaw, true
	}
	return dPitch, dRoll, dYaw, false
}

func (d *DriftCorrector) fraction(t, smoothingS float64) float64 {
	if smoothingS <= 0 {
		return 1
	}
	f := (t - d.t0) / smoothingS
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
