package fusion

// StationaryDetector classifies the device as moving or stationary from the
// gyro magnitude. Its whole state is the timestamp since which every sample
// stayed below the threshold; the classification is a pure function of that
// timestamp and the current time.
//
// Entering STATIONARY requires the magnitude to stay below the threshold for
// the full debounce interval. A single sample at or above the threshold
// forces MOVING immediately, with no debounce, so drift correction can never
// fight an intentional turn.
type StationaryDetector struct {
	belowSince float64
	haveBelow  bool
}

// Update feeds one gyro magnitude reading (deg/s, bias-corrected) taken at
// time t and returns the resulting classification.
func (d *StationaryDetector) Update(gyroMag, t, threshold, debounceS float64) bool {
	if gyroMag >= threshold {
		d.haveBelow = false
		return false
	}
	if !d.haveBelow {
		d.haveBelow = true
		d.belowSince = t
	}
	return t-d.belowSince >= debounceS
}

// Reset discards debounce progress, forcing MOVING until the debounce
// interval elapses again.
func (d *StationaryDetector) Reset() {
	d.haveBelow = false
}
