package fusion

// Parameter ranges enforced at the control boundary. Values outside are
// rejected with the prior value retained, never clamped.
const (
	minCalSamples = 500
	maxCalSamples = 5000

	maxCenterThreshold  = 180.0  // deg
	maxGyroThreshold    = 2000.0 // deg/s, gyro full scale
	maxDebounceS        = 10.0
	maxSmoothingTimeS   = 60.0
	maxAccelThresholdG  = 1.0
	minAccelNorm        = 0.01 // below this the accel reading is unusable
	driftGapEpsilonDeg  = 0.1  // smallest gap worth opening a correction window for
	visionFreshnessSecs = 1.0
)

// Config holds the live-tunable filter parameters. It is owned by the fusion
// worker and mutated only through control commands; everything else reads it
// each update cycle.
type Config struct {
	// Per-axis complementary blend weights, open interval (0,1).
	// Yaw has no reference term (pure integration), so AlphaYaw is accepted
	// and kept current but does not enter the blend.
	AlphaYaw   float64
	AlphaPitch float64
	AlphaRoll  float64

	// Dead-zone in degrees applied to the published estimate, after drift
	// blending. Changes smaller than this are suppressed to kill jitter at
	// rest.
	CenterThreshold float64

	// Accel magnitude window around 1 g inside which the accelerometer is
	// trusted as a gravity reference.
	AccelThreshold float64

	// Stationary classification: gyro magnitude (deg/s) must stay below the
	// threshold for the whole debounce interval.
	StationaryGyroThreshold float64
	StationaryDebounceS     float64

	// Drift correction window length and easing curve.
	DriftSmoothingTimeS float64
	DriftCurve          Curve

	// Number of stationary gyro samples averaged into a new bias.
	GyroBiasCalSamples int

	// Sample interval validation: below DTMinS a sample is treated as a
	// duplicate and skipped; above DTMaxS the interval is clamped and
	// counted as a gap.
	DTMinS float64
	DTMaxS float64
}

// DefaultConfig returns the startup parameter set.
func DefaultConfig() Config {
	return Config{
		AlphaYaw:                0.98,
		AlphaPitch:              0.98,
		AlphaRoll:               0.98,
		CenterThreshold:         2.0,
		AccelThreshold:          0.15,
		StationaryGyroThreshold: 5.0,
		StationaryDebounceS:     0.15,
		DriftSmoothingTimeS:     2.0,
		DriftCurve:              CurveExponential,
		GyroBiasCalSamples:      1000,
		DTMinS:                  0.001,
		DTMaxS:                  0.1,
	}
}

func validAlpha(v float64) bool {
	return v > 0 && v < 1
}

func validCenterThreshold(v float64) bool {
	return v >= 0 && v <= maxCenterThreshold
}

func validGyroThreshold(v float64) bool {
	return v > 0 && v <= maxGyroThreshold
}

func validDebounce(v float64) bool {
	return v >= 0 && v <= maxDebounceS
}

func validSmoothingTime(v float64) bool {
	return v > 0 && v <= maxSmoothingTimeS
}

func validAccelThreshold(v float64) bool {
	return v > 0 && v <= maxAccelThresholdG
}

func validCalSamples(n int) bool {
	return n >= minCalSamples && n <= maxCalSamples
}
