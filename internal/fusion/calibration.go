package fusion

import (
	"math"

	"github.com/relabs-tech/headtrack/internal/imu"
)

// Stillness quality heuristics for the bias estimate, in deg/s. Confidence
// degrades linearly between the two and never drops below the floor.
const (
	calStdGood   = 0.2
	calStdBad    = 2.0
	calConfFloor = 0.05
)

// CalibrationResult is emitted with the completion notice when a bias
// calibration finishes.
type CalibrationResult struct {
	Bias       imu.Vec3 `json:"bias_deg"`   // deg/s
	StdDev     imu.Vec3 `json:"stddev_deg"` // deg/s
	Confidence float64  `json:"confidence"` // 0.05..1, stillness quality
	Samples    int      `json:"samples"`
}

// BiasCalibration averages stationary gyro readings into a new bias.
// States: idle -> collecting -> idle. While collecting, the fusion update
// loop keeps running on the previous bias; the new bias takes effect only on
// completion. Cancellation discards the accumulator and leaves the previous
// bias untouched.
type BiasCalibration struct {
	collecting bool
	target     int
	n          int
	mean       imu.Vec3
	m2         imu.Vec3 // Welford sum of squared deviations
}

// Start resets the accumulator and begins collecting the given number of
// samples.
func (c *BiasCalibration) Start(samples int) {
	c.collecting = true
	c.target = samples
	c.n = 0
	c.mean = imu.Vec3{}
	c.m2 = imu.Vec3{}
}

// Cancel discards the accumulator.
func (c *BiasCalibration) Cancel() {
	c.collecting = false
	c.n = 0
	c.mean = imu.Vec3{}
	c.m2 = imu.Vec3{}
}

// Collecting reports whether a calibration is in progress.
func (c *BiasCalibration) Collecting() bool { return c.collecting }

// Progress returns the collected fraction in [0,1].
func (c *BiasCalibration) Progress() float64 {
	if !c.collecting || c.target == 0 {
		return 0
	}
	return float64(c.n) / float64(c.target)
}

// Add feeds one raw gyro reading in deg/s. When the target count is reached
// the running mean becomes the result, the state returns to idle and done is
// true.
func (c *BiasCalibration) Add(g imu.Vec3) (done bool, res CalibrationResult) {
	if !c.collecting {
		return false, CalibrationResult{}
	}

	c.n++
	n := float64(c.n)
	dx := g.X - c.mean.X
	dy := g.Y - c.mean.Y
	dz := g.Z - c.mean.Z
	c.mean.X += dx / n
	c.mean.Y += dy / n
	c.mean.Z += dz / n
	c.m2.X += dx * (g.X - c.mean.X)
	c.m2.Y += dy * (g.Y - c.mean.Y)
	c.m2.Z += dz * (g.Z - c.mean.Z)

	if c.n < c.target {
		return false, CalibrationResult{}
	}

	sd := imu.Vec3{}
	if c.n > 1 {
		sd.X = math.Sqrt(c.m2.X / (n - 1))
		sd.Y = math.Sqrt(c.m2.Y / (n - 1))
		sd.Z = math.Sqrt(c.m2.Z / (n - 1))
	}
	res = CalibrationResult{
		Bias:       c.mean,
		StdDev:     sd,
		Confidence: stillnessConfidence(sd),
		Samples:    c.n,
	}
	c.Cancel()
	return true, res
}

// stillnessConfidence maps the per-axis standard deviation of the collected
// readings to a 0.05..1 quality figure: 1 at or below calStdGood, the floor
// at or above calStdBad, linear in between, averaged over the axes.
func stillnessConfidence(sd imu.Vec3) float64 {
	axis := func(s float64) float64 {
		switch {
		case s <= calStdGood:
			return 1
		case s >= calStdBad:
			return calConfFloor
		default:
			return 1 - (1-calConfFloor)*(s-calStdGood)/(calStdBad-calStdGood)
		}
	}
	conf := (axis(sd.X) + axis(sd.Y) + axis(sd.Z)) / 3
	if conf < calConfFloor {
		conf = calConfFloor
	}
	return conf
}
