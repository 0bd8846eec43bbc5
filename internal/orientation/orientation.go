package orientation

import (
	"math"
)

// Pose is the canonical representation of orientation for the tracker.
// Angles are in degrees, normalized to [-180, 180).
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Estimate is the fused output of the tracker: a pose plus the timestamp of
// the sample that produced it. One instance is current at any time; consumers
// see monotonically non-decreasing timestamps.
type Estimate struct {
	Pose
	T float64 `json:"t"`
}

// AccelPitchRoll computes pitch and roll from an accelerometer reading that
// is assumed to measure gravity only.
//
// Uses simple tilt formulas:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func AccelPitchRoll(ax, ay, az float64) (pitch, roll float64) {
	rollRad := math.Atan2(ay, az)
	pitchRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return pitchRad * 180.0 / math.Pi, rollRad * 180.0 / math.Pi
}

// NormalizeAngle wraps an angle in degrees into [-180, 180).
func NormalizeAngle(deg float64) float64 {
	for deg >= 180.0 {
		deg -= 360.0
	}
	for deg < -180.0 {
		deg += 360.0
	}
	return deg
}

// AngleDiff returns the smallest signed difference a-b in degrees,
// accounting for wrap-around.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}
