package fusion

import (
	"math"

	"github.com/relabs-tech/headtrack/internal/imu"
	"github.com/relabs-tech/headtrack/internal/orientation"
)

// Filter is the per-axis complementary blend of gyro integration and the
// accelerometer gravity reference. Pitch and roll are pulled toward the
// accel-derived tilt; yaw has no absolute reference and is pure integration,
// kept stable only by drift correction and explicit recentering.
//
// A Filter is owned by exactly one fusion worker and must not be shared.
type Filter struct {
	yaw   float64
	pitch float64
	roll  float64

	lastT   float64
	started bool

	biasDeg imu.Vec3 // gyro bias, deg/s

	// Dead-zone hold values for the published estimate.
	heldYaw   float64
	heldPitch float64
	heldRoll  float64

	gaps uint64 // samples whose dt exceeded the clamp threshold
}

// NewFilter returns a filter centered at 0,0,0 with zero bias.
func NewFilter() *Filter {
	return &Filter{}
}

// Reset recenters the orientation to zero. Bias and time baseline are kept.
func (f *Filter) Reset() {
	f.yaw, f.pitch, f.roll = 0, 0, 0
	f.heldYaw, f.heldPitch, f.heldRoll = 0, 0, 0
}

// SetBias installs a new gyro bias in deg/s.
func (f *Filter) SetBias(b imu.Vec3) { f.biasDeg = b }

// Bias returns the current gyro bias in deg/s.
func (f *Filter) Bias() imu.Vec3 { return f.biasDeg }

// LastTime returns the timestamp of the last accepted sample.
func (f *Filter) LastTime() float64 { return f.lastT }

// SampleGaps returns how many samples arrived after a clamped interval.
func (f *Filter) SampleGaps() uint64 { return f.gaps }

// Pose returns the internal orientation, before the output dead-zone.
func (f *Filter) Pose() orientation.Pose {
	return orientation.Pose{Yaw: f.yaw, Pitch: f.pitch, Roll: f.roll}
}

// CorrectedGyroDeg returns the sample's angular rates in deg/s with the
// current bias removed.
func (f *Filter) CorrectedGyroDeg(s imu.Sample) imu.Vec3 {
	g := s.GyroDeg()
	return imu.Vec3{X: g.X - f.biasDeg.X, Y: g.Y - f.biasDeg.Y, Z: g.Z - f.biasDeg.Z}
}

// AccelReference derives the pitch/roll gravity reference from a sample.
// ok is false when the accel magnitude is outside the trust window around
// 1 g, meaning the device is accelerating and gravity cannot be separated.
func AccelReference(s imu.Sample, cfg *Config) (pitch, roll float64, ok bool) {
	m := s.Accel.Norm()
	if m < minAccelNorm || math.Abs(m-1.0) >= cfg.AccelThreshold {
		return 0, 0, false
	}
	pitch, roll = orientation.AccelPitchRoll(s.Accel.X, s.Accel.Y, s.Accel.Z)
	return pitch, roll, true
}

// Update advances the filter by one sample. It returns false when the sample
// only (re)established the time baseline or was rejected as a duplicate; the
// orientation is unchanged in that case.
func (f *Filter) Update(s imu.Sample, cfg *Config) bool {
	if !f.started {
		// First sample: establish the time baseline and start centered.
		f.started = true
		f.lastT = s.T
		f.Reset()
		return false
	}

	dt := s.T - f.lastT
	if dt <= 0 || dt < cfg.DTMinS {
		// Duplicate timestamp or clock step backwards.
		return false
	}
	if dt > cfg.DTMaxS {
		dt = cfg.DTMaxS
		f.gaps++
	}
	f.lastT = s.T

	g := f.CorrectedGyroDeg(s)
	gyroRoll := f.roll + g.X*dt
	gyroPitch := f.pitch + g.Y*dt
	gyroYaw := f.yaw + g.Z*dt

	if refPitch, refRoll, ok := AccelReference(s, cfg); ok {
		// Blend through the shorter arc so the reference pulls across the
		// ±180° wrap instead of the long way around.
		f.pitch = gyroPitch + (1-cfg.AlphaPitch)*orientation.AngleDiff(refPitch, gyroPitch)
		f.roll = gyroRoll + (1-cfg.AlphaRoll)*orientation.AngleDiff(refRoll, gyroRoll)
	} else {
		f.pitch = gyroPitch
		f.roll = gyroRoll
	}
	// Yaw: no reference term, pure integration.
	f.yaw = gyroYaw

	f.normalize()
	return true
}

// ApplyCorrection adds drift-correction increments to the orientation.
func (f *Filter) ApplyCorrection(dYaw, dPitch, dRoll float64) {
	f.yaw += dYaw
	f.pitch += dPitch
	f.roll += dRoll
	f.normalize()
}

// Output applies the dead-zone, after drift blending, and returns the pose to
// publish. Each axis holds its last published value until the internal
// estimate moves at least CenterThreshold away from it.
func (f *Filter) Output(cfg *Config) orientation.Pose {
	f.heldYaw = deadband(f.heldYaw, f.yaw, cfg.CenterThreshold)
	f.heldPitch = deadband(f.heldPitch, f.pitch, cfg.CenterThreshold)
	f.heldRoll = deadband(f.heldRoll, f.roll, cfg.CenterThreshold)
	return orientation.Pose{Yaw: f.heldYaw, Pitch: f.heldPitch, Roll: f.heldRoll}
}

func deadband(held, cur, threshold float64) float64 {
	if threshold <= 0 {
		return cur
	}
	if math.Abs(orientation.AngleDiff(cur, held)) < threshold {
		return held
	}
	return cur
}

func (f *Filter) normalize() {
	f.yaw = orientation.NormalizeAngle(f.yaw)
	f.pitch = orientation.NormalizeAngle(f.pitch)
	f.roll = orientation.NormalizeAngle(f.roll)
}
