package imu

import "math"

// Vec3 is a plain 3-axis vector used for gyro rates, accelerations and biases.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean magnitude of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sample represents a single timestamped inertial reading.
// Accel is in g, Gyro in rad/s, T in seconds on the producer's
// monotonic clock. A sample is immutable once created and is
// consumed exactly once by the fusion worker.
type Sample struct {
	T     float64 `json:"t"`
	Accel Vec3    `json:"accel"` // g
	Gyro  Vec3    `json:"gyro"`  // rad/s
}

// Timestamp returns the sample time in seconds.
func (s Sample) Timestamp() float64 { return s.T }

// GyroDeg returns the angular rates converted to deg/s.
func (s Sample) GyroDeg() Vec3 {
	const k = 180.0 / math.Pi
	return Vec3{X: s.Gyro.X * k, Y: s.Gyro.Y * k, Z: s.Gyro.Z * k}
}

// Source is anything that can produce inertial samples over time.
type Source interface {
	Next() (Sample, error)
}
