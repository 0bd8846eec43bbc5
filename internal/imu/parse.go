package imu

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Limits for frame validation. Readings outside these bounds indicate a
// corrupted frame rather than real motion.
const (
	maxAccelG     = 10.0   // g
	maxGyroDegSec = 2000.0 // deg/s, full scale of common MEMS gyros
)

// ParseLine parses one CSV frame of the form
//
//	Time,Ax,Ay,Az,Gx,Gy,Gz
//
// with Time in seconds, accel in g and gyro in deg/s (converted to rad/s in
// the returned sample). It validates field count, numeric syntax and physical
// plausibility; malformed frames are rejected, never silently zeroed.
func ParseLine(line string) (Sample, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < 7 {
		return Sample{}, fmt.Errorf("imu frame: expected 7 fields, got %d", len(parts))
	}

	var vals [7]float64
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("imu frame field %d: %w", i, err)
		}
		vals[i] = v
	}

	s := Sample{
		T:     vals[0],
		Accel: Vec3{X: vals[1], Y: vals[2], Z: vals[3]},
	}
	gyroDeg := Vec3{X: vals[4], Y: vals[5], Z: vals[6]}

	if s.T < 0 {
		return Sample{}, fmt.Errorf("imu frame: negative timestamp %f", s.T)
	}
	if m := s.Accel.Norm(); m > maxAccelG {
		return Sample{}, fmt.Errorf("imu frame: accel magnitude %.2fg exceeds %.0fg", m, maxAccelG)
	}
	if math.Abs(gyroDeg.X) > maxGyroDegSec || math.Abs(gyroDeg.Y) > maxGyroDegSec || math.Abs(gyroDeg.Z) > maxGyroDegSec {
		return Sample{}, fmt.Errorf("imu frame: gyro rate out of range (%.1f, %.1f, %.1f)", gyroDeg.X, gyroDeg.Y, gyroDeg.Z)
	}

	const k = math.Pi / 180.0
	s.Gyro = Vec3{X: gyroDeg.X * k, Y: gyroDeg.Y * k, Z: gyroDeg.Z * k}
	return s, nil
}
