package imu

import (
	"math"
	"time"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock sample source emulating a device at rest:
// level accelerometer with a touch of noise and a small constant gyro bias,
// useful for exercising calibration and drift correction without hardware.
func NewMockSource() Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (Sample, error) {
	t := time.Since(m.start).Seconds()

	const biasDeg = 0.8 // deg/s, typical uncalibrated MEMS offset
	noise := 0.2 * math.Sin(t*17.3)

	const k = math.Pi / 180.0
	return Sample{
		T: t,
		Accel: Vec3{
			X: 0.003 * math.Sin(t*11.1),
			Y: 0.003 * math.Cos(t*13.7),
			Z: 1.0,
		},
		Gyro: Vec3{
			X: noise * k,
			Y: -noise * k,
			Z: (biasDeg + noise) * k,
		},
	}, nil
}
