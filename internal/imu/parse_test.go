package imu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Parallel()

	t.Run("valid frame", func(t *testing.T) {
		t.Parallel()
		s, err := ParseLine("1.250,0.01,-0.02,0.99,1.5,-0.5,10.0")
		require.NoError(t, err)

		assert.Equal(t, 1.25, s.T)
		assert.InDelta(t, 0.01, s.Accel.X, 1e-12)
		assert.InDelta(t, -0.02, s.Accel.Y, 1e-12)
		assert.InDelta(t, 0.99, s.Accel.Z, 1e-12)

		// Gyro fields arrive in deg/s and are stored in rad/s.
		k := math.Pi / 180.0
		assert.InDelta(t, 1.5*k, s.Gyro.X, 1e-12)
		assert.InDelta(t, -0.5*k, s.Gyro.Y, 1e-12)
		assert.InDelta(t, 10.0*k, s.Gyro.Z, 1e-12)
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		t.Parallel()
		s, err := ParseLine("  0.5, 0, 0, 1, 0, 0, 0 \n")
		require.NoError(t, err)
		assert.Equal(t, 0.5, s.T)
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()
		bad := []struct {
			name string
			line string
		}{
			{"too few fields", "1.0,0,0,1,0,0"},
			{"empty line", ""},
			{"non-numeric field", "1.0,0,abc,1,0,0,0"},
			{"negative timestamp", "-0.1,0,0,1,0,0,0"},
			{"accel out of range", "1.0,50,0,0,0,0,0"},
			{"gyro out of range", "1.0,0,0,1,0,0,2500"},
		}
		for _, tt := range bad {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseLine(tt.line)
				assert.Error(t, err)
			})
		}
	})
}

func TestSampleGyroDeg(t *testing.T) {
	t.Parallel()

	s := Sample{Gyro: Vec3{X: math.Pi, Y: -math.Pi / 2, Z: 0}}
	g := s.GyroDeg()
	assert.InDelta(t, 180.0, g.X, 1e-9)
	assert.InDelta(t, -90.0, g.Y, 1e-9)
	assert.InDelta(t, 0.0, g.Z, 1e-9)
}

func TestVec3Norm(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, Vec3{}.Norm(), 1e-12)
	assert.InDelta(t, 5.0, Vec3{X: 3, Y: 4}.Norm(), 1e-12)
	assert.InDelta(t, math.Sqrt(3), Vec3{X: 1, Y: 1, Z: 1}.Norm(), 1e-12)
}
