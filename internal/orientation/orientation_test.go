package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccelPitchRoll(t *testing.T) {
	t.Parallel()

	t.Run("level device", func(t *testing.T) {
		t.Parallel()
		pitch, roll := AccelPitchRoll(0, 0, 1)
		assert.InDelta(t, 0.0, pitch, 1e-9)
		assert.InDelta(t, 0.0, roll, 1e-9)
	})

	t.Run("nose down 90", func(t *testing.T) {
		t.Parallel()
		pitch, _ := AccelPitchRoll(-1, 0, 0)
		assert.InDelta(t, 90.0, pitch, 1e-9)
	})

	t.Run("banked right 90", func(t *testing.T) {
		t.Parallel()
		_, roll := AccelPitchRoll(0, 1, 0)
		assert.InDelta(t, 90.0, roll, 1e-9)
	})

	t.Run("45 degree roll", func(t *testing.T) {
		t.Parallel()
		_, roll := AccelPitchRoll(0, 0.7071, 0.7071)
		assert.InDelta(t, 45.0, roll, 0.01)
	})
}

func TestNormalizeAngle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{179.9, 179.9},
		{180, -180},
		{360, 0},
		{-180, -180},
		{-181, 179},
		{540, -180},
		{-540, -180},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormalizeAngle(c.in), 1e-9, "NormalizeAngle(%v)", c.in)
	}
}

func TestAngleDiff(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 10.0, AngleDiff(10, 0), 1e-9)
	assert.InDelta(t, -10.0, AngleDiff(0, 10), 1e-9)
	// Shortest way across the wrap.
	assert.InDelta(t, -20.0, AngleDiff(170, -170), 1e-9)
	assert.InDelta(t, 20.0, AngleDiff(-170, 170), 1e-9)
}
