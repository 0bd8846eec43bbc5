package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCurves = []Curve{CurveExponential, CurveCosine, CurveLinear, CurveQuadratic}

func TestParseCurve(t *testing.T) {
	t.Parallel()

	for _, c := range allCurves {
		got, err := ParseCurve(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCurve("cubic")
	assert.Error(t, err)
	_, err = ParseCurve("")
	assert.Error(t, err)
}

func TestCurveValueEndpoints(t *testing.T) {
	t.Parallel()

	for _, c := range allCurves {
		assert.Equal(t, 0.0, c.Value(0), "%s at 0", c)
		assert.Equal(t, 0.0, c.Value(-0.5), "%s below 0", c)
		assert.Equal(t, 1.0, c.Value(1), "%s at 1", c)
		assert.Equal(t, 1.0, c.Value(2), "%s above 1", c)
	}
}

func TestCurveValueMonotonic(t *testing.T) {
	t.Parallel()

	for _, c := range allCurves {
		prev := c.Value(0)
		for f := 0.01; f <= 1.0; f += 0.01 {
			v := c.Value(f)
			assert.GreaterOrEqual(t, v, prev, "%s not monotonic at f=%.2f", c, f)
			assert.LessOrEqual(t, v, 1.0)
			prev = v
		}
	}
}

func TestCurveShapes(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1-math.Exp(-2.5), CurveExponential.Value(0.5), 1e-12)
	assert.InDelta(t, 0.5, CurveCosine.Value(0.5), 1e-12)
	assert.InDelta(t, 0.5, CurveLinear.Value(0.5), 1e-12)
	assert.InDelta(t, 0.25, CurveQuadratic.Value(0.5), 1e-12)

	// Exponential front-loads, quadratic back-loads, relative to linear.
	assert.Greater(t, CurveExponential.Value(0.3), CurveLinear.Value(0.3))
	assert.Less(t, CurveQuadratic.Value(0.3), CurveLinear.Value(0.3))
}
