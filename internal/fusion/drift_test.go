package fusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Over a full window the incremental corrections must sum to exactly the
// recorded gap, whatever the curve.
func TestDriftIncrementsSumToGap(t *testing.T) {
	t.Parallel()

	for _, curve := range allCurves {
		curve := curve
		t.Run(string(curve), func(t *testing.T) {
			t.Parallel()

			var d DriftCorrector
			d.Engage(0, 3.0, -1.5, 0.8, true, curve, 2.0)

			var sumP, sumR, sumY float64
			done := false
			for ti := 0.01; !done; ti += 0.01 {
				dp, dr, dy, fin := d.Step(ti, curve, 2.0)
				sumP += dp
				sumR += dr
				sumY += dy
				done = fin
				require.Less(t, ti, 3.0, "window never finished")
			}

			assert.InDelta(t, 3.0, sumP, 1e-9)
			assert.InDelta(t, -1.5, sumR, 1e-9)
			assert.InDelta(t, 0.8, sumY, 1e-9)
			assert.False(t, d.Active())
		})
	}
}

func TestDriftNoYawWithoutReference(t *testing.T) {
	t.Parallel()

	var d DriftCorrector
	d.Engage(0, 1.0, 1.0, 5.0, false, CurveLinear, 1.0)

	var sumY float64
	for ti := 0.1; ti <= 1.1; ti += 0.1 {
		_, _, dy, done := d.Step(ti, CurveLinear, 1.0)
		sumY += dy
		if done {
			break
		}
	}
	assert.Equal(t, 0.0, sumY)
}

func TestDriftCancelKeepsApplied(t *testing.T) {
	t.Parallel()

	var d DriftCorrector
	d.Engage(0, 2.0, 0, 0, false, CurveLinear, 1.0)

	dp, _, _, done := d.Step(0.5, CurveLinear, 1.0)
	require.False(t, done)
	assert.InDelta(t, 1.0, dp, 1e-9) // half the gap at half the window

	d.Cancel()
	assert.False(t, d.Active())

	// Steps after cancel are inert.
	dp, dr, dy, done := d.Step(0.8, CurveLinear, 1.0)
	assert.Zero(t, dp)
	assert.Zero(t, dr)
	assert.Zero(t, dy)
	assert.False(t, done)
}

// Switching the curve mid-window must not jump: the switch tick applies a zero
// increment and later ticks follow the new curve's marginal steps.
func TestDriftCurveSwitchContinuity(t *testing.T) {
	t.Parallel()

	var d DriftCorrector
	d.Engage(0, 10.0, 0, 0, false, CurveExponential, 2.0)

	var sum float64
	for ti := 0.01; ti <= 1.0; ti += 0.01 {
		dp, _, _, _ := d.Step(ti, CurveExponential, 2.0)
		sum += dp
	}
	preSwitch := sum

	dp, _, _, _ := d.Step(1.01, CurveQuadratic, 2.0)
	assert.InDelta(t, 0.0, dp, 1e-9, "switch tick must apply no correction")

	maxStep := 0.0
	done := false
	for ti := 1.02; !done; ti += 0.01 {
		dp, _, _, fin := d.Step(ti, CurveQuadratic, 2.0)
		maxStep = math.Max(maxStep, math.Abs(dp))
		sum += dp
		done = fin
	}

	// Post-switch ticks telescope from the rebased progress to the full gap.
	wantRemainder := 10.0 * (1 - CurveQuadratic.Value(1.01/2.0))
	assert.InDelta(t, preSwitch+wantRemainder, sum, 1e-9)
	// No post-switch tick exceeded a plausible marginal step (the quadratic's
	// steepest 10ms step on a 2s window for a 10 degree gap is 0.1 degree,
	// final-tick residual aside).
	assert.Less(t, maxStep, 0.2)
}

func TestDriftSmoothingTimeSwitchRebases(t *testing.T) {
	t.Parallel()

	var d DriftCorrector
	d.Engage(0, 4.0, 0, 0, false, CurveLinear, 4.0)

	dp1, _, _, _ := d.Step(1.0, CurveLinear, 4.0) // f=0.25
	assert.InDelta(t, 1.0, dp1, 1e-9)

	// Shrinking the window to 2s puts f at 0.5; the rebased tick is zero.
	dp2, _, _, _ := d.Step(1.0, CurveLinear, 2.0)
	assert.InDelta(t, 0.0, dp2, 1e-9)

	// Remaining half of the window applies the rest of the gap.
	var sum float64
	done := false
	for ti := 1.05; !done; ti += 0.05 {
		dp, _, _, fin := d.Step(ti, CurveLinear, 2.0)
		sum += dp
		done = fin
	}
	assert.InDelta(t, 4.0-1.0-1.0, sum, 1e-9)
}

func TestDriftZeroSmoothingAppliesImmediately(t *testing.T) {
	t.Parallel()

	var d DriftCorrector
	d.Engage(0, 1.0, -1.0, 0, false, CurveCosine, 0)

	dp, dr, _, done := d.Step(0.001, CurveCosine, 0)
	assert.True(t, done)
	assert.InDelta(t, 1.0, dp, 1e-9)
	assert.InDelta(t, -1.0, dr, 1e-9)
}
