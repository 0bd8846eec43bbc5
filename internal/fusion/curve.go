package fusion

import (
	"fmt"
	"math"
)

// Curve is the easing function mapping elapsed correction time to applied
// correction fraction.
type Curve string

const (
	// CurveExponential is the legacy behavior: fast start, asymptotic
	// finish. The residual is closed on the final tick so that a full
	// window always applies exactly the recorded gap.
	CurveExponential Curve = "exponential"
	// CurveCosine eases in and out.
	CurveCosine Curve = "cosine"
	// CurveLinear applies the gap at a constant rate.
	CurveLinear Curve = "linear"
	// CurveQuadratic starts slow and finishes sharply.
	CurveQuadratic Curve = "quadratic"
)

// ParseCurve validates a curve name from the control protocol.
func ParseCurve(name string) (Curve, error) {
	switch Curve(name) {
	case CurveExponential, CurveCosine, CurveLinear, CurveQuadratic:
		return Curve(name), nil
	}
	return "", fmt.Errorf("unknown drift curve %q", name)
}

// Value maps an elapsed fraction f to the applied-correction fraction g.
// f is clamped to [0,1] and Value(1) is exactly 1 for every curve, so the
// sum of incremental corrections over a full window equals the recorded gap.
func (c Curve) Value(f float64) float64 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 1
	}
	switch c {
	case CurveCosine:
		return (1 - math.Cos(math.Pi*f)) / 2
	case CurveLinear:
		return f
	case CurveQuadratic:
		return f * f
	default: // exponential
		return 1 - math.Exp(-5*f)
	}
}
