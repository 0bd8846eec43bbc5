package vision

// Kind selects which reference a correction carries.
type Kind string

const (
	// KindYawDelta carries a yaw offset relative to the fused estimate at
	// arrival time, derived from camera feature tracking.
	KindYawDelta Kind = "yaw_delta"
	// KindHint carries an absolute pitch/roll reference from the camera
	// pose solver.
	KindHint Kind = "hint"
)

// Correction is an asynchronous, low-rate reference produced by the camera
// subsystem. It is only ever used as a drift-correction reference; it never
// overwrites the fused orientation directly.
type Correction struct {
	T        float64 `json:"t"`
	Kind     Kind    `json:"kind"`
	YawDelta float64 `json:"yaw_delta,omitempty"` // degrees, KindYawDelta
	Pitch    float64 `json:"pitch,omitempty"`     // degrees, KindHint
	Roll     float64 `json:"roll,omitempty"`      // degrees, KindHint
}

// Timestamp returns the correction time in seconds.
func (c Correction) Timestamp() float64 { return c.T }
