package fusion

import (
	"github.com/relabs-tech/headtrack/internal/imu"
	"github.com/relabs-tech/headtrack/internal/orientation"
)

// Snapshot is one display-channel item: the current estimate plus the health
// and calibration state a presentation layer wants to show. The display queue
// is latest-wins, so consumers only ever need the newest snapshot.
type Snapshot struct {
	Estimate orientation.Estimate `json:"estimate"`

	Stationary  bool `json:"stationary"`
	DriftActive bool `json:"drift_active"`

	Calibrating bool     `json:"calibrating"`
	CalProgress float64  `json:"cal_progress"`
	GyroBias    imu.Vec3 `json:"gyro_bias_deg"` // deg/s

	// SampleGaps counts samples that arrived after a clamped interval.
	// Health metric only; gaps are absorbed, not propagated.
	SampleGaps uint64 `json:"sample_gaps"`

	// Notice is set on event ticks (calibration complete/cancelled,
	// recenter) and empty otherwise.
	Notice string `json:"notice,omitempty"`
	// Calibration carries the full result on the completion tick.
	Calibration *CalibrationResult `json:"calibration,omitempty"`
}
