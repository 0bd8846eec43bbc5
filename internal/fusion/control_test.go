package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
		want    Command
	}{
		{"alpha yaw", `{"cmd":"set_alpha_yaw","value":0.95}`, SetAlphaYaw{V: 0.95}},
		{"alpha pitch", `{"cmd":"set_alpha_pitch","value":0.98}`, SetAlphaPitch{V: 0.98}},
		{"alpha roll", `{"cmd":"set_alpha_roll","value":0.9}`, SetAlphaRoll{V: 0.9}},
		{"center threshold", `{"cmd":"set_center_threshold","value":2.5}`, SetCenterThreshold{V: 2.5}},
		{"accel threshold", `{"cmd":"set_accel_threshold","value":0.2}`, SetAccelThreshold{V: 0.2}},
		{"stationary threshold", `{"cmd":"set_stationary_threshold","value":4}`, SetStationaryThreshold{V: 4}},
		{"stationary debounce", `{"cmd":"set_stationary_debounce","value":0.2}`, SetStationaryDebounce{V: 0.2}},
		{"drift curve", `{"cmd":"set_drift_curve_type","value":"cosine"}`, SetDriftCurve{Curve: CurveCosine}},
		{"smoothing time", `{"cmd":"set_drift_smoothing_time","value":3}`, SetDriftSmoothingTime{V: 3}},
		{"cal samples", `{"cmd":"set_cal_samples","value":1500}`, SetCalSamples{N: 1500}},
		{"start calibration", `{"cmd":"start_calibration"}`, StartCalibration{}},
		{"cancel calibration", `{"cmd":"cancel_calibration"}`, CancelCalibration{}},
		{"recenter", `{"cmd":"recenter"}`, Recenter{}},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeCommand([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCommandRejections(t *testing.T) {
	t.Parallel()

	t.Run("unknown tag", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":"warp_drive","value":1}`))
		assert.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":`))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("missing value", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":"set_alpha_yaw"}`))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("wrong value type", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":"set_alpha_yaw","value":"fast"}`))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("unknown curve name", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":"set_drift_curve_type","value":"cubic"}`))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("fractional cal samples", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeCommand([]byte(`{"cmd":"set_cal_samples","value":1000.7}`))
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
}

// Range validation happens where the command is applied; a rejected value
// keeps the prior configuration.
func TestApplyCommandRangeChecks(t *testing.T) {
	t.Parallel()

	newTestWorker := func() *Worker {
		return &Worker{cfg: DefaultConfig(), filter: NewFilter()}
	}

	t.Run("alpha out of range", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		err := w.applyCommand(SetAlphaPitch{V: 1.0})
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.Equal(t, 0.98, w.cfg.AlphaPitch)

		require.NoError(t, w.applyCommand(SetAlphaPitch{V: 0.9}))
		assert.Equal(t, 0.9, w.cfg.AlphaPitch)
	})

	t.Run("center threshold bounds", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		assert.ErrorIs(t, w.applyCommand(SetCenterThreshold{V: -1}), ErrInvalidParameter)
		assert.ErrorIs(t, w.applyCommand(SetCenterThreshold{V: 181}), ErrInvalidParameter)
		assert.Equal(t, 2.0, w.cfg.CenterThreshold)

		require.NoError(t, w.applyCommand(SetCenterThreshold{V: 0})) // zero disables the dead zone
		assert.Equal(t, 0.0, w.cfg.CenterThreshold)
	})

	t.Run("smoothing time bounds", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		assert.ErrorIs(t, w.applyCommand(SetDriftSmoothingTime{V: 0}), ErrInvalidParameter)
		assert.ErrorIs(t, w.applyCommand(SetDriftSmoothingTime{V: 61}), ErrInvalidParameter)
		assert.Equal(t, 2.0, w.cfg.DriftSmoothingTimeS)
	})

	t.Run("cal samples bounds", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		assert.ErrorIs(t, w.applyCommand(SetCalSamples{N: 499}), ErrInvalidParameter)
		assert.ErrorIs(t, w.applyCommand(SetCalSamples{N: 5001}), ErrInvalidParameter)
		assert.Equal(t, 1000, w.cfg.GyroBiasCalSamples)

		require.NoError(t, w.applyCommand(SetCalSamples{N: 500}))
		assert.Equal(t, 500, w.cfg.GyroBiasCalSamples)
	})

	t.Run("curve switch always accepted", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		require.NoError(t, w.applyCommand(SetDriftCurve{Curve: CurveLinear}))
		assert.Equal(t, CurveLinear, w.cfg.DriftCurve)
	})

	t.Run("recenter zeroes the pose", func(t *testing.T) {
		t.Parallel()
		w := newTestWorker()
		w.filter.ApplyCorrection(30, 10, -10)
		require.NoError(t, w.applyCommand(Recenter{}))
		assert.Equal(t, orientation0(), w.filter.Pose())
	})
}
