package fusion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownCommand marks a control tag this version does not know.
	// Callers log and ignore it so newer senders stay compatible.
	ErrUnknownCommand = errors.New("unknown command tag")
	// ErrInvalidParameter marks a payload that is malformed or out of range.
	// The previous value is always retained.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Command is the closed set of control messages the fusion worker accepts.
// One constructor per tag; decoding happens once at the queue boundary.
type Command interface{ isCommand() }

type SetAlphaYaw struct{ V float64 }
type SetAlphaPitch struct{ V float64 }
type SetAlphaRoll struct{ V float64 }
type SetCenterThreshold struct{ V float64 }
type SetAccelThreshold struct{ V float64 }
type SetStationaryThreshold struct{ V float64 }
type SetStationaryDebounce struct{ V float64 }
type SetDriftCurve struct{ Curve Curve }
type SetDriftSmoothingTime struct{ V float64 }
type SetCalSamples struct{ N int }
type StartCalibration struct{}
type CancelCalibration struct{}
type Recenter struct{}

func (SetAlphaYaw) isCommand()            {}
func (SetAlphaPitch) isCommand()          {}
func (SetAlphaRoll) isCommand()           {}
func (SetCenterThreshold) isCommand()     {}
func (SetAccelThreshold) isCommand()      {}
func (SetStationaryThreshold) isCommand() {}
func (SetStationaryDebounce) isCommand()  {}
func (SetDriftCurve) isCommand()          {}
func (SetDriftSmoothingTime) isCommand()  {}
func (SetCalSamples) isCommand()          {}
func (StartCalibration) isCommand()       {}
func (CancelCalibration) isCommand()      {}
func (Recenter) isCommand()               {}

type wireCommand struct {
	Cmd   string          `json:"cmd"`
	Value json.RawMessage `json:"value,omitempty"`
}

// DecodeCommand parses one tagged control message of the form
//
//	{"cmd": "set_alpha_pitch", "value": 0.98}
//
// Numeric and string payloads are checked for shape here; range checks happen
// where the command is applied, so the boundary and the worker agree on what
// was rejected.
func DecodeCommand(payload []byte) (Command, error) {
	var w wireCommand
	if err := json.Unmarshal(payload, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	switch w.Cmd {
	case "set_alpha_yaw":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetAlphaYaw{V: v}, nil
	case "set_alpha_pitch":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetAlphaPitch{V: v}, nil
	case "set_alpha_roll":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetAlphaRoll{V: v}, nil
	case "set_center_threshold":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetCenterThreshold{V: v}, nil
	case "set_accel_threshold":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetAccelThreshold{V: v}, nil
	case "set_stationary_threshold":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetStationaryThreshold{V: v}, nil
	case "set_stationary_debounce":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetStationaryDebounce{V: v}, nil
	case "set_drift_curve_type":
		s, err := stringValue(w)
		if err != nil {
			return nil, err
		}
		c, err := ParseCurve(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		return SetDriftCurve{Curve: c}, nil
	case "set_drift_smoothing_time":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		return SetDriftSmoothingTime{V: v}, nil
	case "set_cal_samples":
		v, err := numericValue(w)
		if err != nil {
			return nil, err
		}
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w: %s: %v is not an integer", ErrInvalidParameter, w.Cmd, v)
		}
		return SetCalSamples{N: int(v)}, nil
	case "start_calibration":
		return StartCalibration{}, nil
	case "cancel_calibration":
		return CancelCalibration{}, nil
	case "recenter":
		return Recenter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, w.Cmd)
}

func numericValue(w wireCommand) (float64, error) {
	if len(w.Value) == 0 {
		return 0, fmt.Errorf("%w: %s: missing numeric value", ErrInvalidParameter, w.Cmd)
	}
	var v float64
	if err := json.Unmarshal(w.Value, &v); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, w.Cmd, err)
	}
	return v, nil
}

func stringValue(w wireCommand) (string, error) {
	if len(w.Value) == 0 {
		return "", fmt.Errorf("%w: %s: missing string value", ErrInvalidParameter, w.Cmd)
	}
	var s string
	if err := json.Unmarshal(w.Value, &s); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidParameter, w.Cmd, err)
	}
	return s, nil
}
