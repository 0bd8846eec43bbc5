package fusion

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/headtrack/internal/imu"
	"github.com/relabs-tech/headtrack/internal/orientation"
	"github.com/relabs-tech/headtrack/internal/queue"
	"github.com/relabs-tech/headtrack/internal/vision"
)

// Input is what the data queue carries: inertial samples and vision
// corrections, interleaved in arrival order.
type Input interface {
	Timestamp() float64
}

var (
	_ Input = imu.Sample{}
	_ Input = vision.Correction{}
)

// Worker owns the filter, calibration and drift state and runs the per-sample
// update loop. All state is mutated from the single Run goroutine; the outside
// world acts on it only through the control queue.
type Worker struct {
	cfg    Config
	filter *Filter
	det    StationaryDetector
	drift  DriftCorrector
	cal    BiasCalibration

	data    *queue.Queue[Input]
	display *queue.Queue[Snapshot]
	control *queue.Queue[Command]

	getTimeout time.Duration
	stop       chan struct{}
	stopOnce   sync.Once

	stationary bool

	// Latest vision references, consumed only by the drift engine.
	visionYawRef  float64
	visionYawT    float64
	haveVisionYaw bool
	hintPitch     float64
	hintRoll      float64
	hintT         float64
	haveHint      bool

	// Event state for the next snapshot.
	notice  string
	calDone *CalibrationResult
}

// NewWorker wires a worker to its three queues. getTimeout bounds the data
// queue wait per loop iteration and therefore the shutdown latency.
func NewWorker(cfg Config, data *queue.Queue[Input], display *queue.Queue[Snapshot], control *queue.Queue[Command], getTimeout time.Duration) *Worker {
	return &Worker{
		cfg:        cfg,
		filter:     NewFilter(),
		data:       data,
		display:    display,
		control:    control,
		getTimeout: getTimeout,
		stop:       make(chan struct{}),
	}
}

// Stop signals the worker to exit; Run returns within about one get timeout.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

// Run executes the update loop until Stop is called. No input condition
// terminates the loop: full and empty queues, bad commands and sample gaps
// are all absorbed locally.
func (w *Worker) Run() {
	log.Println("fusion: worker started")
	for {
		if w.stopped() {
			log.Println("fusion: worker stopped")
			return
		}

		w.drainControl()

		in, err := w.data.Get(w.getTimeout)
		if err != nil {
			continue // ErrEmpty: re-check the stop flag
		}

		switch v := in.(type) {
		case imu.Sample:
			w.handleSample(v)
		case vision.Correction:
			w.handleVision(v)
		default:
			log.Printf("fusion: dropping unexpected input %T", in)
		}
	}
}

// drainControl applies every pending command without blocking the sample
// path. Rejected commands keep the prior value and are surfaced as warnings.
// A command that raises a notice publishes an event snapshot immediately, so
// acknowledgements reach consumers even when no sample follows.
func (w *Worker) drainControl() {
	for {
		cmd, ok := w.control.TryGet()
		if !ok {
			return
		}
		if err := w.applyCommand(cmd); err != nil {
			log.Printf("fusion: command rejected: %v", err)
			continue
		}
		if w.notice != "" {
			w.publish()
		}
	}
}

func (w *Worker) applyCommand(cmd Command) error {
	switch c := cmd.(type) {
	case SetAlphaYaw:
		if !validAlpha(c.V) {
			return fmt.Errorf("%w: alpha_yaw %v not in (0,1)", ErrInvalidParameter, c.V)
		}
		w.cfg.AlphaYaw = c.V
	case SetAlphaPitch:
		if !validAlpha(c.V) {
			return fmt.Errorf("%w: alpha_pitch %v not in (0,1)", ErrInvalidParameter, c.V)
		}
		w.cfg.AlphaPitch = c.V
	case SetAlphaRoll:
		if !validAlpha(c.V) {
			return fmt.Errorf("%w: alpha_roll %v not in (0,1)", ErrInvalidParameter, c.V)
		}
		w.cfg.AlphaRoll = c.V
	case SetCenterThreshold:
		if !validCenterThreshold(c.V) {
			return fmt.Errorf("%w: center_threshold %v not in [0,%v]", ErrInvalidParameter, c.V, maxCenterThreshold)
		}
		w.cfg.CenterThreshold = c.V
	case SetAccelThreshold:
		if !validAccelThreshold(c.V) {
			return fmt.Errorf("%w: accel_threshold %v not in (0,%v]", ErrInvalidParameter, c.V, maxAccelThresholdG)
		}
		w.cfg.AccelThreshold = c.V
	case SetStationaryThreshold:
		if !validGyroThreshold(c.V) {
			return fmt.Errorf("%w: stationary_threshold %v not in (0,%v]", ErrInvalidParameter, c.V, maxGyroThreshold)
		}
		w.cfg.StationaryGyroThreshold = c.V
	case SetStationaryDebounce:
		if !validDebounce(c.V) {
			return fmt.Errorf("%w: stationary_debounce %v not in [0,%v]", ErrInvalidParameter, c.V, maxDebounceS)
		}
		w.cfg.StationaryDebounceS = c.V
	case SetDriftCurve:
		w.cfg.DriftCurve = c.Curve
		log.Printf("fusion: drift curve set to %s", c.Curve)
	case SetDriftSmoothingTime:
		if !validSmoothingTime(c.V) {
			return fmt.Errorf("%w: drift_smoothing_time %v not in (0,%v]", ErrInvalidParameter, c.V, maxSmoothingTimeS)
		}
		w.cfg.DriftSmoothingTimeS = c.V
	case SetCalSamples:
		if !validCalSamples(c.N) {
			return fmt.Errorf("%w: cal_samples %d not in [%d,%d]", ErrInvalidParameter, c.N, minCalSamples, maxCalSamples)
		}
		w.cfg.GyroBiasCalSamples = c.N
	case StartCalibration:
		w.cal.Start(w.cfg.GyroBiasCalSamples)
		// Bias is unknown until the average lands; abandon any open window.
		w.drift.Cancel()
		w.notice = "gyro bias calibration started"
		log.Printf("fusion: calibration started (%d samples)", w.cfg.GyroBiasCalSamples)
	case CancelCalibration:
		if w.cal.Collecting() {
			w.cal.Cancel()
			w.notice = "gyro bias calibration cancelled"
			log.Println("fusion: calibration cancelled, previous bias kept")
		}
	case Recenter:
		w.filter.Reset()
		w.drift.Cancel()
		w.notice = "orientation recentered"
		log.Println("fusion: orientation recentered")
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return nil
}

func (w *Worker) handleSample(s imu.Sample) {
	if w.cal.Collecting() {
		// Bias averages raw rates; the filter below keeps running on the
		// previous bias so there is no output discontinuity.
		if done, res := w.cal.Add(s.GyroDeg()); done {
			w.filter.SetBias(res.Bias)
			r := res
			w.calDone = &r
			w.notice = "gyro bias calibration complete"
			log.Printf("fusion: calibration complete: bias=(%.3f, %.3f, %.3f) deg/s stddev=(%.3f, %.3f, %.3f) confidence=%.2f",
				res.Bias.X, res.Bias.Y, res.Bias.Z,
				res.StdDev.X, res.StdDev.Y, res.StdDev.Z,
				res.Confidence)
		}
	}

	w.filter.Update(s, &w.cfg)

	mag := w.filter.CorrectedGyroDeg(s).Norm()
	w.stationary = w.det.Update(mag, s.T, w.cfg.StationaryGyroThreshold, w.cfg.StationaryDebounceS)

	switch {
	case w.cal.Collecting():
		// Drift correction is suspended while the bias is being re-estimated.
		w.drift.Cancel()
	case !w.stationary:
		w.drift.Cancel()
	default:
		if !w.drift.Active() {
			w.maybeEngageDrift(s)
		}
		if w.drift.Active() {
			dp, dr, dy, _ := w.drift.Step(s.T, w.cfg.DriftCurve, w.cfg.DriftSmoothingTimeS)
			w.filter.ApplyCorrection(dy, dp, dr)
		}
	}

	w.publish()
}

// maybeEngageDrift opens a correction window when a stationary device shows a
// gap between the estimate and the available references.
func (w *Worker) maybeEngageDrift(s imu.Sample) {
	pose := w.filter.Pose()

	refPitch, refRoll, haveRef := AccelReference(s, &w.cfg)
	if w.haveHint && s.T-w.hintT <= visionFreshnessSecs {
		refPitch, refRoll, haveRef = w.hintPitch, w.hintRoll, true
	}

	var gapPitch, gapRoll float64
	if haveRef {
		gapPitch = orientation.AngleDiff(refPitch, pose.Pitch)
		gapRoll = orientation.AngleDiff(refRoll, pose.Roll)
	}

	var gapYaw float64
	hasYaw := false
	if w.haveVisionYaw && s.T-w.visionYawT <= visionFreshnessSecs {
		gapYaw = orientation.AngleDiff(w.visionYawRef, pose.Yaw)
		hasYaw = math.Abs(gapYaw) > driftGapEpsilonDeg
	}

	if math.Abs(gapPitch) > driftGapEpsilonDeg || math.Abs(gapRoll) > driftGapEpsilonDeg || hasYaw {
		w.drift.Engage(s.T, gapPitch, gapRoll, gapYaw, hasYaw, w.cfg.DriftCurve, w.cfg.DriftSmoothingTimeS)
	}
}

// handleVision records the correction as a drift reference. It never writes
// the fused orientation directly. Freshness is tracked against the sample
// clock, not the producer's own clock, since the two are unrelated domains.
func (w *Worker) handleVision(c vision.Correction) {
	switch c.Kind {
	case vision.KindYawDelta:
		w.visionYawRef = orientation.NormalizeAngle(w.filter.Pose().Yaw + c.YawDelta)
		w.visionYawT = w.filter.LastTime()
		w.haveVisionYaw = true
	case vision.KindHint:
		w.hintPitch = c.Pitch
		w.hintRoll = c.Roll
		w.hintT = w.filter.LastTime()
		w.haveHint = true
	default:
		log.Printf("fusion: ignoring vision correction with unknown kind %q", c.Kind)
	}
}

// publish pushes the current snapshot to the display channel. Latest wins:
// a slow consumer loses old snapshots, never stalls the sample path.
func (w *Worker) publish() {
	snap := Snapshot{
		Estimate: orientation.Estimate{
			Pose: w.filter.Output(&w.cfg),
			T:    w.filter.LastTime(),
		},
		Stationary:  w.stationary,
		DriftActive: w.drift.Active(),
		Calibrating: w.cal.Collecting(),
		CalProgress: w.cal.Progress(),
		GyroBias:    w.filter.Bias(),
		SampleGaps:  w.filter.SampleGaps(),
		Notice:      w.notice,
		Calibration: w.calDone,
	}
	w.notice = ""
	w.calDone = nil
	w.display.PutLatest(snap)
}
