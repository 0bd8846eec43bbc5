package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/headtrack/internal/fusion"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string
	MQTTClientIDTracker string
	MQTTClientIDIMU     string
	MQTTClientIDVision  string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	MQTTClientIDDisplay string

	// Topics
	TopicIMU       string
	TopicVision    string
	TopicPoseFused string
	TopicStatus    string
	TopicControl   string

	// IMU acquisition: "serial", "mpu9250" or "mock"
	IMUSource string

	// Serial IMU link
	SerialPort string
	SerialBaud int

	// On-board MPU-9250
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Sample rate for the mpu9250 and mock sources (Hz)
	IMUSampleRateHz int

	// Queues
	QueueSizeData     int
	QueueSizeDisplay  int
	QueueSizeControl  int
	QueueGetTimeoutMS int
	QueuePutTimeoutMS int

	// Filter defaults (live-tunable afterwards via the control topic)
	FilterAlphaYaw          float64
	FilterAlphaPitch        float64
	FilterAlphaRoll         float64
	CenterThresholdDeg      float64
	AccelThresholdG         float64
	StationaryGyroThreshold float64 // deg/s
	StationaryDebounceS     float64
	DriftSmoothingTimeS     float64
	DriftTransitionCurve    string
	GyroBiasCalSamples      int
	DTMinS                  float64
	DTMaxS                  float64

	// Web server
	WebServerPort int

	// OLED display (the ssd1306 driver fixes the I2C address at 0x3C)
	DisplayUpdateIntervalMS int
}

// Default returns the built-in defaults. Load starts from these, so a config
// file only needs the keys it wants to change (MQTT_BROKER is still required).
func Default() *Config {
	f := fusion.DefaultConfig()
	return &Config{
		MQTTClientIDTracker: "headtrack-tracker",
		MQTTClientIDIMU:     "headtrack-imu-producer",
		MQTTClientIDVision:  "headtrack-vision-producer",
		MQTTClientIDConsole: "headtrack-console",
		MQTTClientIDWeb:     "headtrack-web",
		MQTTClientIDDisplay: "headtrack-display",

		TopicIMU:       "headtrack/imu",
		TopicVision:    "headtrack/vision",
		TopicPoseFused: "headtrack/pose/fused",
		TopicStatus:    "headtrack/status",
		TopicControl:   "headtrack/control",

		IMUSource:  "serial",
		SerialPort: "/dev/ttyUSB0",
		SerialBaud: 115200,

		IMUSPIDevice:  "/dev/spidev0.0",
		IMUCSPin:      "18",
		IMUAccelRange: 0,
		IMUGyroRange:  0,

		IMUSampleRateHz: 200,

		QueueSizeData:     300,
		QueueSizeDisplay:  60,
		QueueSizeControl:  10,
		QueueGetTimeoutMS: 500,
		QueuePutTimeoutMS: 1,

		FilterAlphaYaw:          f.AlphaYaw,
		FilterAlphaPitch:        f.AlphaPitch,
		FilterAlphaRoll:         f.AlphaRoll,
		CenterThresholdDeg:      f.CenterThreshold,
		AccelThresholdG:         f.AccelThreshold,
		StationaryGyroThreshold: f.StationaryGyroThreshold,
		StationaryDebounceS:     f.StationaryDebounceS,
		DriftSmoothingTimeS:     f.DriftSmoothingTimeS,
		DriftTransitionCurve:    string(f.DriftCurve),
		GyroBiasCalSamples:      f.GyroBiasCalSamples,
		DTMinS:                  f.DTMinS,
		DTMaxS:                  f.DTMaxS,

		WebServerPort: 8080,

		DisplayUpdateIntervalMS: 100,
	}
}

// Package-level unexported variables for the singleton. External code must
// use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_IMU":
		c.MQTTClientIDIMU = value
	case "MQTT_CLIENT_ID_VISION":
		c.MQTTClientIDVision = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_VISION":
		c.TopicVision = value
	case "TOPIC_POSE_FUSED":
		c.TopicPoseFused = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_CONTROL":
		c.TopicControl = value

	// IMU acquisition
	case "IMU_SOURCE":
		switch value {
		case "serial", "mpu9250", "mock":
			c.IMUSource = value
		default:
			return fmt.Errorf("IMU_SOURCE must be serial, mpu9250 or mock, got %q", value)
		}
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD %q: %w", value, err)
		}
		c.SerialBaud = baud
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_ACCEL_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)
	case "IMU_GYRO_RANGE":
		rangeVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_GYRO_RANGE %q: %w", value, err)
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_GYRO_RANGE must be 0-3 (0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s), got %d", rangeVal)
		}
		c.IMUGyroRange = byte(rangeVal)
	case "IMU_SAMPLE_RATE_HZ":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate < 1 || rate > 1000 {
			return fmt.Errorf("IMU_SAMPLE_RATE_HZ must be 1-1000, got %d", rate)
		}
		c.IMUSampleRateHz = rate

	// Queues
	case "QUEUE_SIZE_DATA":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_SIZE_DATA %q: %w", value, err)
		}
		c.QueueSizeData = n
	case "QUEUE_SIZE_DISPLAY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_SIZE_DISPLAY %q: %w", value, err)
		}
		c.QueueSizeDisplay = n
	case "QUEUE_SIZE_CONTROL":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_SIZE_CONTROL %q: %w", value, err)
		}
		c.QueueSizeControl = n
	case "QUEUE_GET_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_GET_TIMEOUT_MS %q: %w", value, err)
		}
		c.QueueGetTimeoutMS = ms
	case "QUEUE_PUT_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid QUEUE_PUT_TIMEOUT_MS %q: %w", value, err)
		}
		c.QueuePutTimeoutMS = ms

	// Filter defaults
	case "FILTER_ALPHA_YAW":
		v, err := parseAlpha(key, value)
		if err != nil {
			return err
		}
		c.FilterAlphaYaw = v
	case "FILTER_ALPHA_PITCH":
		v, err := parseAlpha(key, value)
		if err != nil {
			return err
		}
		c.FilterAlphaPitch = v
	case "FILTER_ALPHA_ROLL":
		v, err := parseAlpha(key, value)
		if err != nil {
			return err
		}
		c.FilterAlphaRoll = v
	case "CENTER_THRESHOLD_DEG":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CENTER_THRESHOLD_DEG %q: %w", value, err)
		}
		if v < 0 || v > 180 {
			return fmt.Errorf("CENTER_THRESHOLD_DEG must be 0-180, got %g", v)
		}
		c.CenterThresholdDeg = v
	case "ACCEL_THRESHOLD_G":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid ACCEL_THRESHOLD_G %q: %w", value, err)
		}
		if v <= 0 || v > 1 {
			return fmt.Errorf("ACCEL_THRESHOLD_G must be in (0,1], got %g", v)
		}
		c.AccelThresholdG = v
	case "STATIONARY_GYRO_THRESHOLD_DPS":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STATIONARY_GYRO_THRESHOLD_DPS %q: %w", value, err)
		}
		if v <= 0 || v > 2000 {
			return fmt.Errorf("STATIONARY_GYRO_THRESHOLD_DPS must be in (0,2000], got %g", v)
		}
		c.StationaryGyroThreshold = v
	case "STATIONARY_DEBOUNCE_S":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STATIONARY_DEBOUNCE_S %q: %w", value, err)
		}
		if v < 0 || v > 10 {
			return fmt.Errorf("STATIONARY_DEBOUNCE_S must be 0-10, got %g", v)
		}
		c.StationaryDebounceS = v
	case "DRIFT_SMOOTHING_TIME_S":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DRIFT_SMOOTHING_TIME_S %q: %w", value, err)
		}
		if v <= 0 || v > 60 {
			return fmt.Errorf("DRIFT_SMOOTHING_TIME_S must be in (0,60], got %g", v)
		}
		c.DriftSmoothingTimeS = v
	case "DRIFT_TRANSITION_CURVE":
		if _, err := fusion.ParseCurve(value); err != nil {
			return fmt.Errorf("invalid DRIFT_TRANSITION_CURVE: %w", err)
		}
		c.DriftTransitionCurve = value
	case "GYRO_BIAS_CAL_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_BIAS_CAL_SAMPLES %q: %w", value, err)
		}
		if n < 500 || n > 5000 {
			return fmt.Errorf("GYRO_BIAS_CAL_SAMPLES must be 500-5000, got %d", n)
		}
		c.GyroBiasCalSamples = n
	case "DT_MIN_S":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DT_MIN_S %q: %w", value, err)
		}
		c.DTMinS = v
	case "DT_MAX_S":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid DT_MAX_S %q: %w", value, err)
		}
		c.DTMaxS = v

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL_MS %q: %w", value, err)
		}
		c.DisplayUpdateIntervalMS = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func parseAlpha(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("%s must be in the open interval (0,1), got %g", key, v)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.QueueSizeData <= 0 || c.QueueSizeDisplay <= 0 || c.QueueSizeControl <= 0 {
		return fmt.Errorf("queue sizes must be positive")
	}
	if c.DTMinS <= 0 || c.DTMaxS <= c.DTMinS {
		return fmt.Errorf("DT_MIN_S/DT_MAX_S must satisfy 0 < min < max")
	}
	return nil
}

// FusionConfig builds the worker-owned filter parameter set from the loaded
// configuration. The worker takes this by value; later changes arrive only
// through control commands.
func (c *Config) FusionConfig() fusion.Config {
	curve, err := fusion.ParseCurve(c.DriftTransitionCurve)
	if err != nil {
		curve = fusion.CurveExponential
	}
	return fusion.Config{
		AlphaYaw:                c.FilterAlphaYaw,
		AlphaPitch:              c.FilterAlphaPitch,
		AlphaRoll:               c.FilterAlphaRoll,
		CenterThreshold:         c.CenterThresholdDeg,
		AccelThreshold:          c.AccelThresholdG,
		StationaryGyroThreshold: c.StationaryGyroThreshold,
		StationaryDebounceS:     c.StationaryDebounceS,
		DriftSmoothingTimeS:     c.DriftSmoothingTimeS,
		DriftCurve:              curve,
		GyroBiasCalSamples:      c.GyroBiasCalSamples,
		DTMinS:                  c.DTMinS,
		DTMaxS:                  c.DTMaxS,
	}
}

// InitGlobal initializes the global configuration from file. Safe to call
// more than once; only the first call loads.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
