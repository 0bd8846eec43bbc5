// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"math"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/imu"
)

// Sensitivity per configured range, in LSB per physical unit.
var (
	accelLSBPerG   = [4]float64{16384, 8192, 4096, 2048} // ±2g, ±4g, ±8g, ±16g
	gyroLSBPerDeg  = [4]float64{131, 65.5, 32.8, 16.4}   // ±250, ±500, ±1000, ±2000 °/s
	accelRangeDesc = [4]int{2, 4, 8, 16}
	gyroRangeDesc  = [4]int{250, 500, 1000, 2000}
)

type imuSource struct {
	imu        *mpu9250.MPU9250
	accelScale float64 // counts -> g
	gyroScale  float64 // counts -> rad/s
	start      time.Time
}

// NewIMUSource initializes the MPU-9250 over SPI and returns an imu.Source
// producing samples scaled to g and rad/s with monotonic timestamps.
func NewIMUSource() (imu.Source, error) {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU CS pin %q not found", cfg.IMUCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU SPI transport (%s): %w", cfg.IMUSPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU initialization: %w", err)
	}

	// Self-test and on-chip calibration at startup. The fusion worker's
	// bias calibration refines on top of this.
	if _, err := dev.SelfTest(); err != nil {
		log.Printf("Warning: IMU self-test failed: %v", err)
	}
	if err := dev.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	}

	log.Printf("IMU ready on %s (accel ±%dg, gyro ±%d°/s)",
		cfg.IMUSPIDevice, accelRangeDesc[cfg.IMUAccelRange], gyroRangeDesc[cfg.IMUGyroRange])

	return &imuSource{
		imu:        dev,
		accelScale: 1.0 / accelLSBPerG[cfg.IMUAccelRange],
		gyroScale:  (math.Pi / 180.0) / gyroLSBPerDeg[cfg.IMUGyroRange],
		start:      time.Now(),
	}, nil
}

// Next reads one accel+gyro sample and scales it to physical units.
func (s *imuSource) Next() (imu.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.Sample{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return imu.Sample{
		T: time.Since(s.start).Seconds(),
		Accel: imu.Vec3{
			X: float64(ax) * s.accelScale,
			Y: float64(ay) * s.accelScale,
			Z: float64(az) * s.accelScale,
		},
		Gyro: imu.Vec3{
			X: float64(gx) * s.gyroScale,
			Y: float64(gy) * s.gyroScale,
			Z: float64(gz) * s.gyroScale,
		},
	}, nil
}
