// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/imu"
	"github.com/relabs-tech/headtrack/internal/sensors"
)

// RunIMUProducer acquires inertial samples from the configured source and
// publishes them as JSON to the IMU topic. Source selection:
//
//	serial   external board streaming CSV frames over a serial link
//	mpu9250  on-board MPU-9250 over SPI, polled at IMU_SAMPLE_RATE_HZ
//	mock     synthetic stationary device, same rate, no hardware
func RunIMUProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDIMU)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("imu-producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	switch cfg.IMUSource {
	case "serial":
		return runSerialIMU(client, cfg)
	case "mpu9250":
		src, err := sensors.NewIMUSource()
		if err != nil {
			return fmt.Errorf("mpu9250 source: %w", err)
		}
		return runPolledIMU(client, cfg, src)
	case "mock":
		log.Println("imu-producer: using mock sample source")
		return runPolledIMU(client, cfg, imu.NewMockSource())
	default:
		return fmt.Errorf("unknown IMU source %q", cfg.IMUSource)
	}
}

// runSerialIMU reads newline-delimited CSV frames from the serial port and
// publishes each valid sample. Malformed lines are logged and skipped; the
// stream keeps going.
func runSerialIMU(client mqtt.Client, cfg *config.Config) error {
	serialOpts := serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("serial open %s: %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("imu-producer: serial port opened on %s at %d baud", cfg.SerialPort, cfg.SerialBaud)

	scanner := bufio.NewScanner(port)
	var badLines uint64
	for scanner.Scan() {
		s, err := imu.ParseLine(scanner.Text())
		if err != nil {
			badLines++
			if badLines%100 == 1 {
				log.Printf("imu-producer: bad frame (%d so far): %v", badLines, err)
			}
			continue
		}
		publishSample(client, cfg, s)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	return nil
}

// runPolledIMU polls the source at the configured sample rate.
func runPolledIMU(client mqtt.Client, cfg *config.Config, src imu.Source) error {
	interval := time.Second / time.Duration(cfg.IMUSampleRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("imu-producer: polling %s source at %d Hz", cfg.IMUSource, cfg.IMUSampleRateHz)

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			log.Printf("imu-producer: sample read error: %v", err)
			continue
		}
		publishSample(client, cfg, s)
	}
	return nil
}

func publishSample(client mqtt.Client, cfg *config.Config, s imu.Sample) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Printf("imu-producer: sample marshal error: %v", err)
		return
	}
	if token := client.Publish(cfg.TopicIMU, 0, false, payload); token.Wait() && token.Error() != nil {
		log.Printf("imu-producer: MQTT publish error: %v", token.Error())
	}
}
