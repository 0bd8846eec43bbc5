package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/fusion"
	"github.com/relabs-tech/headtrack/internal/orientation"
)

// RunConsole prints fused poses and status snapshots to stdout until Ctrl+C.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	poseToken := client.Subscribe(cfg.TopicPoseFused, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e orientation.Estimate
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[POSE]  ROLL=%6.2f  PITCH=%6.2f  YAW=%6.2f  t=%.3f\n",
			e.Pose.Roll, e.Pose.Pitch, e.Pose.Yaw, e.T,
		)
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPoseFused)

	statusToken := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s fusion.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: status unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[STAT]  still=%-5v drift=%-5v cal=%-5v progress=%3.0f%%  bias=(%.2f %.2f %.2f) gaps=%d\n",
			s.Stationary, s.DriftActive, s.Calibrating, s.CalProgress*100,
			s.GyroBias.X, s.GyroBias.Y, s.GyroBias.Z, s.SampleGaps,
		)
		if s.Notice != "" {
			fmt.Printf("[NOTE]  %s\n", s.Notice)
		}
		if s.Calibration != nil {
			fmt.Printf(
				"[CAL ]  bias=(%.3f %.3f %.3f) deg/s  stddev=(%.3f %.3f %.3f)  confidence=%.2f  samples=%d\n",
				s.Calibration.Bias.X, s.Calibration.Bias.Y, s.Calibration.Bias.Z,
				s.Calibration.StdDev.X, s.Calibration.StdDev.Y, s.Calibration.StdDev.Z,
				s.Calibration.Confidence, s.Calibration.Samples,
			)
		}
	})
	statusToken.Wait()
	if statusToken.Error() != nil {
		return statusToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicStatus)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
