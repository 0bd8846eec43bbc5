package app

import (
	"encoding/json"
	"log"
	"math"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/vision"
)

// RunVisionProducer publishes synthetic camera corrections to the vision
// topic. It stands in for a real camera pipeline: a slow yaw nudge toward
// center every few seconds plus an occasional pitch/roll hint, which is the
// exact message shape a real tracker would emit.
func RunVisionProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDVision)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("vision-producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	start := time.Now()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	log.Println("vision-producer: publishing mock corrections every 2s")

	n := 0
	for range ticker.C {
		t := time.Since(start).Seconds()
		n++

		var c vision.Correction
		if n%3 == 0 {
			// Level hint, as a face detector looking at an upright head would report.
			c = vision.Correction{
				T:     t,
				Kind:  vision.KindHint,
				Pitch: 0.5 * math.Sin(t/30),
				Roll:  0.3 * math.Cos(t/40),
			}
		} else {
			c = vision.Correction{
				T:        t,
				Kind:     vision.KindYawDelta,
				YawDelta: -0.2 * math.Sin(t/20),
			}
		}

		payload, err := json.Marshal(c)
		if err != nil {
			log.Printf("vision-producer: marshal error: %v", err)
			continue
		}
		if token := client.Publish(cfg.TopicVision, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("vision-producer: MQTT publish error: %v", token.Error())
		}
	}
	return nil
}
