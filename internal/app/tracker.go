// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/fusion"
	"github.com/relabs-tech/headtrack/internal/imu"
	"github.com/relabs-tech/headtrack/internal/queue"
	"github.com/relabs-tech/headtrack/internal/vision"
)

// RunTracker wires the fusion pipeline: MQTT sample/correction topics feed
// the data queue, the fusion worker turns samples into estimates, and display
// snapshots go back out as retained MQTT messages. Control messages arrive on
// their own topic and queue at any time.
func RunTracker() error {
	cfg := config.Get()

	// Queue construction failures are the only fatal condition; everything
	// after this point is absorbed locally.
	dataQ, err := queue.New[fusion.Input](cfg.QueueSizeData)
	if err != nil {
		return err
	}
	displayQ, err := queue.New[fusion.Snapshot](cfg.QueueSizeDisplay)
	if err != nil {
		return err
	}
	controlQ, err := queue.New[fusion.Command](cfg.QueueSizeControl)
	if err != nil {
		return err
	}

	putTimeout := time.Duration(cfg.QueuePutTimeoutMS) * time.Millisecond
	getTimeout := time.Duration(cfg.QueueGetTimeoutMS) * time.Millisecond

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDTracker)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("tracker: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Samples in. A full data queue is transient backpressure: the sample
	// is dropped and counted, never a reason to stall the MQTT client.
	var sampleDrops uint64
	token := client.Subscribe(cfg.TopicIMU, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s imu.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("tracker: imu sample unmarshal error: %v", err)
			return
		}
		if err := dataQ.Put(s, putTimeout); errors.Is(err, queue.ErrFull) {
			sampleDrops++
			if sampleDrops%100 == 1 {
				log.Printf("tracker: data queue full, %d samples dropped so far", sampleDrops)
			}
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("tracker: subscribed to %s", cfg.TopicIMU)

	// Vision corrections in, same queue, same backpressure policy.
	token = client.Subscribe(cfg.TopicVision, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var c vision.Correction
		if err := json.Unmarshal(msg.Payload(), &c); err != nil {
			log.Printf("tracker: vision correction unmarshal error: %v", err)
			return
		}
		// Corrections are low-rate hints; losing one to a full queue is
		// harmless.
		_ = dataQ.Put(c, putTimeout)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("tracker: subscribed to %s", cfg.TopicVision)

	// Control in. Decoding happens here, at the protocol boundary; unknown
	// tags are logged and ignored for forward compatibility.
	token = client.Subscribe(cfg.TopicControl, 0, func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := fusion.DecodeCommand(msg.Payload())
		if err != nil {
			log.Printf("tracker: control message rejected: %v", err)
			return
		}
		if err := controlQ.Put(cmd, putTimeout); errors.Is(err, queue.ErrFull) {
			log.Printf("tracker: control queue full, command dropped")
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("tracker: subscribed to %s", cfg.TopicControl)

	worker := fusion.NewWorker(cfg.FusionConfig(), dataQ, displayQ, controlQ, getTimeout)
	go worker.Run()

	// Snapshots out: pose on every snapshot, full status at a lower rate
	// and on every event tick.
	done := make(chan struct{})
	go func() {
		const statusEvery = 500 * time.Millisecond
		var lastStatus time.Time

		for {
			select {
			case <-done:
				return
			default:
			}

			snap, err := displayQ.Get(getTimeout)
			if err != nil {
				continue
			}

			if payload, err := json.Marshal(snap.Estimate); err != nil {
				log.Printf("tracker: estimate marshal error: %v", err)
			} else {
				client.Publish(cfg.TopicPoseFused, 0, true, payload)
			}

			if snap.Notice != "" || time.Since(lastStatus) >= statusEvery {
				lastStatus = time.Now()
				if payload, err := json.Marshal(snap); err != nil {
					log.Printf("tracker: snapshot marshal error: %v", err)
				} else {
					client.Publish(cfg.TopicStatus, 0, true, payload)
				}
			}
		}
	}()

	log.Println("tracker: pipeline running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("tracker: shutting down")
	worker.Stop()
	close(done)
	return nil
}
