// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/fusion"
	"github.com/relabs-tech/headtrack/internal/orientation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const maxControlBody = 4096

// RunWeb serves the HTTP/WebSocket front end: latest pose and status as JSON,
// a live pose stream over WebSocket, and a control endpoint that validates
// commands before forwarding them to the tracker's control topic.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu         sync.RWMutex
		lastPose   orientation.Estimate
		havePose   bool
		lastStatus fusion.Snapshot
		haveStatus bool
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicPoseFused, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var e orientation.Estimate
		if err := json.Unmarshal(msg.Payload(), &e); err != nil {
			log.Printf("web: pose unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastPose = e
		havePose = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicPoseFused)

	token = client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s fusion.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: status unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastStatus = s
		haveStatus = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicStatus)

	http.HandleFunc("/api/orientation", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !havePose {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastPose); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveStatus {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastStatus); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// Control bridge. The payload is decoded here first so a bad request
	// fails with a 400 instead of silently dying in the tracker's log.
	http.HandleFunc("/api/control", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxControlBody))
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}

		if _, err := fusion.DecodeCommand(body); err != nil {
			http.Error(w, fmt.Sprintf("invalid command: %v", err), http.StatusBadRequest)
			return
		}

		if token := client.Publish(cfg.TopicControl, 0, false, body); token.Wait() && token.Error() != nil {
			log.Printf("web: control publish error: %v", token.Error())
			http.Error(w, "publish failed", http.StatusBadGateway)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	})

	// Live pose stream. Each client gets its own ticker; the write rate is
	// bounded regardless of the MQTT message rate.
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			mu.RLock()
			e, ok := lastPose, havePose
			mu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(e); err != nil {
				return // client gone
			}
		}
	})

	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
