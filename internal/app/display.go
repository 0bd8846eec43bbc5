package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/headtrack/internal/config"
	"github.com/relabs-tech/headtrack/internal/fusion"
)

// displayData holds the latest snapshot for the OLED update loop.
type displayData struct {
	mu       sync.RWMutex
	snap     fusion.Snapshot
	haveSnap bool
}

// RunDisplay drives a 128x64 SSD1306 OLED over I2C showing the fused pose
// and tracker health.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	// The ssd1306 driver fixes the I2C address at 0x3C.
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s fusion.Snapshot
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: status unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.snap = s
		data.haveSnap = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicStatus)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		snap, have := data.snap, data.haveSnap
		data.mu.RUnlock()

		if err := drawStatus(dev, snap, have); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func newDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

func drawStatus(dev *ssd1306.Dev, snap fusion.Snapshot, have bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	renderStatus(img, snap, have)
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func renderStatus(img *image1bit.VerticalLSB, snap fusion.Snapshot, have bool) {
	drawer := newDrawer(img)

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Head Tracker"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return
	}

	pose := snap.Estimate.Pose

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("R: %6.1f", pose.Roll)))

	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(fmt.Sprintf("P: %6.1f", pose.Pitch)))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte(fmt.Sprintf("Y: %6.1f", pose.Yaw)))

	// Status line: calibration takes priority over drift/stillness flags.
	var status string
	switch {
	case snap.Calibrating:
		status = fmt.Sprintf("CAL %3.0f%%", snap.CalProgress*100)
	case snap.DriftActive:
		status = "DRIFT"
	case snap.Stationary:
		status = "STILL"
	default:
		status = "MOVING"
	}
	drawer.Dot = fixed.P(0, 52)
	drawer.DrawBytes([]byte(status))
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := newDrawer(img)

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Head Tracker"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Fusion core"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
