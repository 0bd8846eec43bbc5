package main

import (
	"log"

	"github.com/relabs-tech/headtrack/internal/app"
	"github.com/relabs-tech/headtrack/internal/config"
)

func main() {
	log.Println("starting headtrack console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("headtrack_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
