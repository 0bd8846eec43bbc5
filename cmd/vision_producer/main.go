package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/headtrack/internal/app"
	"github.com/relabs-tech/headtrack/internal/config"
)

func main() {
	configPath := flag.String("config", "./headtrack_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting headtrack vision producer (mock camera → MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunVisionProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
