package main

import (
	"flag"
	"log"
	"os"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/di"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s alert_store=%s telegram=%t kafka=%t",
		cfg.Environment, cfg.Alert.Store, cfg.Telegram.Enabled, cfg.Kafka.Enabled)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Blocks until SIGINT or SIGTERM.
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
