package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/VladimirMonin/go-chat/config"
	"github.com/VladimirMonin/go-chat/internal/app"
)

const defaultConfigPath = "config.yml"

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err = app.Run(cfg); err != nil {
		log.Fatalf("app stopped with error: %v", err)
	}
}
