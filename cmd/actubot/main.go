package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "actubot/core/cmd"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        loadConfig,
		Bootstrap:         buildApp,
	})
	if err != nil {
		log.Fatalf("actubot: %v", err)
	}
}
