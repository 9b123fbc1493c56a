package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/oggyb/irlobby/internal/config"
	"github.com/oggyb/irlobby/internal/db"
	"github.com/oggyb/irlobby/internal/logger"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding completed.")
}
