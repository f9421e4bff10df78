package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
)

// Runs schema migrations without starting the server. Useful for deploy
// pipelines that migrate before rolling new instances.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	if err := logger.Initialize("info", ""); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migrations complete")
}
