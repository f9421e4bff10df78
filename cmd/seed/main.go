package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/onsekiz/backend/internal/database"
	"github.com/onsekiz/backend/internal/logger"
	"github.com/onsekiz/backend/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	seeder := seed.NewSeeder(database.DB)

	var err error
	switch command {
	case "dev":
		err = seeder.SeedDev()
	case "test":
		err = seeder.SeedTest()
	case "clean":
		err = seeder.Clean()
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - seed the development database with realistic data")
		fmt.Println("  test  - seed a minimal fixture set")
		fmt.Println("  clean - remove previously seeded data")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("seed %s failed: %v", command, err)
	}

	log.Printf("seed %s complete", command)
}
