// cmd/migrate/main.go
//
// Usage: go run ./cmd/migrate [up|down|status|redo|version]
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"evcharge-backend/internal/config"
	"evcharge-backend/internal/infrastructure/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load database config: %v", err)
	}

	log.Printf("🗄️  Running migrations: %s", command)
	if err := database.Migrate(cfg, command); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	log.Println("✅ Migrations done")
}
