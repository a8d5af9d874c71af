// cmd/dbcheck/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/repository"
)

func main() {
	fmt.Println("🗄️  Signup journal - database check")
	fmt.Println("==================================")

	// Step 1: Load configuration
	fmt.Println("\n📋 Loading configuration from .env file...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}
	if !cfg.SignupDB.Enabled() {
		log.Fatal("❌ SIGNUP_DB_HOST is not set")
	}
	fmt.Printf("✅ Configuration loaded successfully\n")
	fmt.Printf("   🏢 Database: %s@%s:%d/%s\n", cfg.SignupDB.Username, cfg.SignupDB.Host, cfg.SignupDB.Port, cfg.SignupDB.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Step 2: Connect and ping
	fmt.Println("\n🔌 Connecting to the journal database...")
	journal, err := repository.Open(ctx, cfg.SignupDB.GetConnectionString())
	if err != nil {
		fmt.Printf("❌ Database connection failed!\n")
		fmt.Printf("   Error: %v\n", err)
		fmt.Printf("\n🔧 Troubleshooting tips:\n")
		fmt.Printf("   1. Check that SQL Server is running and reachable on port %d\n", cfg.SignupDB.Port)
		fmt.Printf("   2. Verify the firewall allows the port\n")
		fmt.Printf("   3. Check the SIGNUP_DB_USER permissions on %s\n", cfg.SignupDB.Database)
		log.Fatal("Cannot proceed without database connection")
	}
	defer journal.Close()
	fmt.Println("✅ Database connection established successfully!")

	// Step 3: Table
	fmt.Println("\n📋 Ensuring the SignUps table exists...")
	if err := journal.EnsureSchema(ctx); err != nil {
		log.Fatal("❌ ", err)
	}
	fmt.Println("✅ Table 'SignUps' ready")

	// Step 4: Count
	count, err := journal.Count(ctx)
	if err != nil {
		log.Fatal("❌ ", err)
	}
	fmt.Printf("📊 Journalled signups: %d\n", count)

	fmt.Println("\n🎉 Check completed successfully!")
}
