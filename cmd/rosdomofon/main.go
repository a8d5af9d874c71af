package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
)

func main() {
	fmt.Println("Hello from rosdomofon-bitrix24!")

	logger := log.New(os.Stdout, "[ROSDOMOFON] ", log.LstdFlags|log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}
	logger.Printf("KAFKA_SSL_CA_CERT_PATH=%q", cfg.Kafka.SSLCACertPath)

	api := rosdomofon.NewClient(cfg.RosDomofon.BaseURL, cfg.RosDomofon.Username, cfg.RosDomofon.Password, logger,
		rosdomofon.WithTimeout(cfg.RosDomofon.Timeout))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	if err := api.Authenticate(ctx); err != nil {
		log.Fatal("❌ Authentication failed:", err)
	}

	if cfg.Signup.ID == 0 {
		logger.Printf("⏭️  SIGNUP_ID not set, nothing to update")
		return
	}

	if err := api.UpdateSignup(ctx, cfg.Signup.ID, cfg.Signup.Status); err != nil {
		log.Fatal("❌ Failed to update signup:", err)
	}

	fmt.Printf("✅ Signup %d is now %q\n", cfg.Signup.ID, cfg.Signup.Status)
}
