package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/sync"
)

func main() {
	fmt.Println("🔍 RosDomofon products - old vs new algorithm")
	fmt.Println("=============================================")

	logger := log.New(os.Stderr, "[COMPARE] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}

	api := rosdomofon.NewClient(cfg.RosDomofon.BaseURL, cfg.RosDomofon.Username, cfg.RosDomofon.Password, logger,
		rosdomofon.WithTimeout(cfg.RosDomofon.Timeout))

	// Walking every account is slow on large companies.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := api.Authenticate(ctx); err != nil {
		log.Fatal("❌ Authentication failed:", err)
	}

	service := sync.NewService(logger, os.Stdout)
	result, err := service.CompareStrategies(ctx, api)
	if err != nil {
		log.Fatal("❌ Comparison failed:", err)
	}

	fmt.Println("\n📦 Old algorithm products:")
	if err := sync.WriteProducts(os.Stdout, result.Old); err != nil {
		log.Fatal(err)
	}
	fmt.Println("\n📦 New algorithm products:")
	if err := sync.WriteProducts(os.Stdout, result.New); err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	if _, err := result.Report.WriteTo(os.Stdout); err != nil {
		log.Fatal(err)
	}

	logger.Printf("⏱️  Duration: %s", result.Duration)
}
