package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
)

func main() {
	fmt.Println("🔍 RosDomofon Debug Mode - Exploring the API")
	fmt.Println("============================================")

	// Create logger
	logger := log.New(os.Stdout, "[DEBUG] ", log.LstdFlags|log.Lshortfile)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}

	api := rosdomofon.NewClient(cfg.RosDomofon.BaseURL, cfg.RosDomofon.Username, cfg.RosDomofon.Password, logger,
		rosdomofon.WithTimeout(cfg.RosDomofon.Timeout))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := api.Authenticate(ctx); err != nil {
		log.Fatal("❌ Authentication failed:", err)
	}

	fmt.Println("🔍 Step 1: Account by phone")
	if cfg.ProbePhone == "" {
		fmt.Println("⏭️  PROBE_PHONE not set, skipping")
	} else if err := probeAccount(ctx, api, models.Phone(cfg.ProbePhone)); err != nil {
		fmt.Printf("❌ Probe failed: %v\n", err)
	}
	fmt.Println()

	fmt.Println("🔍 Step 2: Entrances and services")
	page, err := api.GetEntrances(ctx, true)
	if err != nil {
		fmt.Printf("❌ Entrances failed: %v\n", err)
	} else {
		fmt.Printf("  Entrances: %d (total %d)\n", len(page.Content), page.TotalElements)
		fmt.Printf("  Services:  %d\n", page.ServiceCount())
		for i, entrance := range page.Content {
			if i == 5 {
				fmt.Printf("  ... and %d more entrances\n", len(page.Content)-i)
				break
			}
			fmt.Printf("  %d. %s (%d services)\n", entrance.ID, entrance.Address, len(entrance.Services))
		}
	}
}

// probeAccount prints the account owning phone and its service connections.
func probeAccount(ctx context.Context, api *rosdomofon.Client, phone models.Phone) error {
	number, err := phone.Int64()
	if err != nil {
		return err
	}

	account, err := api.GetAccountByPhone(ctx, number)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", account)
	fmt.Printf("  Abonent ID: %d\n", account.Owner.ID)

	connections, err := api.GetAccountConnections(ctx, account.ID)
	if err != nil {
		return err
	}

	fmt.Printf("  Connections: %d\n", len(connections))
	for _, connection := range connections {
		fmt.Printf("    • #%d %s [%s] tariff=%.2f blocked=%t\n",
			connection.ID, connection.Service.CustomName, connection.Service.Name, connection.Tariff, connection.Blocked)
	}
	return nil
}
