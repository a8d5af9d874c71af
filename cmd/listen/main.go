package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/repository"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/sync"
)

func main() {
	logger := log.New(os.Stdout, "[LISTEN] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}

	api := rosdomofon.NewClient(cfg.RosDomofon.BaseURL, cfg.RosDomofon.Username, cfg.RosDomofon.Password, logger,
		rosdomofon.WithTimeout(cfg.RosDomofon.Timeout))

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	if err := api.Authenticate(ctx); err != nil {
		cancel()
		log.Fatal("❌ Authentication failed:", err)
	}

	var opts []sync.Option
	if cfg.SignupDB.Enabled() {
		journal, err := repository.Open(ctx, cfg.SignupDB.GetConnectionString())
		if err != nil {
			cancel()
			log.Fatal("❌ Failed to open signup journal:", err)
		}
		defer journal.Close()

		if err := journal.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal("❌ Failed to prepare signup journal:", err)
		}
		logger.Printf("🗄️  Journalling signups to %s/%s", cfg.SignupDB.Host, cfg.SignupDB.Database)
		opts = append(opts, sync.WithJournal(journal))
	}
	cancel()

	service := sync.NewService(logger, os.Stdout, opts...)

	consumer, err := rosdomofon.NewSignupConsumer(cfg.Kafka, logger)
	if err != nil {
		log.Fatal("❌ Failed to create signup consumer:", err)
	}
	consumer.SetCompanySignupHandler(service.HandleSignup)

	if err := consumer.StartCompanySignupConsumer(context.Background()); err != nil {
		log.Fatal("❌ Failed to start signup consumer:", err)
	}

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Printf("🛑 Stopping company signup consumer...")
	consumer.StopCompanySignupConsumer()

	logger.Printf("🔒 Closing connections...")
	if err := consumer.Close(); err != nil {
		logger.Printf("❌ %v", err)
	}

	logger.Printf("✅ Listener exited")
}
