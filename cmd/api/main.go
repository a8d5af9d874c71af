package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/config"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/rosdomofon"
	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/sync"
)

func main() {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Failed to load configuration:", err)
	}

	api := rosdomofon.NewClient(cfg.RosDomofon.BaseURL, cfg.RosDomofon.Username, cfg.RosDomofon.Password, logger,
		rosdomofon.WithTimeout(cfg.RosDomofon.Timeout))

	authCtx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	err = api.Authenticate(authCtx)
	cancel()
	if err != nil {
		log.Fatal("❌ Authentication failed:", err)
	}

	server := NewAPIServer(api, sync.NewService(logger, os.Stdout), logger)

	// Start server
	srv := &http.Server{
		Addr:         cfg.API.Address(),
		Handler:      handlers.LoggingHandler(os.Stdout, server.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Printf("🚀 API Server starting on %s", srv.Addr)
		logger.Printf("🔧 API: http://%s/api/v1", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Printf("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Printf("✅ Server exited")
}
