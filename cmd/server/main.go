package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokefolio/pokefolio/internal/api"
	"github.com/pokefolio/pokefolio/internal/config"
	"github.com/pokefolio/pokefolio/internal/database"
	"github.com/pokefolio/pokefolio/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize database
	if err := database.Initialize(cfg.DBPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	db := database.GetDB()

	// Initialize services
	authService := services.NewAuthService(db)
	collectionService := services.NewCollectionService(db)
	listingService := services.NewListingService(db)
	messageService := services.NewMessageService(db)
	catalogService := services.NewCatalogService(
		cfg.CatalogBaseURL, cfg.CatalogAPIKey,
		time.Duration(cfg.CatalogCacheTTL)*time.Minute)
	priceTracker := services.NewPriceTrackerService(
		cfg.PriceAPIBaseURL, cfg.PriceAPIKey, cfg.PriceAPIDailyLimit)
	imageStorage := services.NewImageStorageService(cfg.UploadDir)
	snapshotService := services.NewSnapshotService(db, collectionService)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start snapshot worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in snapshot service: %v - restarting in 30 seconds", r)
					}
				}()
				snapshotService.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Snapshot service restarting after panic recovery...")
			}
		}
	}()

	// Seed the Prometheus gauges so scrapes before the first write are
	// accurate after a restart.
	collectionService.RefreshGlobalGauges()

	// Setup router
	router := api.SetupRouter(cfg, api.Services{
		Auth:       authService,
		Collection: collectionService,
		Listings:   listingService,
		Messages:   messageService,
		Catalog:    catalogService,
		Prices:     priceTracker,
		Snapshots:  snapshotService,
		Images:     imageStorage,
	})

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the snapshot worker
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
