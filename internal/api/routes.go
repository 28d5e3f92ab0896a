package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pokefolio/pokefolio/internal/api/handlers"
	"github.com/pokefolio/pokefolio/internal/config"
	"github.com/pokefolio/pokefolio/internal/services"
)

// Services bundles everything the router needs. main wires this up once.
type Services struct {
	Auth       *services.AuthService
	Collection *services.CollectionService
	Listings   *services.ListingService
	Messages   *services.MessageService
	Catalog    *services.CatalogService
	Prices     *services.PriceTrackerService
	Snapshots  *services.SnapshotService
	Images     *services.ImageStorageService
}

func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.Default()
	router.Use(PrometheusMiddleware())

	// CORS configuration - credentials must be allowed for cookie sessions,
	// which also means wildcard origins are off the table.
	corsConfig := cors.DefaultConfig()
	if cfg.CORSAllowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg.SessionCookieName, cfg.SessionTTLDays)
	cardHandler := handlers.NewCardHandler(svc.Catalog)
	collectionHandler := handlers.NewCollectionHandler(svc.Collection, svc.Snapshots)
	marketplaceHandler := handlers.NewMarketplaceHandler(svc.Listings)
	messageHandler := handlers.NewMessageHandler(svc.Messages)
	priceHandler := handlers.NewPriceHandler(svc.Prices)
	uploadHandler := handlers.NewUploadHandler(svc.Images)

	authRequired := AuthRequired(svc.Auth, cfg.SessionCookieName)

	// Serve uploaded listing and message images
	if svc.Images != nil {
		router.Static("/images/uploads", svc.Images.GetStorageDir())
	}

	// API routes
	api := router.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", authRequired, authHandler.Me)
			auth.PUT("/preferences", authRequired, authHandler.UpdatePreferences)
		}

		// Card catalog routes (proxied, public)
		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/sets", cardHandler.ListSets)
			cards.GET("/:id", cardHandler.GetCard)
		}

		// Price proxy routes (public)
		prices := api.Group("/prices")
		{
			prices.GET("/status", priceHandler.GetQuotaStatus)
			prices.GET("/history", priceHandler.GetPriceHistory)
			prices.GET("/graded", priceHandler.GetGradedComparables)
		}

		// Marketplace routes - browsing is public, selling is not
		marketplace := api.Group("/marketplace")
		{
			marketplace.GET("", marketplaceHandler.List)
			marketplace.GET("/my", authRequired, marketplaceHandler.MyListings)
			marketplace.GET("/:id", marketplaceHandler.Get)
			marketplace.POST("", authRequired, marketplaceHandler.Create)
			marketplace.PATCH("/:id", authRequired, marketplaceHandler.UpdateStatus)
			marketplace.DELETE("/:id", authRequired, marketplaceHandler.Delete)
		}

		// Collection routes
		collection := api.Group("/collection", authRequired)
		{
			collection.GET("", collectionHandler.GetCollection)
			collection.POST("", collectionHandler.Sync)
			collection.POST("/items", collectionHandler.AddItem)
			collection.PUT("/items/:cardId", collectionHandler.UpdateItem)
			collection.DELETE("/items/:cardId", collectionHandler.DeleteItem)
			collection.POST("/wishlist", collectionHandler.AddWishlistItem)
			collection.PUT("/wishlist/:cardId", collectionHandler.UpdateWishlistItem)
			collection.DELETE("/wishlist/:cardId", collectionHandler.DeleteWishlistItem)
			collection.GET("/stats", collectionHandler.GetStats)
			collection.GET("/history", collectionHandler.GetValueHistory)
		}

		// Message routes
		messages := api.Group("/messages", authRequired)
		{
			messages.GET("", messageHandler.Threads)
			messages.POST("", messageHandler.Send)
			messages.GET("/:listingId", messageHandler.Thread)
			messages.PATCH("/:id/read", messageHandler.MarkRead)
		}

		// Upload route
		api.POST("/upload", authRequired, uploadHandler.Upload)
	}

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
