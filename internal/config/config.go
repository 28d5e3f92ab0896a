// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBPath             string
	UploadDir          string
	CORSAllowedOrigins string

	SessionCookieName string
	SessionTTLDays    int

	CatalogBaseURL  string
	CatalogAPIKey   string
	CatalogCacheTTL int // minutes

	PriceAPIBaseURL    string
	PriceAPIKey        string
	PriceAPIDailyLimit int
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBPath:             getEnv("DB_PATH", "./pokefolio.db"),
		UploadDir:          getEnv("UPLOAD_DIR", "./data/uploads"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		SessionCookieName:  getEnv("SESSION_COOKIE_NAME", "pokefolio_session"),
		SessionTTLDays:     getEnvInt("SESSION_TTL_DAYS", 7),
		CatalogBaseURL:     getEnv("CATALOG_BASE_URL", "https://api.pokemontcg.io/v2"),
		CatalogAPIKey:      getEnv("CATALOG_API_KEY", ""),
		CatalogCacheTTL:    getEnvInt("CATALOG_CACHE_TTL_MINUTES", 60),
		PriceAPIBaseURL:    getEnv("PRICE_API_BASE_URL", "https://www.pokemonpricetracker.com/api/v2"),
		PriceAPIKey:        getEnv("PRICE_API_KEY", ""),
		PriceAPIDailyLimit: getEnvInt("PRICE_API_DAILY_LIMIT", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Warning: invalid integer for %s, using default %d", key, fallback)
	}
	return fallback
}
