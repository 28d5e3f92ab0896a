// Package metrics provides Prometheus metrics for the marketplace server.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokefolio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Marketplace Metrics
	ListingsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_listings_created_total",
			Help: "Total number of marketplace listings created",
		},
	)

	ListingsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokefolio_listings_closed_total",
			Help: "Listings moved to a terminal state, by outcome",
		},
		[]string{"outcome"}, // "sold", "cancelled", "deleted"
	)

	InsufficientQuantityTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_listing_insufficient_quantity_total",
			Help: "Listing attempts rejected for exceeding the sellable quantity",
		},
	)

	ActiveListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefolio_active_listings",
			Help: "Number of currently active marketplace listings",
		},
	)

	// Messaging Metrics
	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_messages_sent_total",
			Help: "Total number of marketplace messages sent",
		},
	)

	// Collection Metrics
	CollectionCardsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefolio_collection_cards_total",
			Help: "Total number of cards tracked across all collections",
		},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefolio_collection_value_usd",
			Help: "Total estimated value of all collections in USD",
		},
	)

	SnapshotsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_value_snapshots_recorded_total",
			Help: "Daily collection value snapshots recorded",
		},
	)

	// Price API Metrics
	PriceAPIRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_price_api_requests_total",
			Help: "Total number of external price API requests made",
		},
	)

	PriceAPIQuotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokefolio_price_api_quota_remaining",
			Help: "Remaining external price API requests for today",
		},
	)

	CatalogCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_catalog_cache_hits_total",
			Help: "Card catalog cache hit count",
		},
	)

	CatalogCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pokefolio_catalog_cache_misses_total",
			Help: "Card catalog cache miss count",
		},
	)
)
