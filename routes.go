package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Parse endpoint - LRC text in, timed document out
	router.HandleFunc("/parse", parseLyrics)

	// Lyrics endpoints - default provider, or the one named in the path
	router.HandleFunc("/getLyrics", getLyrics)
	router.HandleFunc("/{provider}/getLyrics", getLyrics)
	router.HandleFunc("/providers", listProviders)

	// Cache management endpoints
	router.HandleFunc("/cache", getCacheDump)
	router.HandleFunc("/cache/clear", clearCache)

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus)
	router.HandleFunc("/stats", getStats)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", resetCircuitBreaker)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
