package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	httphandlers "budgetbully/internal/interfaces/http"
	"budgetbully/internal/shared/config"
	"budgetbully/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", httphandlers.HandleHealth)
	mux.HandleFunc("GET /ready", httphandlers.HandleReady(deps.DB))

	mux.HandleFunc("POST /webhooks/plaid", deps.WebhookHandler.HandlePlaid)

	// Outermost first: logging puts the request logger on the context used by recovery.
	var handler http.Handler = middleware.Logging(middleware.Recovery(middleware.Tracing(mux)))

	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Info().Msg("TLS security middleware enabled (HSTS)")
	}

	return handler
}
