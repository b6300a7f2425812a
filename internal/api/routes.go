package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter creates and configures the Chi router
func NewRouter(h *Handlers, corsOrigin string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Recoverer)
	r.Use(Logger(logger))
	r.Use(CORS(corsOrigin))

	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/lots", h.ListLots)
		r.Get("/lots.geojson", h.LotsGeoJSON)
		r.Get("/lots/stats", h.LotStats)
		r.Get("/lots/{code}", h.GetLot)
		r.Get("/lots/{code}/measurements", h.LotMeasurements)
		r.Get("/lots/{code}/quotes", h.LotQuotes)

		r.Post("/quotes/calculate", h.CalculateQuote)
		r.Post("/quotes/discount", h.SyncDiscount)
		r.Post("/quotes", h.SaveQuote)
		r.Get("/quotes/{id}", h.GetQuote)
		r.Get("/quotes/{id}/schedule.xlsx", h.QuoteSchedule)
		r.Post("/quotes/{id}/confirm", h.ConfirmQuote)
		r.Delete("/quotes/{id}", h.DeleteQuote)

		r.Post("/sync/trigger", h.TriggerSync)
	})

	return r
}
