package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/maynagashev/statuslist-stats/internal/middleware"
)

// NewRouter настраивает и возвращает роутер chi.
func NewRouter(h *StatsHandler, apiKey string, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/aggregates", h.GetAggregates)
		r.Get("/charts/{metric}.png", h.GetChart)

		// Защищенные маршруты
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuthenticator(apiKey, logger))
			r.Post("/stats", h.Upload)
		})
	})

	return r
}
