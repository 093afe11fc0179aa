package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bracketops/live-console/handlers"
	"github.com/bracketops/live-console/middleware"
)

// SetupRoutes wires the polling API surface. The state read is public (the
// spectator dashboard polls it every few seconds); mutating routes require
// an upstream-issued operator token.
func SetupRoutes(router *chi.Mux, live *handlers.LiveHandler, jwtSecret []byte) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/live/{matchID}", func(r chi.Router) {
		r.Get("/state", live.GetStateHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Post("/update", live.UpdateEventHandler)
			r.Post("/archive", live.ArchiveSnapshotHandler)
		})
	})
}
