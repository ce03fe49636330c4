package server

import (
	"github.com/go-chi/chi/v5"

	"mpdhub/internal/metrics"
)

func (s *Server) routes() {
	s.router.Handle("/live", s.health)
	s.router.Handle("/ready", s.health)
	s.router.Handle("/metrics", metrics.Handler())

	// Websocket upgrades must not see the JSON middleware.
	s.router.Get("/api/players/ws", s.handlePlayersWS)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limitBody)
		r.Use(corsMiddleware(s.corsOrigin))

		r.Get("/players/events", s.handlePlayersSSE)

		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)

			r.With(s.rateLimitFlows).Post("/flows", s.handleInitFlow)
			r.Get("/flows/{id}", s.handleGetFlow)
			r.With(s.rateLimitFlows).Post("/flows/{id}", s.handleConfigureFlow)
			r.Delete("/flows/{id}", s.handleAbortFlow)

			r.Get("/entries", s.handleListEntries)
			r.Get("/entries/{id}", s.handleGetEntry)
			r.Delete("/entries/{id}", s.handleDeleteEntry)

			r.Get("/version", s.handleGetVersion)

			r.Get("/players", s.handleListPlayers)
			r.Get("/players/{id}", s.handleGetPlayer)
		})
	})
}
