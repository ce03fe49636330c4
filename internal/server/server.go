package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/heptiolabs/healthcheck"

	"mpdhub/internal/configflow"
	"mpdhub/internal/hub"
	"mpdhub/internal/integration"
	"mpdhub/internal/models"
	"mpdhub/internal/store"
)

// PlayerSource exposes live media player state.
type PlayerSource interface {
	Players() []models.PlayerState
	Player(entryID string) (models.PlayerState, bool)
	Subscribe() chan models.PlayerState
	Unsubscribe(ch chan models.PlayerState)
}

type Server struct {
	router      chi.Router
	store       *store.Store
	hub         *hub.Hub
	integration *integration.Integration
	flows       *configflow.Manager
	players     PlayerSource
	corsOrigin  string
	flowLimit   int
	flowLimiter *rateLimiter
	health      healthcheck.Handler
}

func NewServer(s *store.Store, opts ...Option) *Server {
	srv := &Server{
		router: chi.NewRouter(),
		store:  s,
		health: healthcheck.NewHandler(),
	}
	for _, o := range opts {
		o(srv)
	}
	if srv.flowLimit > 0 {
		srv.flowLimiter = newRateLimiter(srv.flowLimit)
	}
	srv.health.AddReadinessCheck("database", s.Ping)
	srv.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))

	srv.router.Use(middleware.RequestID)
	srv.router.Use(requestLogger)
	srv.router.Use(middleware.Recoverer)
	srv.routes()
	return srv
}

type Option func(*Server)

func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// WithIntegration wires the lifecycle adapter and the hub it manages entries in.
func WithIntegration(h *hub.Hub, i *integration.Integration) Option {
	return func(s *Server) {
		s.hub = h
		s.integration = i
	}
}

func WithFlows(m *configflow.Manager) Option {
	return func(s *Server) { s.flows = m }
}

func WithPlayers(p PlayerSource) Option {
	return func(s *Server) { s.players = p }
}

// WithFlowRateLimit caps flow submissions per client IP per minute.
// Zero disables the limit.
func WithFlowRateLimit(perMinute int) Option {
	return func(s *Server) { s.flowLimit = perMinute }
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.flowLimiter != nil {
		s.flowLimiter.stop()
	}
}
