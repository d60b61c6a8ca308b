package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/formcoach/internal/catalog"
	"github.com/claude/formcoach/internal/metrics"
	"github.com/claude/formcoach/internal/session"
	"github.com/claude/formcoach/internal/storage"
)

// Options configures the HTTP surface.
type Options struct {
	APIKey string
	// AllowedOrigins are host patterns accepted for cross-origin websocket
	// upgrades. Same-origin requests are always accepted.
	AllowedOrigins []string
	// Registry backs /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	dispatcher *session.Dispatcher
	catalog    *catalog.Catalog
	store      storage.Store
	metrics    *metrics.Manager
	opts       Options
	identity   func(http.Handler) http.Handler
	conns      *connSet
	log        *slog.Logger
	router     chi.Router
}

// New creates a new Server with all routes configured.
func New(d *session.Dispatcher, cat *catalog.Catalog, store storage.Store, m *metrics.Manager, opts Options, log *slog.Logger) *Server {
	s := &Server{
		dispatcher: d,
		catalog:    cat,
		store:      store,
		metrics:    m,
		opts:       opts,
		identity:   DevIdentity,
		conns:      newConnSet(),
		log:        log,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetIdentity resolves callers through whois instead of the dev user.
// Must be called before serving.
func (s *Server) SetIdentity(whois WhoIsFunc) {
	s.identity = TailscaleIdentity(whois, s.log)
}

// SetMCP mounts the MCP handler at /mcp behind the API key.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.opts.APIKey)).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.identity(next).ServeHTTP(w, r)
		})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/ws", s.handleWS)
	if s.opts.Registry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{}))
	}

	// Catalog and identity are public; tsnet handles access.
	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/exercises", s.handleExercises)

	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.opts.APIKey))
		r.Get("/api/v1/sessions", s.handleSessions)
		r.Post("/api/v1/sessions/{id}/end", s.handleEndSession)
		r.Get("/api/v1/workouts", s.handleQueryWorkouts)
		r.Get("/api/v1/workouts/recent", s.handleRecentWorkouts)
		r.Put("/api/v1/users/{id}/weight", s.handleSetWeight)
	})
}
