package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docquery/internal/config"
	"github.com/dgallion1/docquery/internal/extract"
	"github.com/dgallion1/docquery/internal/runstore"
	"github.com/dgallion1/docquery/internal/selector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docquery.
type Server struct {
	router chi.Router
	store  *runstore.Store
	stats  *extract.Stats
	engine *selector.Engine
	slots  chan struct{}
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. store may be nil, in
// which case runs are not recorded.
func NewServer(store *runstore.Store, log *slog.Logger, cfg config.Config) *Server {
	limit := cfg.MaxConcurrentExtract
	if limit <= 0 {
		limit = 4
	}
	s := &Server{
		store:  store,
		stats:  extract.NewStats(cfg.StatsWindow),
		engine: selector.NewEngine(),
		slots:  make(chan struct{}, limit),
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/extract", s.handleExtract)
		r.Get("/api/runs", s.handleListRuns)
		r.Get("/api/runs/{runID}", s.handleGetRun)
		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
