// Package server exposes the KB and open-domain search pipelines over
// HTTP and a websocket.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/xhad/sage/pkg/kb"
	"github.com/xhad/sage/pkg/search"
	"go.uber.org/zap"
)

type Config struct {
	Host          string
	Port          int
	AllowedOrigin string
}

type Server struct {
	config Config
	kb     *kb.Service
	search *search.Service
	logger *zap.Logger
	server *http.Server
}

func NewServer(config Config, kbService *kb.Service, searchService *search.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		config: config,
		kb:     kbService,
		search: searchService,
		logger: logger,
	}
}

// Handler builds the route tree. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.config.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/api/user/search", s.handleSearch)
	r.Post("/api/user/ingest", s.handleIngest)
	r.Post("/api/user/query", s.handleQueryKB)
	r.Get("/api/user/reset", s.handleResetKB)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
