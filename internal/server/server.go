// Package server provides the HTTP API for Po-You.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/classify"
	"github.com/po-you/poyou/internal/config"
	"github.com/po-you/poyou/internal/search"
	"github.com/po-you/poyou/internal/store"
)

// Server is the HTTP server for the Po-You API.
type Server struct {
	engine     *search.Engine
	store      store.Store
	classifier *classify.Service
	config     *config.Config
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	st store.Store,
	classifier *classify.Service,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:     engine,
		store:      st,
		classifier: classifier,
		config:     cfg,
		logger:     logger,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/api/v1/posters", s.handleSearchPosters)
	r.Post("/api/v1/posters", s.handleCreatePoster)
	r.Get("/api/v1/posters/{id}", s.handleGetPoster)
	r.Delete("/api/v1/posters/{id}", s.handleDeletePoster)
	r.Get("/api/v1/posters/{id}/image", s.handleGetImage)
	r.Get("/api/v1/posters/{id}/similar", s.handleSimilarPosters)
	r.Post("/api/v1/predict", s.handlePredict)
	r.Post("/api/v1/recommend", s.handleRecommend)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
