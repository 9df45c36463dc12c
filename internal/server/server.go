// Package server provides the HTTP server for facemark.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/facemark/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	// Service handles the API; without it only health and static files are served.
	Service   api.Service
	Snapshots Snapshotter
	StaticDir string
}

// Server is the facemark HTTP server.
type Server struct {
	config     Config
	router     *chi.Mux
	httpServer *http.Server
	start      time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	s := &Server{
		config: config,
		router: r,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/api/health", s.handleHealth)

	if s.config.Service != nil {
		faces := api.NewFacesHandler(s.config.Service)
		attendance := api.NewAttendanceHandler(s.config.Service)

		r.Get("/api/faces", faces.List)
		r.Post("/api/faces", faces.Register)
		r.Method(http.MethodPost, "/api/recognize", api.NewRecognizeHandler(s.config.Service))
		r.Method(http.MethodGet, "/api/recognize/ws", NewRecognizeSocket(s.config.Service))
		r.Get("/api/attendance", attendance.List)
		r.Get("/api/attendance/export", attendance.Export)
	}

	if s.config.Snapshots != nil {
		r.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Snapshots))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("Listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
