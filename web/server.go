/* server.go
 * HTTP server exposing published tournament snapshots. Chat posts results
 * URLs pointing here, so the routes must stay stable.
 */

package web

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config carries everything Start needs to serve.
type Config struct {
	Addr      string
	Snapshots SnapshotSource
}

// Start runs the HTTP server until it fails. Blocks.
func Start(cfg Config) error {
	s := NewServer(cfg.Snapshots)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	log.Println("HTTP server listening on", cfg.Addr)
	return srv.ListenAndServe()
}

// Routes builds the router. Split from Start so tests can drive handlers
// through httptest without binding a port.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.HealthHandler)
	r.Get("/tournaments/{id}", s.TournamentHandler)
	return r
}
