/* handlers.go
 * HTTP handlers serving tournament snapshots as JSON.
 */

package web

import (
	"context"
	"errors"
	"log"
	"net/http"

	"geotourney-bot/api/snapshot"
	"geotourney-bot/api/store"

	"github.com/go-chi/chi/v5"
	"github.com/unrolled/render"
)

// SnapshotSource is the lookup the web layer needs from storage.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context, id string) (snapshot.Document, error)
}

type Server struct {
	snapshots SnapshotSource
	render    *render.Render
}

func NewServer(snapshots SnapshotSource) *Server {
	return &Server{
		snapshots: snapshots,
		render:    render.New(render.Options{IndentJSON: true}),
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	s.render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TournamentHandler serves one published tournament snapshot by id.
func (s *Server) TournamentHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.snapshots.GetSnapshot(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			s.render.JSON(w, http.StatusNotFound, map[string]string{"error": "tournament not found"})
			return
		}
		log.Println("snapshot lookup failed:", err)
		s.render.JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	s.render.JSON(w, http.StatusOK, doc)
}
