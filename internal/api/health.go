package api

import (
	"net/http"

	"github.com/vmunix/filmoteca/internal/catalog"
)

type healthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	TMDB    bool   `json:"tmdb"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Storage: catalog.BackendOf(s.deps.Catalog.Repository()),
		TMDB:    s.deps.Metadata != nil && s.deps.Metadata.Configured(),
	})
}
