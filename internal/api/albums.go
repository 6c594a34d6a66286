package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oriani/internal/logging"
	"oriani/internal/models"
)

func (s *Server) HandleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := s.db.Albums.List(r.Context())
	if err != nil {
		s.internalError(w, r, err, "failed to list albums")
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

func (s *Server) HandleGetAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := s.db.Albums.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Album not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to get album")
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (s *Server) HandleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var in models.AlbumInput
	if !decodeJSON(w, r, &in) {
		return
	}
	album, err := s.db.Albums.Create(r.Context(), in)
	if err != nil {
		s.internalError(w, r, err, "failed to create album")
		return
	}
	logging.Ctx(r.Context()).Info().Str("album_id", album.ID).Str("category", album.Category).Msg("album created")
	respondJSON(w, http.StatusOK, album)
}

func (s *Server) HandleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	var in models.AlbumInput
	if !decodeJSON(w, r, &in) {
		return
	}
	album, err := s.db.Albums.Update(r.Context(), chi.URLParam(r, "id"), in)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Album not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to update album")
		return
	}
	respondJSON(w, http.StatusOK, album)
}

func (s *Server) HandleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := s.db.Albums.Delete(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Album not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to delete album")
		return
	}
	logging.Ctx(r.Context()).Info().Str("album_id", id).Int64("photos_removed", removed).Msg("album deleted")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Album deleted successfully"})
}
