package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"oriani/internal/logging"
	"oriani/internal/models"
	"oriani/internal/storage"
)

const (
	// maxUploadRequestBytes bounds the whole multipart body: the image
	// limit plus room for the other fields and part headers.
	maxUploadRequestBytes = storage.MaxUploadBytes + 1<<20
	maxUpdateRequestBytes = 1 << 20
	multipartMemory       = 8 << 20
)

func (s *Server) HandleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.db.Photos.List(r.Context(), r.URL.Query().Get("album_id"))
	if err != nil {
		s.internalError(w, r, err, "failed to list photos")
		return
	}
	respondJSON(w, http.StatusOK, photos)
}

func (s *Server) HandleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.db.Photos.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Photo not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to get photo")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (s *Server) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusBadRequest, "File size exceeds 5MB limit")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	up := models.PhotoUpload{
		AlbumID:     r.FormValue("album_id"),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if !validate(w, &up) {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	up.MimeType = header.Header.Get("Content-Type")
	up.Data, err = io.ReadAll(io.LimitReader(file, storage.MaxUploadBytes+1))
	if err != nil {
		s.internalError(w, r, err, "failed to read upload")
		return
	}

	photo, err := s.db.Photos.Upload(r.Context(), up, storage.APIUploadPolicy)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "Album not found")
		return
	case errors.Is(err, models.ErrUnsupportedMediaType):
		respondError(w, http.StatusBadRequest, "Invalid file type. Only JPEG, PNG, and WebP are allowed")
		return
	case errors.Is(err, models.ErrPayloadTooLarge):
		respondError(w, http.StatusBadRequest, "File size exceeds 5MB limit")
		return
	default:
		s.internalError(w, r, err, "failed to store photo")
		return
	}

	s.metrics.ObserveUpload(len(up.Data))
	logging.Ctx(r.Context()).Info().
		Str("photo_id", photo.ID).
		Str("album_id", photo.AlbumID).
		Int("bytes", len(up.Data)).
		Msg("photo uploaded")
	respondJSON(w, http.StatusOK, photo)
}

// HandleUpdatePhoto accepts the title and description as a url-encoded or
// multipart form.
func (s *Server) HandleUpdatePhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpdateRequestBytes)
	if err := r.ParseMultipartForm(maxUpdateRequestBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := models.PhotoUpdate{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	if !validate(w, &in) {
		return
	}
	photo, err := s.db.Photos.Update(r.Context(), chi.URLParam(r, "id"), in.Title, in.Description)
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Photo not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to update photo")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

func (s *Server) HandleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	err := s.db.Photos.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Photo not found")
		return
	}
	if err != nil {
		s.internalError(w, r, err, "failed to delete photo")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Photo deleted successfully"})
}
