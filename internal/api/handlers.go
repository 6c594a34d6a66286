package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"oriani/internal/auth"
	"oriani/internal/logging"
	"oriani/internal/metrics"
	"oriani/internal/models"
	"oriani/internal/storage"
	"oriani/internal/validation"
)

type Server struct {
	db          *storage.DB
	authService *auth.AuthService
	metrics     *metrics.Metrics
}

func NewServer(db *storage.DB, authService *auth.AuthService, m *metrics.Metrics) *Server {
	return &Server{
		db:          db,
		authService: authService,
		metrics:     m,
	}
}

type Options struct {
	CORSOrigins []string
	// LoginRateLimit is the number of login attempts per minute and IP.
	// Zero disables the limit.
	LoginRateLimit int
}

// Routes returns the API router, to be mounted under /api.
func (s *Server) Routes(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.HandleRoot)
	r.Get("/categories", s.HandleCategories)

	r.Group(func(r chi.Router) {
		if opts.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.LoginRateLimit, time.Minute))
		}
		r.Post("/auth/login", s.HandleLogin)
	})

	r.Route("/albums", func(r chi.Router) {
		r.Get("/", s.HandleListAlbums)
		r.Get("/{id}", s.HandleGetAlbum)
		r.Group(func(r chi.Router) {
			r.Use(s.authService.RequireBearer)
			r.Post("/", s.HandleCreateAlbum)
			r.Put("/{id}", s.HandleUpdateAlbum)
			r.Delete("/{id}", s.HandleDeleteAlbum)
		})
	})

	r.Route("/photos", func(r chi.Router) {
		r.Get("/", s.HandleListPhotos)
		r.Get("/{id}", s.HandleGetPhoto)
		r.Group(func(r chi.Router) {
			r.Use(s.authService.RequireBearer)
			r.Post("/upload", s.HandleUploadPhoto)
			r.Put("/{id}", s.HandleUpdatePhoto)
			r.Delete("/{id}", s.HandleDeletePhoto)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Oriani Multissoluções API"})
}

func (s *Server) HandleCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{"categories": models.Categories})
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := s.authService.Login(r.Context(), req.Email, req.Password)
	s.metrics.ObserveLogin("api", err == nil)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, models.Token{AccessToken: token, TokenType: "bearer"})
	case errors.Is(err, models.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, models.ErrMisconfigured):
		logging.Ctx(r.Context()).Error().Msg("login attempted but ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		respondError(w, http.StatusInternalServerError, "Admin credentials not configured")
	default:
		s.internalError(w, r, err, "login failed")
	}
}

// decodeJSON reads and validates a JSON request body. On failure it writes
// a 422 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	return validate(w, v)
}

func validate(w http.ResponseWriter, v any) bool {
	err := validation.Struct(v)
	if err == nil {
		return true
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: verr.Error(), Errors: verr.Fields})
		return false
	}
	respondError(w, http.StatusUnprocessableEntity, err.Error())
	return false
}

type errorResponse struct {
	Detail string                  `json:"detail"`
	Errors []validation.FieldError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}
