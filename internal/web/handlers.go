package web

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"oriani/internal/auth"
	"oriani/internal/logging"
	"oriani/internal/metrics"
	"oriani/internal/models"
	"oriani/internal/storage"
	"oriani/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	homePhotoCount = 8
	whatsappNumber = "5519971387382"

	maxUploadRequestBytes = storage.MaxUploadBytes + 1<<20
)

var pageTemplates = []string{
	"home.html",
	"gallery.html",
	"service.html",
	"orcamento.html",
	"login.html",
	"admin.html",
	"notfound.html",
}

type Server struct {
	db          *storage.DB
	authService *auth.AuthService
	metrics     *metrics.Metrics
	pages       map[string]*template.Template
}

func NewServer(db *storage.DB, authService *auth.AuthService, m *metrics.Metrics) (*Server, error) {
	base, err := template.New("").Funcs(template.FuncMap{
		"imageURL":   imageURL,
		"formatTime": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	}).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Server{
		db:          db,
		authService: authService,
		metrics:     m,
		pages:       pages,
	}, nil
}

type Options struct {
	LoginRateLimit int
}

func (s *Server) Routes(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.HandleHome)
	r.Get("/galeria", s.HandleGallery)
	r.Get("/galeria/{category}", s.HandleGallery)
	r.Get("/servicos/{service}", s.HandleService)
	r.Get("/orcamento", s.HandleQuote)

	r.Get("/login", s.HandleLoginPage)
	r.Group(func(r chi.Router) {
		if opts.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.LoginRateLimit, time.Minute))
		}
		r.Post("/login", s.HandleLogin)
	})
	r.Get("/logout", s.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.authService.RequireSession)
		r.Get("/admin", s.HandleAdmin)
		r.Post("/admin/album/create", s.HandleAlbumCreate)
		r.Post("/admin/album/edit/{id}", s.HandleAlbumEdit)
		r.Post("/admin/album/delete/{id}", s.HandleAlbumDelete)
		r.Post("/admin/photo/upload", s.HandlePhotoUpload)
		r.Post("/admin/photo/delete/{id}", s.HandlePhotoDelete)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderNotFound(w, "Página não encontrada")
	})
	return r
}

type PageData struct {
	Title           string
	MetaDescription string
	ActivePage      string
	Authenticated   bool

	Categories []string
	Services   []models.Service
	Service    models.Service
	Category   string

	Albums []AlbumView
	Photos []PhotoView

	WhatsAppNumber string
	Email          string
	Error          string
	Message        string
}

type AlbumView struct {
	models.Album
	Photos []models.Photo
}

type PhotoView struct {
	models.Photo
	AlbumName string
	Category  string
}

func (s *Server) newPage(r *http.Request, title, active string) PageData {
	_, authenticated := s.authService.SessionIdentity(r)
	return PageData{
		Title:          title,
		ActivePage:     active,
		Authenticated:  authenticated,
		Categories:     models.Categories,
		WhatsAppNumber: whatsappNumber,
	}
}

// Public pages

func (s *Server) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albums, err := s.db.Albums.List(ctx)
	if err != nil {
		s.internalError(w, r, err, "failed to list albums")
		return
	}
	photos, err := s.db.Photos.List(ctx, "")
	if err != nil {
		s.internalError(w, r, err, "failed to list photos")
		return
	}
	if len(photos) > homePhotoCount {
		photos = photos[:homePhotoCount]
	}

	data := s.newPage(r, "Oriani Multissoluções", "home")
	data.MetaDescription = "Serviços de elétrica, hidráulica, pintura, montagem de móveis e instalações com qualidade e garantia."
	data.Services = models.Services()
	data.Albums = withPhotos(albums, nil)
	data.Photos = photoViews(photos, albums)
	s.renderTemplate(w, http.StatusOK, "home.html", data)
}

// HandleGallery lists all photos, or those whose album belongs to the
// category in the path. An unknown category yields an empty gallery.
func (s *Server) HandleGallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := pathParam(r, "category")

	albums, err := s.db.Albums.List(ctx)
	if err != nil {
		s.internalError(w, r, err, "failed to list albums")
		return
	}
	photos, err := s.db.Photos.List(ctx, "")
	if err != nil {
		s.internalError(w, r, err, "failed to list photos")
		return
	}

	views := photoViews(photos, albums)
	if category != "" {
		filtered := views[:0]
		for _, p := range views {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		views = filtered
	}

	title := "Galeria"
	if category != "" {
		title = "Galeria - " + category
	}
	data := s.newPage(r, title, "galeria")
	data.Category = category
	data.Photos = views
	s.renderTemplate(w, http.StatusOK, "gallery.html", data)
}

func (s *Server) HandleService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	service, ok := models.LookupService(pathParam(r, "service"))
	if !ok {
		s.renderNotFound(w, "Serviço não encontrado")
		return
	}

	albums, err := s.db.Albums.ListByCategory(ctx, service.Category)
	if err != nil {
		s.internalError(w, r, err, "failed to list albums")
		return
	}
	photos := make(map[string][]models.Photo, len(albums))
	for _, a := range albums {
		list, err := s.db.Photos.List(ctx, a.ID)
		if err != nil {
			s.internalError(w, r, err, "failed to list photos")
			return
		}
		photos[a.ID] = list
	}

	data := s.newPage(r, service.Title, "servicos")
	data.MetaDescription = service.Description
	data.Service = service
	data.Category = service.Category
	data.Albums = withPhotos(albums, photos)
	s.renderTemplate(w, http.StatusOK, "service.html", data)
}

func (s *Server) HandleQuote(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Solicitar Orçamento", "orcamento")
	data.Services = models.Services()
	s.renderTemplate(w, http.StatusOK, "orcamento.html", data)
}

// Login

func (s *Server) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authService.SessionIdentity(r); ok {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	s.renderTemplate(w, http.StatusOK, "login.html", s.newPage(r, "Login", "login"))
}

func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	token, err := s.authService.Login(r.Context(), email, password)
	s.metrics.ObserveLogin("web", err == nil)
	if err == nil {
		if err := s.authService.StartSession(w, r, token); err != nil {
			s.internalError(w, r, err, "failed to save session")
			return
		}
		logging.Ctx(r.Context()).Info().Str("email", email).Msg("admin logged in")
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}

	data := s.newPage(r, "Login", "login")
	data.Email = email
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		data.Error = "Email ou senha incorretos"
	case errors.Is(err, models.ErrMisconfigured):
		logging.Ctx(r.Context()).Error().Msg("login attempted but ADMIN_EMAIL/ADMIN_PASSWORD are not set")
		data.Error = "Credenciais de administrador não configuradas"
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("login failed")
		data.Error = "Erro ao realizar login"
	}
	s.renderTemplate(w, http.StatusOK, "login.html", data)
}

func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.authService.EndSession(w, r); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to clear session")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Admin

func (s *Server) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albums, err := s.db.Albums.List(ctx)
	if err != nil {
		s.internalError(w, r, err, "failed to list albums")
		return
	}
	photos, err := s.db.Photos.List(ctx, "")
	if err != nil {
		s.internalError(w, r, err, "failed to list photos")
		return
	}
	byAlbum := make(map[string][]models.Photo)
	for _, p := range photos {
		byAlbum[p.AlbumID] = append(byAlbum[p.AlbumID], p)
	}

	data := s.newPage(r, "Painel Administrativo", "admin")
	data.Email = auth.IdentityFromContext(ctx)
	data.Albums = withPhotos(albums, byAlbum)
	s.renderTemplate(w, http.StatusOK, "admin.html", data)
}

func albumForm(r *http.Request) models.AlbumInput {
	return models.AlbumInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Category:    r.FormValue("category"),
	}
}

// Every admin mutation redirects back to the panel; failures are logged.

func (s *Server) HandleAlbumCreate(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())
	in := albumForm(r)
	if err := validation.Struct(&in); err != nil {
		log.Warn().Err(err).Msg("invalid album form")
	} else if album, err := s.db.Albums.Create(r.Context(), in); err != nil {
		log.Error().Err(err).Msg("failed to create album")
	} else {
		log.Info().Str("album_id", album.ID).Msg("album created")
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) HandleAlbumEdit(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())
	id := chi.URLParam(r, "id")
	in := albumForm(r)
	if err := validation.Struct(&in); err != nil {
		log.Warn().Err(err).Str("album_id", id).Msg("invalid album form")
	} else if _, err := s.db.Albums.Update(r.Context(), id, in); err != nil {
		log.Error().Err(err).Str("album_id", id).Msg("failed to update album")
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) HandleAlbumDelete(w http.ResponseWriter, r *http.Request) {
	log := logging.Ctx(r.Context())
	id := chi.URLParam(r, "id")
	if removed, err := s.db.Albums.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("album_id", id).Msg("failed to delete album")
	} else {
		log.Info().Str("album_id", id).Int64("photos_removed", removed).Msg("album deleted")
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (s *Server) HandlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	defer http.Redirect(w, r, "/admin", http.StatusFound)
	log := logging.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadRequestBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		log.Warn().Err(err).Msg("failed to parse upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("upload form without file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxUploadBytes+1))
	if err != nil {
		log.Error().Err(err).Msg("failed to read upload")
		return
	}
	up := models.PhotoUpload{
		AlbumID:     r.FormValue("album_id"),
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		MimeType:    header.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := validation.Struct(&up); err != nil {
		log.Warn().Err(err).Msg("invalid upload form")
		return
	}
	photo, err := s.db.Photos.Upload(r.Context(), up, storage.FormUploadPolicy)
	if err != nil {
		log.Warn().Err(err).Str("album_id", up.AlbumID).Msg("photo upload rejected")
		return
	}
	s.metrics.ObserveUpload(len(data))
	log.Info().Str("photo_id", photo.ID).Str("album_id", photo.AlbumID).Int("bytes", len(data)).Msg("photo uploaded")
}

func (s *Server) HandlePhotoDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.db.Photos.Delete(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("photo_id", id).Msg("failed to delete photo")
	}
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// Helper functions

func (s *Server) renderTemplate(w http.ResponseWriter, status int, name string, data PageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		logging.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf strings.Builder
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		logging.Error().Err(err).Str("template", name).Msg("template execution error")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, buf.String())
}

func (s *Server) renderNotFound(w http.ResponseWriter, message string) {
	s.renderTemplate(w, http.StatusNotFound, "notfound.html", PageData{
		Title:      message,
		Message:    message,
		Categories: models.Categories,
	})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
}

// pathParam returns a decoded path parameter. chi matches on the raw path
// when the request carries escaped characters.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// imageURL lets stored data URIs through html/template's URL filter. Only
// image data URIs are trusted.
func imageURL(data string) template.URL {
	if strings.HasPrefix(data, "data:image/") {
		return template.URL(data)
	}
	return ""
}

func withPhotos(albums []models.Album, photos map[string][]models.Photo) []AlbumView {
	out := make([]AlbumView, len(albums))
	for i, a := range albums {
		out[i] = AlbumView{Album: a, Photos: photos[a.ID]}
	}
	return out
}

func photoViews(photos []models.Photo, albums []models.Album) []PhotoView {
	byID := make(map[string]models.Album, len(albums))
	for _, a := range albums {
		byID[a.ID] = a
	}
	out := make([]PhotoView, len(photos))
	for i, p := range photos {
		a := byID[p.AlbumID]
		out[i] = PhotoView{Photo: p, AlbumName: a.Name, Category: a.Category}
	}
	return out
}
