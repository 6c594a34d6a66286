package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"oriani/internal/auth"
	"oriani/internal/config"
	"oriani/internal/models"
	"oriani/internal/storage"
)

const (
	adminEmail    = "admin@oriani.com.br"
	adminPassword = "s3cret"
)

type testEnv struct {
	handler http.Handler
	db      *storage.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	backend, err := storage.NewSQLiteBackend(":memory:", "api_test")
	if err != nil {
		t.Fatalf("failed to open sqlite backend: %v", err)
	}
	db := storage.NewDB(backend)
	t.Cleanup(func() { db.Close(context.Background()) })

	authService, err := auth.NewAuthService(db.Users, config.SecurityConfig{
		JWTSecret:          "test-secret",
		JWTAlgorithm:       "HS256",
		TokenExpireMinutes: 60,
		AdminEmail:         adminEmail,
		AdminPassword:      adminPassword,
	})
	if err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	r.Mount("/api", NewServer(db, authService, nil).Routes(Options{CORSOrigins: []string{"*"}}))
	return &testEnv{handler: r, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		if raw, err = json.Marshal(body); err != nil {
			t.Fatal(err)
		}
	}
	return e.do(t, method, path, token, raw, "application/json")
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: adminEmail, Password: adminPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	var tok models.Token
	decode(t, rec, &tok)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Fatalf("login response = %+v", tok)
	}
	return tok.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) createAlbum(t *testing.T, token string) models.Album {
	t.Helper()
	rec := e.doJSON(t, http.MethodPost, "/api/albums", token, models.AlbumInput{Name: "A", Description: "d", Category: "Elétrica"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var album models.Album
	decode(t, rec, &album)
	return album
}

type filePart struct {
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="photo"`)
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(file.data)
	}
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func TestRootAndCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/", "", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Oriani Multissoluções API") {
		t.Errorf("GET /api/ = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/categories", "", nil, "")
	var body struct {
		Categories []string `json:"categories"`
	}
	decode(t, rec, &body)
	if len(body.Categories) != len(models.Categories) {
		t.Errorf("categories = %v", body.Categories)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: adminEmail, Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Error("missing Bearer challenge")
	}
	if !strings.Contains(rec.Body.String(), "Incorrect email or password") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if _, err := env.db.Users.GetByEmail(context.Background(), adminEmail); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("failed login stored a user: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", []byte("{"), "application/json")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed body status = %d, want 422", rec.Code)
	}
}

func TestAlbumLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	album := env.createAlbum(t, token)
	if album.ID == "" {
		t.Fatal("created album has no id")
	}

	rec := env.do(t, http.MethodGet, "/api/albums/"+album.ID, "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET album status = %d", rec.Code)
	}

	rec = env.doJSON(t, http.MethodPut, "/api/albums/"+album.ID, token, models.AlbumInput{Name: "B", Category: "Pintura"})
	var updated models.Album
	decode(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Name != "B" || updated.ID != album.ID {
		t.Fatalf("PUT album = %d %+v", rec.Code, updated)
	}

	rec = env.do(t, http.MethodGet, "/api/albums", "", nil, "")
	var list []models.Album
	decode(t, rec, &list)
	if len(list) != 1 {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(t, http.MethodDelete, "/api/albums/"+album.ID, token, nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Album deleted successfully") {
		t.Fatalf("DELETE album = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/albums/"+album.ID, "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted album status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"detail":"Album not found"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestWritesRequireBearer(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/albums"},
		{http.MethodPut, "/api/albums/x"},
		{http.MethodDelete, "/api/albums/x"},
		{http.MethodPost, "/api/photos/upload"},
		{http.MethodPut, "/api/photos/x"},
		{http.MethodDelete, "/api/photos/x"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, "", nil, "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing Bearer challenge")
			}
		})
	}
}

func TestAlbumValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.doJSON(t, http.MethodPost, "/api/albums", token, models.AlbumInput{Name: "A", Category: "Jardinagem"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorResponse
	decode(t, rec, &body)
	if len(body.Errors) != 1 || body.Errors[0].Field != "category" {
		t.Errorf("errors = %+v", body.Errors)
	}

	rec = env.doJSON(t, http.MethodPut, "/api/albums/missing", token, models.AlbumInput{Name: "A", Category: "Pintura"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("PUT missing album status = %d, want 404", rec.Code)
	}
}

func TestUploadPhoto(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	album := env.createAlbum(t, token)

	tests := []struct {
		name       string
		albumID    string
		title      string
		file       *filePart
		wantStatus int
	}{
		{"png accepted", album.ID, "t", &filePart{"image/png", []byte("png")}, http.StatusOK},
		{"exactly 5 MiB accepted", album.ID, "t", &filePart{"image/jpeg", bytes.Repeat([]byte{1}, storage.MaxUploadBytes)}, http.StatusOK},
		{"one byte over rejected", album.ID, "t", &filePart{"image/jpeg", bytes.Repeat([]byte{1}, storage.MaxUploadBytes+1)}, http.StatusBadRequest},
		{"far over rejected", album.ID, "t", &filePart{"image/jpeg", bytes.Repeat([]byte{1}, 7<<20)}, http.StatusBadRequest},
		{"gif rejected", album.ID, "t", &filePart{"image/gif", []byte("gif")}, http.StatusBadRequest},
		{"unknown album", "missing", "t", &filePart{"image/png", []byte("png")}, http.StatusNotFound},
		{"missing title", album.ID, "", &filePart{"image/png", []byte("png")}, http.StatusUnprocessableEntity},
		{"missing file", album.ID, "t", nil, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, map[string]string{
				"album_id":    tt.albumID,
				"title":       tt.title,
				"description": "desc",
			}, tt.file)
			rec := env.do(t, http.MethodPost, "/api/photos/upload", token, body, ct)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %.200s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/photos?album_id="+url.QueryEscape(album.ID), "", nil, "")
	var photos []models.Photo
	decode(t, rec, &photos)
	if len(photos) != 2 {
		t.Fatalf("album has %d photos, want 2", len(photos))
	}
	if !strings.HasPrefix(photos[0].ImageData, "data:image/png;base64,") {
		t.Errorf("ImageData = %.40s", photos[0].ImageData)
	}
}

func TestPhotoUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	album := env.createAlbum(t, token)

	body, ct := multipartBody(t, map[string]string{"album_id": album.ID, "title": "old"}, &filePart{"image/webp", []byte("webp")})
	rec := env.do(t, http.MethodPost, "/api/photos/upload", token, body, ct)
	var photo models.Photo
	decode(t, rec, &photo)

	form := url.Values{"title": {"new"}, "description": {"described"}}
	rec = env.do(t, http.MethodPut, "/api/photos/"+photo.ID, token, []byte(form.Encode()), "application/x-www-form-urlencoded")
	var updated models.Photo
	decode(t, rec, &updated)
	if rec.Code != http.StatusOK || updated.Title != "new" || updated.ImageData != photo.ImageData {
		t.Fatalf("PUT photo = %d %+v", rec.Code, updated)
	}

	rec = env.do(t, http.MethodPut, "/api/photos/"+photo.ID, token, []byte("description=x"), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("PUT without title status = %d, want 422", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/photos/"+photo.ID, token, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE photo status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/photos/"+photo.ID, "", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted photo status = %d, want 404", rec.Code)
	}
}

func TestPhotoUpdateLimits(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	album := env.createAlbum(t, token)

	body, ct := multipartBody(t, map[string]string{"album_id": album.ID, "title": "kept"}, &filePart{"image/png", []byte("png")})
	var photo models.Photo
	decode(t, env.do(t, http.MethodPost, "/api/photos/upload", token, body, ct), &photo)

	form := func(title, description string) []byte {
		return []byte(url.Values{"title": {title}, "description": {description}}.Encode())
	}
	const urlencoded = "application/x-www-form-urlencoded"
	multipartUpdate, multipartType := multipartBody(t, map[string]string{"title": "via multipart"}, nil)

	tests := []struct {
		name        string
		body        []byte
		contentType string
		wantStatus  int
	}{
		{"title too long", form(strings.Repeat("a", 201), ""), urlencoded, http.StatusUnprocessableEntity},
		{"description too long", form("ok", strings.Repeat("d", 5001)), urlencoded, http.StatusUnprocessableEntity},
		{"body over limit", form("ok", strings.Repeat("d", 2<<20)), urlencoded, http.StatusRequestEntityTooLarge},
		{"limits inclusive", form(strings.Repeat("a", 200), strings.Repeat("d", 5000)), urlencoded, http.StatusOK},
		{"multipart form", multipartUpdate, multipartType, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/photos/"+photo.ID, token, tt.body, tt.contentType)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	got, err := env.db.Photos.Get(context.Background(), photo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "via multipart" {
		t.Errorf("title = %q, want the last accepted update", got.Title)
	}
}

func TestDeleteAlbumCascadesThroughAPI(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	album := env.createAlbum(t, token)

	for i := 0; i < 3; i++ {
		body, ct := multipartBody(t, map[string]string{"album_id": album.ID, "title": fmt.Sprint("p", i)}, &filePart{"image/png", []byte("x")})
		if rec := env.do(t, http.MethodPost, "/api/photos/upload", token, body, ct); rec.Code != http.StatusOK {
			t.Fatalf("upload status = %d", rec.Code)
		}
	}

	env.do(t, http.MethodDelete, "/api/albums/"+album.ID, token, nil, "")

	rec := env.do(t, http.MethodGet, "/api/photos?album_id="+album.ID, "", nil, "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("photos after cascade = %s", rec.Body.String())
	}
}
