package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"slices"
	"strings"

	"github.com/google/uuid"

	"oriani/internal/models"
)

// MaxUploadBytes is the largest accepted image payload. The limit is
// inclusive.
const MaxUploadBytes = 5 << 20

// UploadPolicy controls which payloads PhotoStore.Upload accepts.
type UploadPolicy struct {
	// AllowedTypes lists accepted MIME types. Empty accepts any type.
	AllowedTypes []string
	// DefaultType is used when the client declared no MIME type.
	DefaultType string
	MaxBytes    int
}

var (
	// APIUploadPolicy is applied to the JSON API upload endpoint.
	APIUploadPolicy = UploadPolicy{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxBytes:     MaxUploadBytes,
	}
	// FormUploadPolicy is applied to the admin panel upload form.
	FormUploadPolicy = UploadPolicy{
		DefaultType: "image/jpeg",
		MaxBytes:    MaxUploadBytes,
	}
)

// Check validates a declared MIME type and payload size and returns the
// MIME type to record.
func (p UploadPolicy) Check(mimeType string, size int) (string, error) {
	mt := mediaType(mimeType)
	if mt == "" {
		mt = p.DefaultType
	}
	if len(p.AllowedTypes) > 0 && !slices.Contains(p.AllowedTypes, mt) {
		return "", fmt.Errorf("%w: %q, allowed: %s", models.ErrUnsupportedMediaType,
			mimeType, strings.Join(p.AllowedTypes, ", "))
	}
	if mt == "" {
		return "", fmt.Errorf("%w: missing content type", models.ErrUnsupportedMediaType)
	}
	if p.MaxBytes > 0 && size > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", models.ErrPayloadTooLarge, size, p.MaxBytes)
	}
	return mt, nil
}

func mediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mt, _, _ = strings.Cut(declared, ";")
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

// EncodeDataURI renders an image payload as data:<mime>;base64,<payload>.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

type PhotoStore struct {
	coll   Collection
	albums *AlbumStore
}

// List returns photos in insertion order, optionally only those of one
// album.
func (s *PhotoStore) List(ctx context.Context, albumID string) ([]models.Photo, error) {
	var filter Filter
	if albumID != "" {
		filter = Filter{"album_id": albumID}
	}
	docs, err := s.coll.Find(ctx, filter, maxFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return decodeAll[models.Photo](docs)
}

func (s *PhotoStore) Get(ctx context.Context, id string) (*models.Photo, error) {
	doc, err := s.coll.FindOne(ctx, byID(id))
	if err != nil {
		return nil, fmt.Errorf("photo %s: %w", id, err)
	}
	return decodeOne[models.Photo](doc)
}

// Upload stores a new photo in an existing album.
func (s *PhotoStore) Upload(ctx context.Context, up models.PhotoUpload, policy UploadPolicy) (*models.Photo, error) {
	if err := s.albums.exists(ctx, up.AlbumID); err != nil {
		return nil, fmt.Errorf("album %s: %w", up.AlbumID, err)
	}
	mimeType, err := policy.Check(up.MimeType, len(up.Data))
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		ID:          uuid.NewString(),
		AlbumID:     up.AlbumID,
		Title:       up.Title,
		Description: up.Description,
		ImageData:   EncodeDataURI(mimeType, up.Data),
		CreatedAt:   now(),
	}
	if err := s.coll.InsertOne(ctx, photo.ID, photo); err != nil {
		return nil, fmt.Errorf("failed to create photo: %w", err)
	}
	return photo, nil
}

// Update changes title and description only. The image is immutable.
func (s *PhotoStore) Update(ctx context.Context, id, title, description string) (*models.Photo, error) {
	matched, err := s.coll.UpdateOne(ctx, byID(id), map[string]any{
		"title":       title,
		"description": description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("photo %s: %w", id, models.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	n, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("photo %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *PhotoStore) deleteByAlbum(ctx context.Context, albumID string) (int64, error) {
	return s.coll.DeleteMany(ctx, Filter{"album_id": albumID})
}
