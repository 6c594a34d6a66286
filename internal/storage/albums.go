package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"oriani/internal/models"
)

type AlbumStore struct {
	coll   Collection
	photos *PhotoStore
}

// List returns albums in insertion order, capped at maxFetch.
func (s *AlbumStore) List(ctx context.Context) ([]models.Album, error) {
	docs, err := s.coll.Find(ctx, nil, maxFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return decodeAll[models.Album](docs)
}

// ListByCategory returns the albums of one category.
func (s *AlbumStore) ListByCategory(ctx context.Context, category string) ([]models.Album, error) {
	docs, err := s.coll.Find(ctx, Filter{"category": category}, maxFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return decodeAll[models.Album](docs)
}

func (s *AlbumStore) Get(ctx context.Context, id string) (*models.Album, error) {
	doc, err := s.coll.FindOne(ctx, byID(id))
	if err != nil {
		return nil, fmt.Errorf("album %s: %w", id, err)
	}
	return decodeOne[models.Album](doc)
}

func (s *AlbumStore) Create(ctx context.Context, in models.AlbumInput) (*models.Album, error) {
	album := &models.Album{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		CreatedAt:   now(),
	}
	if err := s.coll.InsertOne(ctx, album.ID, album); err != nil {
		return nil, fmt.Errorf("failed to create album: %w", err)
	}
	return album, nil
}

// Update overwrites the editable fields. The id and creation time are kept.
func (s *AlbumStore) Update(ctx context.Context, id string, in models.AlbumInput) (*models.Album, error) {
	matched, err := s.coll.UpdateOne(ctx, byID(id), map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"category":    in.Category,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update album: %w", err)
	}
	if !matched {
		return nil, fmt.Errorf("album %s: %w", id, models.ErrNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes the album and then every photo that references it,
// returning the number of photos removed. The two steps are not atomic.
func (s *AlbumStore) Delete(ctx context.Context, id string) (int64, error) {
	n, err := s.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete album: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("album %s: %w", id, models.ErrNotFound)
	}
	removed, err := s.photos.deleteByAlbum(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("album %s deleted but its photos were not: %w", id, err)
	}
	return removed, nil
}

func (s *AlbumStore) exists(ctx context.Context, id string) error {
	_, err := s.coll.FindOne(ctx, byID(id))
	return err
}
