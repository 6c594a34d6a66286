package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"
)

// DB groups the typed stores over one backend. It is safe for concurrent
// use; updates are last-write-wins.
type DB struct {
	backend Backend

	Users  *UserStore
	Albums *AlbumStore
	Photos *PhotoStore
}

func NewDB(backend Backend) *DB {
	photos := &PhotoStore{coll: backend.Collection(photosCollection)}
	albums := &AlbumStore{coll: backend.Collection(albumsCollection), photos: photos}
	photos.albums = albums
	return &DB{
		backend: backend,
		Users:   &UserStore{coll: backend.Collection(usersCollection)},
		Albums:  albums,
		Photos:  photos,
	}
}

// Connect opens the backend for url and wraps it.
func Connect(ctx context.Context, url, dbName string) (*DB, error) {
	backend, err := Open(ctx, url, dbName)
	if err != nil {
		return nil, err
	}
	return NewDB(backend), nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.backend.Ping(ctx)
}

func (db *DB) Close(ctx context.Context) error {
	return db.backend.Close(ctx)
}

// now returns the current time at the precision the backends persist.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func byID(id string) Filter {
	return Filter{"id": id}
}

func decodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeOne[T any](doc Document) (*T, error) {
	var v T
	if err := doc.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &v, nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
