package storage

import (
	"context"
	"fmt"
	"strings"
)

// Collection names shared by every backend.
const (
	usersCollection  = "users"
	albumsCollection = "albums"
	photosCollection = "photos"
)

// maxFetch caps list queries. Pagination is not supported.
const maxFetch = 1000

// Filter selects documents whose fields equal the given string values.
// An empty filter matches every document.
type Filter map[string]string

// Document is a stored record that can be decoded into a model.
type Document interface {
	Decode(v any) error
}

// Collection is a set of documents addressed by their string "id" field.
// The backend's native key is never exposed.
type Collection interface {
	InsertOne(ctx context.Context, id string, doc any) error
	// FindOne returns models.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, filter Filter) (Document, error)
	// Find returns at most limit documents in insertion order.
	Find(ctx context.Context, filter Filter, limit int) ([]Document, error)
	// UpdateOne sets the given fields on the first match and reports
	// whether a document matched.
	UpdateOne(ctx context.Context, filter Filter, set map[string]any) (bool, error)
	DeleteOne(ctx context.Context, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
}

// Backend is a document database.
type Backend interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects to the backend selected by the URL scheme:
//
//	mongodb://host:27017          MongoDB
//	mongodb+srv://cluster.example MongoDB
//	sqlite://oriani.db            SQLite file
//	sqlite://:memory:             SQLite in memory
func Open(ctx context.Context, url, dbName string) (Backend, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return NewMongoBackend(ctx, url, dbName)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteBackend(strings.TrimPrefix(url, "sqlite://"), dbName)
	default:
		return nil, fmt.Errorf("unsupported store url %q", redact(url))
	}
}

// redact hides credentials embedded in a connection string.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return url
}
