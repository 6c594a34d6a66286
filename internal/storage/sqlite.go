package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/v2/bson"

	"oriani/internal/models"
)

// SQLiteBackend keeps every collection in a single documents table. Bodies
// are relaxed extended JSON, so the bson tags used for MongoDB apply here
// too and filters can use json_extract.
type SQLiteBackend struct {
	conn   *sql.DB
	prefix string
}

func NewSQLiteBackend(path, dbName string) (*SQLiteBackend, error) {
	if path == "" {
		path = ":memory:"
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes
	// writers.
	conn.SetMaxOpenConns(1)

	b := &SQLiteBackend{conn: conn, prefix: dbName + "."}
	if err := b.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			body TEXT NOT NULL,
			UNIQUE (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	}
	for _, query := range queries {
		if _, err := b.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}
	return nil
}

func (b *SQLiteBackend) Collection(name string) Collection {
	return &sqliteCollection{conn: b.conn, name: b.prefix + name}
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.conn.PingContext(ctx)
}

func (b *SQLiteBackend) Close(context.Context) error {
	return b.conn.Close()
}

var fieldName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type sqliteCollection struct {
	conn *sql.DB
	name string
}

// where renders a filter as a SQL condition on the collection. Keys are
// sorted so the generated statement is stable.
func (c *sqliteCollection) where(filter Filter) (string, []any, error) {
	conds := []string{"collection = ?"}
	args := []any{c.name}
	for _, field := range sortedKeys(filter) {
		if !fieldName.MatchString(field) {
			return "", nil, fmt.Errorf("invalid filter field %q", field)
		}
		conds = append(conds, "json_extract(body, ?) = ?")
		args = append(args, "$."+field, filter[field])
	}
	return strings.Join(conds, " AND "), args, nil
}

func (c *sqliteCollection) InsertOne(ctx context.Context, id string, doc any) error {
	body, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		c.name, id, string(body))
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	docs, err := c.Find(ctx, filter, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, models.ErrNotFound
	}
	return docs[0], nil
}

func (c *sqliteCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	where, args, err := c.where(filter)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit)

	rows, err := c.conn.QueryContext(ctx,
		`SELECT body FROM documents WHERE `+where+` ORDER BY seq LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.name, err)
		}
		docs = append(docs, extJSONDocument(body))
	}
	return docs, rows.Err()
}

func (c *sqliteCollection) UpdateOne(ctx context.Context, filter Filter, set map[string]any) (bool, error) {
	where, args, err := c.where(filter)
	if err != nil {
		return false, err
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		seq  int64
		body string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT seq, body FROM documents WHERE `+where+` ORDER BY seq LIMIT 1`, args...).
		Scan(&seq, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", c.name, err)
	}

	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(body), false, &doc); err != nil {
		return false, fmt.Errorf("failed to decode document: %w", err)
	}
	for _, key := range sortedKeys(set) {
		doc = setField(doc, key, set[key])
	}
	updated, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return false, fmt.Errorf("failed to encode document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE documents SET body = ? WHERE seq = ?`, string(updated), seq); err != nil {
		return false, fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit update: %w", err)
	}
	return true, nil
}

func (c *sqliteCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := c.where(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.conn.ExecContext(ctx,
		`DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE `+where+` ORDER BY seq LIMIT 1)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	return res.RowsAffected()
}

func (c *sqliteCollection) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := c.where(filter)
	if err != nil {
		return 0, err
	}
	res, err := c.conn.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	return res.RowsAffected()
}

type extJSONDocument string

func (d extJSONDocument) Decode(v any) error {
	return bson.UnmarshalExtJSON([]byte(d), false, v)
}

func setField(doc bson.D, key string, value any) bson.D {
	for i := range doc {
		if doc[i].Key == key {
			doc[i].Value = value
			return doc
		}
	}
	return append(doc, bson.E{Key: key, Value: value})
}
