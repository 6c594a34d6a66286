package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"oriani/internal/models"
)

// MongoBackend stores each collection in a MongoDB collection of the same
// name. Documents carry their own "id" field; "_id" is projected out.
type MongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoBackend(ctx context.Context, uri, dbName string) (*MongoBackend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &MongoBackend{client: client, db: client.Database(dbName)}, nil
}

func (b *MongoBackend) Collection(name string) Collection {
	return &mongoCollection{coll: b.db.Collection(name)}
}

func (b *MongoBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

var withoutObjectID = bson.D{{Key: "_id", Value: 0}}

type mongoCollection struct {
	coll *mongo.Collection
}

func toBSON(f Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		m[k] = v
	}
	return m
}

func (c *mongoCollection) InsertOne(ctx context.Context, _ string, doc any) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	res := c.coll.FindOne(ctx, toBSON(filter), options.FindOne().SetProjection(withoutObjectID))
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query %s: %w", c.coll.Name(), err)
	}
	return res, nil
}

func (c *mongoCollection) Find(ctx context.Context, filter Filter, limit int) ([]Document, error) {
	opts := options.Find().SetProjection(withoutObjectID)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := c.coll.Find(ctx, toBSON(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.coll.Name(), err)
	}
	var raws []bson.Raw
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.coll.Name(), err)
	}
	docs := make([]Document, len(raws))
	for i, raw := range raws {
		docs[i] = rawDocument(raw)
	}
	return docs, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter Filter, set map[string]any) (bool, error) {
	res, err := c.coll.UpdateOne(ctx, toBSON(filter), bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", c.coll.Name(), err)
	}
	return res.MatchedCount > 0, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

type rawDocument bson.Raw

func (d rawDocument) Decode(v any) error {
	return bson.Unmarshal(d, v)
}
