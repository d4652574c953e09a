// Package mongodb reads portal collections directly from MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
)

// Adapter lists whole collections from one database.
type Adapter struct {
	client *mongo.Client
	db     *mongo.Database
}

var (
	_ source.Lister    = (*Adapter)(nil)
	_ source.Validator = (*Adapter)(nil)
)

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri, database string) (*Adapter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return NewAdapter(client, database), nil
}

// NewAdapter wraps an existing client.
func NewAdapter(client *mongo.Client, database string) *Adapter {
	return &Adapter{client: client, db: client.Database(database)}
}

// ValidateConnection pings the server.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	if err := a.client.Ping(ctx, readpref.Primary()); err != nil {
		return "", fmt.Errorf("validating mongo connection: %w", err)
	}
	return fmt.Sprintf("connected to database %s", a.db.Name()), nil
}

// ListAll returns every document of collection.
func (a *Adapter) ListAll(
	ctx context.Context,
	collection model.Collection,
) ([]model.Document, error) {
	if !source.KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownCollection, collection)
	}

	cursor, err := a.db.Collection(string(collection)).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", collection, err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	docs := make([]model.Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, ToDocument(m))
	}
	return docs, nil
}

// Close disconnects the client.
func (a *Adapter) Close() error {
	return a.client.Disconnect(context.Background())
}

// ToDocument converts a BSON document to a plain document. "_id" becomes
// "id", ObjectIDs become hex strings and BSON dates become time.Time.
func ToDocument(m bson.M) model.Document {
	doc := make(model.Document, len(m))
	for k, v := range m {
		if k == "_id" {
			k = "id"
		}
		doc[k] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(x.T), 0).UTC()
	case primitive.Decimal128:
		return x.String()
	case int32:
		return int64(x)
	case bson.M:
		return map[string]any(ToDocument(x))
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	}
	return v
}
