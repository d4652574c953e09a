// Package sqldb reads portal collections from a SQL mirror where each
// collection is a table of the same name.
package sqldb

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
)

// Adapter lists whole tables as documents.
type Adapter struct {
	db *sqlx.DB
}

var (
	_ source.Lister    = (*Adapter)(nil)
	_ source.Validator = (*Adapter)(nil)
)

// Connect opens a database with driverName ("mysql" in production) and
// verifies the connection.
func Connect(ctx context.Context, driverName, dsn string) (*Adapter, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Adapter{db: db}, nil
}

// NewAdapter wraps an open database.
func NewAdapter(db *sqlx.DB) *Adapter {
	return &Adapter{db: db}
}

// ValidateConnection pings the database.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	if err := a.db.PingContext(ctx); err != nil {
		return "", fmt.Errorf("validating %s connection: %w", a.db.DriverName(), err)
	}
	return fmt.Sprintf("connected (%s)", a.db.DriverName()), nil
}

// ListAll returns every row of the table named after collection. Only
// known collection names are ever interpolated into the query.
func (a *Adapter) ListAll(
	ctx context.Context,
	collection model.Collection,
) ([]model.Document, error) {
	if !source.KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownCollection, collection)
	}

	rows, err := a.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM `%s`", collection))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		docs = append(docs, toDocument(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}
	return docs, nil
}

// Close closes the database.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// toDocument converts driver values: text arrives as []byte from MySQL and
// NULL columns are dropped so they decode as absent.
func toDocument(row map[string]any) model.Document {
	doc := make(model.Document, len(row))
	for k, v := range row {
		switch x := v.(type) {
		case nil:
			continue
		case []byte:
			doc[k] = string(x)
		default:
			doc[k] = x
		}
	}
	if id, ok := doc["id"]; ok {
		doc["id"] = fmt.Sprint(id)
	}
	return doc
}
