package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/source"
	"github.com/nhle/pulse/internal/source/mongodb"
	"github.com/nhle/pulse/internal/source/rest"
	"github.com/nhle/pulse/internal/source/sqldb"
	"github.com/nhle/pulse/internal/store"
)

// Backend is an opened record backend.
type Backend struct {
	Lister    source.Lister
	Identity  source.Identity
	Validator source.Validator
	closer    io.Closer
}

// Close releases the backend connection, if any.
func (b *Backend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// OpenBackend connects to the record backend named by cfg.Kind. A
// configured display name overrides the backend identity.
func OpenBackend(ctx context.Context, cfg model.BackendConfig, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var b *Backend
	switch cfg.Kind {
	case model.BackendREST:
		client := rest.NewClient(cfg.BaseURL, cfg.Token,
			rest.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		)
		a := rest.NewAdapter(client, cfg.PageSize)
		b = &Backend{Lister: a, Identity: a, Validator: a}

	case model.BackendMongo:
		a, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		b = &Backend{Lister: a, Validator: a, closer: a}

	case model.BackendMySQL:
		a, err := sqldb.Connect(ctx, "mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		b = &Backend{Lister: a, Validator: a, closer: a}

	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}

	if cfg.DisplayName != "" || b.Identity == nil {
		b.Identity = source.StaticIdentity(cfg.DisplayName)
	}

	logger.Info("record backend opened", zap.String("kind", cfg.Kind))
	return b, nil
}

// OpenStore opens check-in storage. The event log always lives in SQLite;
// the key-value state goes to Redis when configured.
func OpenStore(ctx context.Context, cfg model.StateConfig, logger *zap.Logger) (store.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlite, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "", model.StateSQLite:
		logger.Info("state store opened", zap.String("backend", model.StateSQLite), zap.String("path", cfg.DBPath))
		return sqlite, nil

	case model.StateRedis:
		kv, err := store.NewRedisKV(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			sqlite.Close()
			return nil, err
		}
		logger.Info("state store opened",
			zap.String("backend", model.StateRedis),
			zap.String("addr", cfg.RedisAddr),
			zap.String("events", cfg.DBPath),
		)
		return store.NewComposite(kv, sqlite, kv, sqlite), nil

	default:
		sqlite.Close()
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
