package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/config"
	"github.com/terraconstructs/nutria/cmd/nutriactl/internal/db/bunx"
	"github.com/terraconstructs/nutria/pkg/sdk"
)

// Backend is an opened session storage backend.
type Backend struct {
	sdk.KeyValue
	db *bun.DB
}

// Close releases the database connection of SQL backends.
func (b *Backend) Close() error {
	return bunx.Close(b.db)
}

// Open builds the KeyValue selected by cfg, wrapped in an EncryptedStore when cfg.Encrypt is set.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	backend := &Backend{}

	switch cfg.Backend {
	case config.BackendFile:
		fs, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		if path, err := fs.Path(sdk.SessionKey); err == nil {
			logger.Debug("session file", "path", path)
		}
		backend.KeyValue = fs
	case config.BackendSQLite, config.BackendPostgres:
		db, err := bunx.NewDB(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
		}
		store, err := NewSQLStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		backend.KeyValue = store
		backend.db = db
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.Encrypt {
		key, err := LoadOrGenerateKey(cfg.KeyPath, logger)
		if err != nil {
			backend.Close()
			return nil, err
		}
		sealed, err := NewEncryptedStore(backend.KeyValue, key)
		if err != nil {
			backend.Close()
			return nil, err
		}
		backend.KeyValue = sealed
	}

	logger.Debug("session store opened", "backend", cfg.Backend, "encrypted", cfg.Encrypt)
	return backend, nil
}
