package catalog

import (
	"context"
	"fmt"

	"animesync/internal/config"
)

// Store is the catalog persistence contract.
type Store interface {
	// List returns every record ordered by key. The slice is a snapshot.
	List(ctx context.Context) ([]Record, error)
	// Get returns nil when key is unknown.
	Get(ctx context.Context, key string) (*Record, error)
	// Add inserts a record with the given titles and returns it with its key.
	Add(ctx context.Context, titles ...string) (Record, error)
	// ApplyDetail overwrites the reconciled fields of the record at key.
	ApplyDetail(ctx context.Context, key string, detail Detail) error
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected in cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open catalog: config is nil")
	}
	switch cfg.Store.Backend {
	case config.BackendSQLite, "":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(ctx, cfg.SQLitePath())
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.Store.DSN)
	case config.BackendMongo:
		return OpenMongo(ctx, cfg.Store.DSN, cfg.Store.Database, cfg.Store.Collection)
	default:
		return nil, fmt.Errorf("open catalog: unsupported backend %q", cfg.Store.Backend)
	}
}
