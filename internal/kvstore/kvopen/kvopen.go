// Package kvopen opens the key/value backend named in the configuration.
package kvopen

import (
	"fmt"

	"github.com/induohouse/induoweb/internal/config"
	"github.com/induohouse/induoweb/internal/db"
	"github.com/induohouse/induoweb/internal/kvstore"
	"github.com/induohouse/induoweb/internal/kvstore/local"
	"github.com/induohouse/induoweb/internal/kvstore/memory"
	"github.com/induohouse/induoweb/internal/kvstore/redis"
	"github.com/induohouse/induoweb/internal/kvstore/sqlite"
)

// Open returns the store selected by cfg.FavoritesBackend and a func that
// releases it. Test mode always uses memory.
func Open(cfg *config.Config) (kvstore.Store, func() error, error) {
	name := cfg.FavoritesBackend
	if cfg.TestMode {
		name = "memory"
	}
	noop := func() error { return nil }

	switch name {
	case "memory":
		return memory.New(), noop, nil
	case "local":
		s, err := local.NewFileStore(cfg.FavoritesDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open favorites directory: %w", err)
		}
		return s, noop, nil
	case "sqlite":
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewKVStore(database), database.Close, nil
	case "redis":
		s, err := redis.NewStore(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown favorites backend %q", name)
	}
}
