package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/badgerstore"
	"github.com/Makepad-fr/tada/internal/store/boltstore"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
)

// OpenStore opens the backend named by cfg.Backend under cfg.DataDir.
func OpenStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return jsonstore.Open(cfg.DataDir)
	case config.BackendBolt:
		return boltstore.Open(filepath.Join(cfg.DataDir, "tada.bolt"))
	case config.BackendBadger:
		return badgerstore.Open(badgerstore.Config{
			Path:       filepath.Join(cfg.DataDir, "badger"),
			SyncWrites: true,
			Logger:     log,
		})
	case config.BackendMemory:
		return badgerstore.Open(badgerstore.Config{InMemory: true, Logger: log})
	case config.BackendSQLite:
		return sqlitestore.Open(filepath.Join(cfg.DataDir, "tada.db"))
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
