// Package store selects and opens the project store backend.
package store

import (
	"context"
	"fmt"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/store/boltdb"
	"github.com/wonny/quantum/internal/store/memory"
	"github.com/wonny/quantum/internal/store/postgres"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/database"
	"github.com/wonny/quantum/pkg/logger"
)

// MemoryPath selects the in-process store
const MemoryPath = ":memory:"

// Backend names, used in logs
const (
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
	BackendMemory   = "memory"
)

// Backend returns the backend Open would choose for cfg
// DATABASE_URL wins, then DB_PATH (":memory:" or a bbolt file).
func Backend(cfg *config.Config) string {
	switch {
	case cfg.Database.URL != "":
		return BackendPostgres
	case cfg.DBPath == MemoryPath:
		return BackendMemory
	default:
		return BackendBolt
	}
}

// Open opens the configured store
// ⭐ SSOT: the only place a Store backend is chosen
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.Store, error) {
	backend := Backend(cfg)

	var (
		s   contracts.Store
		err error
	)
	switch backend {
	case BackendPostgres:
		var db *database.DB
		db, err = database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrStore, err)
		}
		s, err = postgres.New(ctx, db)
		if err != nil {
			db.Close()
		}
	case BackendMemory:
		s = memory.New()
	default:
		s, err = boltdb.Open(cfg.DBPath)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"backend": backend,
		"path":    cfg.DBPath,
	}).Info("Project store opened")
	return s, nil
}
