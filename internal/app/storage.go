// Package app assembles repositories and services for the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexdesk/case-service/internal/config"
	"github.com/lexdesk/case-service/internal/persistence"
	"github.com/lexdesk/case-service/internal/repository"
	"github.com/lexdesk/case-service/internal/repository/inmem"
	"github.com/lexdesk/case-service/internal/service"
)

// Storage groups the repositories one process works against.
type Storage struct {
	Staff    repository.StaffRepository
	Cases    repository.CaseRepository
	History  repository.CaseHistoryRepository
	Students repository.StudentRepository

	pg *persistence.Postgres
}

// OpenStorage connects to Postgres and applies migrations when configured.
// Without a DSN the repositories are process-local maps.
func OpenStorage(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Storage, error) {
	pg, err := persistence.NewPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	pool := pg.PoolHandle()
	if pool == nil {
		return InMemoryStorage(), nil
	}
	if cfg.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &Storage{
		Staff:    repository.NewStaffRepository(pool),
		Cases:    repository.NewCaseRepository(pool),
		History:  repository.NewCaseHistoryRepository(pool),
		Students: repository.NewStudentRepository(pool),
		pg:       pg,
	}, nil
}

// InMemoryStorage returns map-backed repositories.
func InMemoryStorage() *Storage {
	store := inmem.NewStore()
	return &Storage{
		Staff:    store.Staff(),
		Cases:    store.Cases(),
		History:  store.History(),
		Students: store.Students(),
	}
}

// Postgres returns the connection pool wrapper, or nil for in-memory storage.
func (s *Storage) Postgres() *persistence.Postgres {
	return s.pg
}

// Close releases the connection pool.
func (s *Storage) Close() {
	s.pg.Close()
}

// OpenScanState picks the Redis-backed scan state when Redis is configured
// and reachable, else a process-local one. The returned close func is never nil.
func OpenScanState(ctx context.Context, cfg config.Config, logger *zap.Logger) (service.ScanState, *persistence.Redis, func()) {
	r := persistence.NewRedis(ctx, cfg.Redis, logger)
	if r == nil {
		return persistence.NewMemoryScanState(), nil, func() {}
	}
	return persistence.NewRedisScanState(r, cfg.App.Name), r, r.Close
}
