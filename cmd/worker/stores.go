package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chas-career/career-hub/config"
	"github.com/chas-career/career-hub/internal/application/command"
	"github.com/chas-career/career-hub/internal/domain/lead"
	"github.com/chas-career/career-hub/internal/domain/placement"
	"github.com/chas-career/career-hub/internal/domain/progression"
	"github.com/chas-career/career-hub/internal/domain/schedule"
	"github.com/chas-career/career-hub/internal/domain/student"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/memory"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/postgres"
	"github.com/chas-career/career-hub/internal/infrastructure/persistence/redis"
	"github.com/chas-career/career-hub/internal/interface/http/handlers"
	"github.com/chas-career/career-hub/pkg/logger"
)

// stores holds the repositories the worker reads from and writes through.
type stores struct {
	progressions progression.Repository
	catalog      progression.CatalogReader
	schedules    schedule.Repository
	directory    student.Directory
	leads        lead.Repository
	placements   placement.Repository

	// pingers feed the readiness probe.
	pingers map[string]handlers.Pinger

	redisClient *goredis.Client
	closers     []func()
}

// Close releases connections in reverse order of opening.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// useMemory points every repository at the in-memory store.
func (s *stores) useMemory(mem *memory.Store) {
	s.progressions = mem.Progressions()
	s.catalog = mem.Catalog()
	s.schedules = mem.Schedules()
	s.directory = mem.Directory()
	s.leads = mem.Leads()
	s.placements = mem.Placements()
}

// repositories exposes the stores to the command handlers.
func (s *stores) repositories() command.Repositories {
	return command.Repositories{
		Progressions: s.progressions,
		Catalog:      s.catalog,
		Schedules:    s.schedules,
		Directory:    s.directory,
		Leads:        s.leads,
		Placements:   s.placements,
	}
}

// openStores selects Postgres or, in development without DATABASE_URL, the
// in-memory store, then layers the Redis cache over the reference data.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	st := &stores{pingers: make(map[string]handlers.Pinger)}

	if cfg.UseInMemoryStore() {
		log.Warn("DATABASE_URL not set, using in-memory store (data is lost on restart)")
		st.useMemory(memory.NewStore())
	} else {
		log.Info("connecting to database...")
		conn, err := postgres.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st.closers = append(st.closers, func() {
			log.Info("closing database connection...")
			conn.Close()
		})
		st.pingers["postgres"] = conn

		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn, log).Migrate(ctx); err != nil {
				st.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		st.progressions = postgres.NewProgressionRepository(conn)
		st.catalog = postgres.NewCatalogRepository(conn)
		st.schedules = postgres.NewScheduleRepository(conn)
		st.directory = postgres.NewDirectoryRepository(conn)
		st.leads = postgres.NewLeadRepository(conn)
		st.placements = postgres.NewPlacementRepository(conn)
	}

	if cfg.Redis.Disabled {
		return st, nil
	}

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		// The cache is optional; run without it.
		log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		return st, nil
	}
	st.redisClient = client
	st.closers = append(st.closers, func() { _ = client.Close() })

	cache := redis.NewCache(redis.NewBackend(client), log)
	st.pingers["redis"] = cache
	st.catalog = redis.NewCachedCatalog(st.catalog, cache, cfg.Redis.CatalogTTL)
	st.schedules = redis.NewCachedSchedules(st.schedules, cache, cfg.Redis.ScheduleTTL)
	log.Info("Redis cache enabled")

	return st, nil
}
