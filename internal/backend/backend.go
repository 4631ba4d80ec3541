// Package backend wires the storage the server runs on.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catering/internal/adapters"
	"catering/internal/amqp"
	"catering/internal/cache"
	"catering/internal/config"
	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/memory"
	"catering/internal/metrics"
	"catering/internal/ports"
	"catering/internal/services"
	"catering/internal/storage"
)

type Type string

const (
	Memory Type = config.BackendMemory
	SQLite Type = config.BackendSQLite
)

func (t Type) IsValid() bool {
	return t == Memory || t == SQLite
}

// Config holds the settings backend creation needs.
type Config struct {
	Type         Type
	SQLiteDBPath string
	SeedFile     string
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	CacheSize    int
	CacheTTL     time.Duration
}

// Backend is everything the HTTP server reads from and writes to.
type Backend struct {
	Meals     services.Store
	Companies ports.CompanyRepository
	Employees ports.EmployeeRepository
	// Ping reports storage health; nil means always healthy.
	Ping    func(ctx context.Context) error
	Cleanup func() error
}

func FromAppConfig(c *config.Config) (Config, error) {
	if c == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(c.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", c.DataBackend)
	}
	return Config{
		Type:         t,
		SQLiteDBPath: c.SQLiteDBPath,
		SeedFile:     c.SeedFile,
		AMQPURL:      c.AMQPURL,
		AMQPExchange: c.AMQPExchange,
		AMQPQueue:    c.AMQPQueue,
		CacheSize:    c.CacheSize,
		CacheTTL:     c.CacheTTL,
	}, nil
}

// Factory builds backends; it owns the cache cleanup goroutine.
type Factory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
	caches  *cache.Manager
}

func NewFactory(logger *log.Logger, m *metrics.Metrics) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
		caches:  cache.NewManager(logger),
	}
}

func (f *Factory) Create(ctx context.Context, cfg Config) (*Backend, error) {
	var (
		b   *Backend
		err error
	)
	switch cfg.Type {
	case SQLite:
		b, err = f.createSQLite(ctx, cfg)
	case Memory:
		b, err = f.createMemory(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		lru := cache.NewLRUCache[[]core.Meal](cfg.CacheSize, cfg.CacheTTL)
		f.caches.Register(lru)
		f.caches.StartCleanup(cfg.CacheTTL)
		b.Meals = adapters.NewCachedStore(b.Meals, lru, f.logger)

		inner := b.Cleanup
		b.Cleanup = func() error {
			f.caches.Stop()
			if inner != nil {
				return inner()
			}
			return nil
		}
		f.logger.InfoContext(ctx, "Meal listing cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}
	return b, nil
}

func (f *Factory) createSQLite(ctx context.Context, cfg Config) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	// AMQP is optional; without it the worker's pending scan still exports.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync", log.FieldError, err)
		} else {
			publisher = client
			f.logger.InfoContext(ctx, "Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewMealService(repo, publisher, f.metrics, f.logger)
	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath, "amqp_enabled", publisher != nil)

	return &Backend{
		Meals:     svc,
		Companies: repo,
		Employees: repo,
		Ping:      repo.Ping,
		Cleanup:   svc.Close,
	}, nil
}

func (f *Factory) createMemory(ctx context.Context, cfg Config) (*Backend, error) {
	store, err := memory.NewFromFile(cfg.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", cfg.SeedFile)

	return &Backend{
		Meals:     services.NewMealService(store, nil, f.metrics, f.logger),
		Companies: store,
		Employees: store,
	}, nil
}
