// Package adapters decorates meal stores for the HTTP server.
package adapters

import (
	"context"
	"fmt"
	"sync"

	"catering/internal/cache"
	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/services"
)

const allMealsKey = "meals:all"

var _ services.Store = (*CachedStore)(nil)

// CachedStore serves month and full listings from an LRU. Every write
// purges the cache, so readers see their own writes. A listing read while
// a write was in flight is returned but never cached.
type CachedStore struct {
	next   services.Store
	cache  cache.Cache[[]core.Meal]
	logger *log.Logger

	mu  sync.Mutex
	gen uint64
}

func NewCachedStore(next services.Store, c cache.Cache[[]core.Meal], logger *log.Logger) *CachedStore {
	if logger == nil {
		logger = log.Discard()
	}
	return &CachedStore{next: next, cache: c, logger: logger.WithComponent(log.ComponentCache)}
}

func monthKey(year, month int) string {
	return fmt.Sprintf("meals:%04d-%02d", year, month)
}

func (s *CachedStore) ListByMonth(ctx context.Context, year, month int) ([]core.Meal, error) {
	key := monthKey(year, month)
	if meals, ok := s.cache.Get(key); ok {
		s.logger.DebugContext(ctx, "Cache hit", "key", key)
		return clone(meals), nil
	}
	gen := s.generation()
	meals, err := s.next.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, gen, key, meals)
	return meals, nil
}

func (s *CachedStore) ListAll(ctx context.Context) ([]core.Meal, error) {
	if meals, ok := s.cache.Get(allMealsKey); ok {
		return clone(meals), nil
	}
	gen := s.generation()
	meals, err := s.next.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, gen, allMealsKey, meals)
	return meals, nil
}

func (s *CachedStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fill stores meals under key unless a write completed since gen was read.
func (s *CachedStore) fill(ctx context.Context, gen uint64, key string, meals []core.Meal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.logger.DebugContext(ctx, "Listing raced a write, not cached", "key", key)
		return
	}
	s.cache.Set(key, clone(meals))
}

// invalidate runs after a successful write to the underlying store.
func (s *CachedStore) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Purge()
}

func (s *CachedStore) Get(ctx context.Context, id string) (core.Meal, error) {
	return s.next.Get(ctx, id)
}

func (s *CachedStore) Create(ctx context.Context, mc core.MealCreate) (core.Meal, error) {
	m, err := s.next.Create(ctx, mc)
	if err == nil {
		s.invalidate()
	}
	return m, err
}

func (s *CachedStore) Update(ctx context.Context, id string, u core.MealUpdate) (core.Meal, error) {
	m, err := s.next.Update(ctx, id, u)
	if err == nil {
		s.invalidate()
	}
	return m, err
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	err := s.next.Delete(ctx, id)
	if err == nil {
		s.invalidate()
	}
	return err
}

func clone(meals []core.Meal) []core.Meal {
	return append(make([]core.Meal, 0, len(meals)), meals...)
}
