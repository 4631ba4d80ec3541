package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"catering/internal/amqp"
	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/metrics"
	"catering/internal/ports"
)

// Store is the persistence a MealService orchestrates.
type Store interface {
	ports.MealRepository
	ports.MealEditor
}

// Publisher announces saved and deleted meals to the sync worker.
type Publisher interface {
	PublishMealSync(ctx context.Context, event string, id, version int64) error
	PublishMealDeleted(ctx context.Context, id int64, year int) error
}

// versioner is implemented by stores that track row versions.
type versioner interface {
	GetMealByID(ctx context.Context, id int64) (core.Meal, int64, error)
}

var (
	_ Store     = (*MealService)(nil)
	_ Publisher = (*amqp.Client)(nil)
)

// MealService saves meals locally first and then publishes a sync message.
// A publish failure never fails the request.
type MealService struct {
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func NewMealService(store Store, publisher Publisher, m *metrics.Metrics, logger *log.Logger) *MealService {
	if logger == nil {
		logger = log.Discard()
	}
	return &MealService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentMeal),
	}
}

func (s *MealService) ListByMonth(ctx context.Context, year, month int) ([]core.Meal, error) {
	return s.store.ListByMonth(ctx, year, month)
}

func (s *MealService) ListAll(ctx context.Context) ([]core.Meal, error) {
	return s.store.ListAll(ctx)
}

func (s *MealService) Get(ctx context.Context, id string) (core.Meal, error) {
	return s.store.Get(ctx, id)
}

func (s *MealService) Create(ctx context.Context, mc core.MealCreate) (core.Meal, error) {
	m, err := s.store.Create(ctx, mc)
	if err != nil {
		return core.Meal{}, fmt.Errorf("save meal: %w", err)
	}
	s.metrics.MealCreated()

	fields := log.NewFields().
		WithOperation(log.OpCreate).
		WithMeal(m.ID, m.Year, m.Month, m.Day, string(m.Type), m.Menu, m.Count)
	s.logger.InfoContext(ctx, "Meal created", fields.ToSlice()...)

	s.publish(ctx, amqp.EventMealCreated, m.ID, 1)
	return m, nil
}

func (s *MealService) Update(ctx context.Context, id string, u core.MealUpdate) (core.Meal, error) {
	m, err := s.store.Update(ctx, id, u)
	if err != nil {
		return core.Meal{}, fmt.Errorf("update meal: %w", err)
	}
	s.logger.InfoContext(ctx, "Meal updated", log.FieldMealID, m.ID, log.FieldOperation, log.OpUpdate)

	s.publish(ctx, amqp.EventMealUpdated, m.ID, s.version(ctx, m.ID))
	return m, nil
}

func (s *MealService) Delete(ctx context.Context, id string) error {
	// The year picks the sheet tab, so read it before the row is gone.
	year := 0
	if s.publisher != nil {
		if m, err := s.store.Get(ctx, id); err == nil {
			year = m.Year
		}
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	s.logger.InfoContext(ctx, "Meal deleted", log.FieldMealID, id, log.FieldOperation, log.OpDelete)

	s.publishDeleted(ctx, id, year)
	return nil
}

// version falls back to 0, which the worker treats as "whatever is stored".
func (s *MealService) version(ctx context.Context, id string) int64 {
	v, ok := s.store.(versioner)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	_, version, err := v.GetMealByID(ctx, n)
	if err != nil {
		return 0
	}
	return version
}

func (s *MealService) publish(ctx context.Context, event, id string, version int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping sync message", log.FieldMealID, id)
		return
	}
	// Only numerically keyed stores take part in the sheet sync.
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		s.logger.DebugContext(ctx, "Meal id is not numeric, skipping sync message", log.FieldMealID, id)
		return
	}
	if err := s.publisher.PublishMealSync(ctx, event, n, version); err != nil {
		s.logger.LogError(ctx, "Failed to publish sync message", err, log.OpSync, log.ErrorTypeTransport)
	}
}

func (s *MealService) publishDeleted(ctx context.Context, id string, year int) {
	if s.publisher == nil || year <= 0 {
		return
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return
	}
	if err := s.publisher.PublishMealDeleted(ctx, n, year); err != nil {
		s.logger.LogError(ctx, "Failed to publish delete message", err, log.OpSync, log.ErrorTypeTransport)
	}
}

// Close releases the store and the publisher when they hold resources.
func (s *MealService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
