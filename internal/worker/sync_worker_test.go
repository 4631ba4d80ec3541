package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"catering/internal/amqp"
	"catering/internal/core"
	"catering/internal/storage"
)

type fakeStore struct {
	meals    map[int64]core.Meal
	versions map[int64]int64
	synced   map[int64]bool
	errored  map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meals:    map[int64]core.Meal{},
		versions: map[int64]int64{},
		synced:   map[int64]bool{},
		errored:  map[int64]bool{},
	}
}

func (s *fakeStore) add(id int64, version int64, m core.Meal) {
	m.ID = fmt.Sprint(id)
	s.meals[id] = m
	s.versions[id] = version
}

func (s *fakeStore) GetMealByID(_ context.Context, id int64) (core.Meal, int64, error) {
	m, ok := s.meals[id]
	if !ok {
		return core.Meal{}, 0, fmt.Errorf("meal %d: %w", id, core.ErrNotFound)
	}
	return m, s.versions[id], nil
}

func (s *fakeStore) GetPendingSyncMeals(_ context.Context, limit int) ([]storage.PendingSyncMeal, error) {
	var out []storage.PendingSyncMeal
	for id := int64(1); id <= int64(len(s.meals)+5) && len(out) < limit; id++ {
		if _, ok := s.meals[id]; ok && !s.synced[id] {
			out = append(out, storage.PendingSyncMeal{ID: id, Version: s.versions[id]})
		}
	}
	return out, nil
}

func (s *fakeStore) MarkSynced(_ context.Context, id int64) error {
	s.synced[id] = true
	return nil
}

func (s *fakeStore) MarkSyncError(_ context.Context, id int64) error {
	s.errored[id] = true
	return nil
}

// recordingExporter keeps one row per meal id, in first-write order.
type recordingExporter struct {
	rows    []core.Meal
	removed []string
	err     error
}

func (e *recordingExporter) UpsertMeal(_ context.Context, m core.Meal) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	for i := range e.rows {
		if e.rows[i].ID == m.ID {
			e.rows[i] = m
			return fmt.Sprintf("2024 Meals!A%d:H%d", i+2, i+2), nil
		}
	}
	e.rows = append(e.rows, m)
	return fmt.Sprintf("2024 Meals!A%d:H%d", len(e.rows)+1, len(e.rows)+1), nil
}

func (e *recordingExporter) RemoveMeal(_ context.Context, year int, id string) error {
	if e.err != nil {
		return e.err
	}
	for i := range e.rows {
		if e.rows[i].ID == id && e.rows[i].Year == year {
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			break
		}
	}
	e.removed = append(e.removed, id)
	return nil
}

func TestHandleSyncMessage(t *testing.T) {
	store := newFakeStore()
	store.add(1, 1, core.Meal{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "Soup", Count: 10})
	exp := &recordingExporter{}
	w := NewSyncWorker(store, exp, nil, nil, 0)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewMealSyncMessage(amqp.EventMealCreated, 1, 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exp.rows) != 1 || exp.rows[0].Menu != "Soup" {
		t.Fatalf("unexpected exported rows %+v", exp.rows)
	}
	if !store.synced[1] {
		t.Fatal("meal should be marked synced")
	}
}

func TestHandleSyncMessageCreateUpdateDelete(t *testing.T) {
	store := newFakeStore()
	store.add(1, 1, core.Meal{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "Soup", Count: 10})
	exp := &recordingExporter{}
	w := NewSyncWorker(store, exp, nil, nil, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewMealSyncMessage(amqp.EventMealCreated, 1, 1)); err != nil {
		t.Fatalf("created: %v", err)
	}
	store.add(1, 2, core.Meal{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "Soup", Count: 25})
	if err := w.HandleSyncMessage(ctx, amqp.NewMealSyncMessage(amqp.EventMealUpdated, 1, 2)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if len(exp.rows) != 1 || exp.rows[0].ID != "1" || exp.rows[0].Count != 25 {
		t.Fatalf("edited meal should have a single updated row, got %+v", exp.rows)
	}

	delete(store.meals, 1)
	if err := w.HandleSyncMessage(ctx, amqp.NewMealDeletedMessage(1, 2024)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if len(exp.rows) != 0 || len(exp.removed) != 1 || exp.removed[0] != "1" {
		t.Fatalf("deleted meal should leave no row, got rows=%+v removed=%v", exp.rows, exp.removed)
	}
}

func TestHandleSyncMessageSkips(t *testing.T) {
	store := newFakeStore()
	store.add(1, 3, core.Meal{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "Soup", Count: 10})
	exp := &recordingExporter{}
	w := NewSyncWorker(store, exp, nil, nil, 10)
	ctx := context.Background()

	if err := w.HandleSyncMessage(ctx, amqp.NewMealSyncMessage(amqp.EventMealCreated, 42, 1)); err != nil {
		t.Fatalf("missing meal should be skipped, got %v", err)
	}
	if err := w.HandleSyncMessage(ctx, amqp.NewMealSyncMessage(amqp.EventMealUpdated, 1, 2)); err != nil {
		t.Fatalf("stale message should be skipped, got %v", err)
	}
	if len(exp.rows) != 0 {
		t.Fatalf("nothing should be exported, got %+v", exp.rows)
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	store := newFakeStore()
	store.add(1, 1, core.Meal{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "Soup", Count: 10})
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(store, &recordingExporter{err: boom}, nil, nil, 10)

	err := w.HandleSyncMessage(context.Background(), amqp.NewMealSyncMessage(amqp.EventMealCreated, 1, 1))
	if !errors.Is(err, boom) {
		t.Fatalf("expected export error, got %v", err)
	}
	if !store.errored[1] || store.synced[1] {
		t.Fatalf("expected sync error mark, got synced=%v errored=%v", store.synced[1], store.errored[1])
	}
}

func TestProcessPendingMeals(t *testing.T) {
	store := newFakeStore()
	for i := int64(1); i <= 4; i++ {
		store.add(i, 1, core.Meal{Year: 2024, Month: 3, Day: int(i), Type: core.Dinner, Menu: "Fish", Count: 1})
	}
	store.synced[2] = true
	exp := &recordingExporter{}
	w := NewSyncWorker(store, exp, nil, nil, 2)

	if err := w.ProcessPendingMeals(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(exp.rows) != 2 || exp.rows[0].Day != 1 || exp.rows[1].Day != 3 {
		t.Fatalf("unexpected batch %+v", exp.rows)
	}

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(exp.rows) != 3 || !store.synced[4] {
		t.Fatalf("startup check should drain the rest, got %+v", exp.rows)
	}
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("empty startup check: %v", err)
	}
}
