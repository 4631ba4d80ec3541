package worker

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
	"catering/internal/storage"
)

// SyncStore is the slice of the SQLite repository the worker needs.
type SyncStore interface {
	GetMealByID(ctx context.Context, id int64) (core.Meal, int64, error)
	GetPendingSyncMeals(ctx context.Context, limit int) ([]storage.PendingSyncMeal, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

var _ SyncStore = (*storage.SQLiteRepository)(nil)

// SyncWorker exports meals from SQLite to the spreadsheet.
type SyncWorker struct {
	store     SyncStore
	exporter  ports.MealExporter
	metrics   *metrics.Metrics
	logger    *log.Logger
	batchSize int
}

func NewSyncWorker(store SyncStore, exporter ports.MealExporter, m *metrics.Metrics, logger *log.Logger, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one message from the queue. A meal deleted
// before the worker saw it is acknowledged and skipped; its delete message
// clears the row. A message older than the stored row is skipped as well;
// the newer message carries it.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MealSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		"event", msg.Event,
		log.FieldMealID, msg.ID,
		"version", msg.Version)

	if msg.Event == amqp.EventMealDeleted {
		if err := w.exporter.RemoveMeal(ctx, msg.Year, strconv.FormatInt(msg.ID, 10)); err != nil {
			return fmt.Errorf("remove from sheets: %w", err)
		}
		w.logger.InfoContext(ctx, "Removed meal from sheet", log.FieldMealID, msg.ID, "year", msg.Year)
		return nil
	}

	meal, version, err := w.store.GetMealByID(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Meal no longer exists, skipping", log.FieldMealID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get meal from storage: %w", err)
	}
	if msg.Version > 0 && version > msg.Version {
		w.logger.InfoContext(ctx, "Stale sync message, newer version pending",
			log.FieldMealID, msg.ID, "version", msg.Version, "stored_version", version)
		return nil
	}

	return w.syncMeal(ctx, msg.ID, meal)
}

// ProcessPendingMeals exports meals whose messages were lost.
func (w *SyncWorker) ProcessPendingMeals(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck drains a larger batch when the worker starts.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		w.logger.InfoContext(ctx, "No pending meals found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.store.GetPendingSyncMeals(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending meals: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}
	w.logger.InfoContext(ctx, "Processing pending meals", "count", len(pending))

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		meal, _, err := w.store.GetMealByID(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to get meal", log.FieldMealID, p.ID, log.FieldError, err)
			if markErr := w.store.MarkSyncError(ctx, p.ID); markErr != nil {
				w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldMealID, p.ID, log.FieldError, markErr)
			}
			failed++
			continue
		}
		if err := w.syncMeal(ctx, p.ID, meal); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync meal", log.FieldMealID, p.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncMeal(ctx context.Context, id int64, meal core.Meal) error {
	ref, err := w.exporter.UpsertMeal(ctx, meal)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, id); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldMealID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("write to sheets: %w", err)
	}
	w.metrics.SheetRowWritten()

	// The row exists in the sheet; a failed mark only causes a later re-export.
	if err := w.store.MarkSynced(ctx, id); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldMealID, id, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Successfully synced meal",
		log.FieldMealID, id,
		log.FieldSheetsRef, ref,
		log.FieldMealMenu, meal.Menu,
		log.FieldMealCount, meal.Count)
	return nil
}
