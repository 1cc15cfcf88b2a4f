// Package worker turns change messages into the users' activity feed.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// ChangeSource delivers change events to a handler until ctx is done.
// *amqp.Client implements it.
type ChangeSource interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, core.ChangeEvent) error) error
}

// ActivityWorker records every change event in the activity feed.
type ActivityWorker struct {
	transactions *kv.Collection[core.Transaction]
	budgets      *kv.Collection[core.Budget]
	activity     *kv.Collection[core.Activity]
	feed         *services.ActivityService
	logger       *log.Logger
}

func NewActivityWorker(db *kv.DB, feed *services.ActivityService, logger *log.Logger) *ActivityWorker {
	return &ActivityWorker{
		transactions: kv.NewCollection[core.Transaction](db, kv.KeyTransactions),
		budgets:      kv.NewCollection[core.Budget](db, kv.KeyBudgets),
		activity:     kv.NewCollection[core.Activity](db, kv.KeyActivity),
		feed:         feed,
		logger:       logger,
	}
}

// HandleChange processes a single change message. A returned error asks the
// broker to redeliver it.
func (w *ActivityWorker) HandleChange(ctx context.Context, ev core.ChangeEvent) error {
	entry, err := w.feed.Record(ctx, ev)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	fields := log.NewFields().WithEntity(ev.Entity, ev.EntityID, ev.Action).WithUserID(ev.UserID)
	fields["activity_id"] = entry.ID
	w.logger.InfoContext(ctx, "Activity recorded", fields.ToSlice()...)
	return nil
}

// Run consumes from src until ctx is done.
func (w *ActivityWorker) Run(ctx context.Context, src ChangeSource) error {
	return src.ConsumeChanges(ctx, w.HandleChange)
}

// StartupBackfill records a "created" entry for every transaction and budget
// that has none, covering events published while no worker was running or
// never published at all. It returns the number of entries added.
func (w *ActivityWorker) StartupBackfill(ctx context.Context) (int, error) {
	txs, err := w.transactions.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	budgets, err := w.budgets.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load budgets: %w", err)
	}
	feed, err := w.activity.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load activity: %w", err)
	}

	seen := make(map[string]bool, len(feed))
	for _, a := range feed {
		if a.Action == core.ActionCreated {
			seen[a.Entity+"/"+a.EntityID] = true
		}
	}

	var missing []core.ChangeEvent
	for _, t := range txs {
		if !seen[core.EntityTransaction+"/"+t.ID] {
			missing = append(missing, core.ChangeEvent{
				Entity: core.EntityTransaction, Action: core.ActionCreated,
				EntityID: t.ID, UserID: t.UserID, At: t.CreatedAt,
			})
		}
	}
	for _, b := range budgets {
		if !seen[core.EntityBudget+"/"+b.ID] {
			missing = append(missing, core.ChangeEvent{
				Entity: core.EntityBudget, Action: core.ActionCreated,
				EntityID: b.ID, UserID: b.UserID, At: b.CreatedAt,
			})
		}
	}

	if len(missing) == 0 {
		w.logger.InfoContext(ctx, "No missing activity found on startup")
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Found records without activity, backfilling", log.FieldCount, len(missing))
	added := 0
	for _, ev := range missing {
		if _, err := w.feed.Record(ctx, ev); err != nil {
			return added, fmt.Errorf("backfill %s %s: %w", ev.Entity, ev.EntityID, err)
		}
		added++
	}
	w.logger.InfoContext(ctx, "Startup backfill completed", log.FieldCount, added)
	return added, nil
}
