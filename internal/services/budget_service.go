package services

import (
	"context"
	"slices"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// BudgetService manages expense limits and savings goals. A budget can only
// be changed or removed by the user who owns it.
type BudgetService struct {
	budgets *kv.Collection[core.Budget]
	ids     idgen.Generator
	sink    ChangeSink
	logger  *log.Logger
	now     func() time.Time
}

func NewBudgetService(db *kv.DB, ids idgen.Generator, sink ChangeSink, logger *log.Logger) *BudgetService {
	return &BudgetService{
		budgets: kv.NewCollection[core.Budget](db, kv.KeyBudgets),
		ids:     ids,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

func errBudgetNotFound() error {
	return core.Fail(core.ErrNotFound, "Budget not found", nil)
}

// List returns the user's budgets in the order they were added.
func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	all, err := s.budgets.Load(ctx)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpList, userID, err)
		return nil, storageFailure(err, "Failed to load budgets")
	}
	out := make([]core.Budget, 0, len(all))
	for _, b := range all {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Add appends a budget owned by userID. EndDate is kept as given whatever the
// budget type.
func (s *BudgetService) Add(ctx context.Context, userID string, in core.NewBudget) (core.Budget, error) {
	var created core.Budget
	err := s.budgets.Update(ctx, func(all []core.Budget) ([]core.Budget, error) {
		now := s.now()
		created = core.Budget{
			ID:           s.ids.NewID(),
			UserID:       userID,
			Amount:       in.Amount,
			Target:       in.Target,
			Description:  in.Description,
			Type:         in.Type,
			Category:     in.Category,
			EndDate:      cloneString(in.EndDate),
			CategoryData: snapshot(s.ids, in.Category, userID, now),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return append(all, created), nil
	})
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpCreate, userID, err)
		return core.Budget{}, storageFailure(err, "Failed to add budget")
	}

	notify(ctx, s.sink, s.logger, core.EntityBudget, core.ActionCreated, created.ID, userID, created.CreatedAt)
	return created, nil
}

// Update merges the fields present in patch into the budget. A supplied
// category always gets a fresh snapshot; an empty one clears it.
func (s *BudgetService) Update(ctx context.Context, userID, budgetID string, patch core.BudgetPatch) (core.Budget, error) {
	var updated core.Budget
	err := s.budgets.Update(ctx, func(all []core.Budget) ([]core.Budget, error) {
		i := indexOwned(all, userID, budgetID)
		if i < 0 {
			return nil, errBudgetNotFound()
		}

		b := all[i]
		now := s.now()
		if patch.Description != nil {
			b.Description = *patch.Description
		}
		if patch.Amount != nil {
			b.Amount = *patch.Amount
		}
		if patch.Target != nil {
			b.Target = *patch.Target
		}
		if patch.EndDate != nil {
			b.EndDate = cloneString(patch.EndDate)
		}
		if patch.Category != nil {
			b.Category = *patch.Category
			b.CategoryData = snapshot(s.ids, b.Category, userID, now)
		}
		b.UpdatedAt = now

		all[i] = b
		updated = b
		return all, nil
	})
	if err != nil {
		if isStorageFailure(err) {
			s.logger.OperationFailed(ctx, log.OpUpdate, userID, err)
		}
		return core.Budget{}, storageFailure(err, "Failed to update budget")
	}

	notify(ctx, s.sink, s.logger, core.EntityBudget, core.ActionUpdated, updated.ID, userID, updated.UpdatedAt)
	return updated, nil
}

// Delete removes exactly one budget owned by userID.
func (s *BudgetService) Delete(ctx context.Context, userID, budgetID string) error {
	err := s.budgets.Update(ctx, func(all []core.Budget) ([]core.Budget, error) {
		i := indexOwned(all, userID, budgetID)
		if i < 0 {
			return nil, errBudgetNotFound()
		}
		return slices.Delete(all, i, i+1), nil
	})
	if err != nil {
		if isStorageFailure(err) {
			s.logger.OperationFailed(ctx, log.OpDelete, userID, err)
		}
		return storageFailure(err, "Failed to delete budget")
	}

	notify(ctx, s.sink, s.logger, core.EntityBudget, core.ActionDeleted, budgetID, userID, s.now())
	return nil
}

func indexOwned(all []core.Budget, userID, budgetID string) int {
	return slices.IndexFunc(all, func(b core.Budget) bool {
		return b.ID == budgetID && b.UserID == userID
	})
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
