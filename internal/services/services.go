// Package services implements the ledger operations: accounts, transactions,
// budgets and the views built from them. Every operation returns either its
// data or a *core.Failure carrying a message that is safe to show to users.
package services

import (
	"errors"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// Deps are the collaborators shared by every service.
type Deps struct {
	DB     *kv.DB
	IDs    idgen.Generator
	Hasher *auth.Hasher
	Tokens *auth.Tokens
	Logger *log.Logger

	// Overviews caches dashboard views. Nil disables caching.
	Overviews *cache.LRUCache[core.Overview]

	// Sinks receive change events in addition to the dashboard cache.
	Sinks []ChangeSink
}

// Ledger wires the services together on one store.
type Ledger struct {
	Users        *UserService
	Transactions *TransactionService
	Budgets      *BudgetService
	Dashboard    *DashboardService
	Activity     *ActivityService
	Events       *Broadcaster
}

func New(d Deps) *Ledger {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	events := NewBroadcaster(logger.WithComponent(log.ComponentApp), d.Sinks...)

	txs := NewTransactionService(d.DB, d.IDs, events, logger.WithComponent(log.ComponentTransaction))
	budgets := NewBudgetService(d.DB, d.IDs, events, logger.WithComponent(log.ComponentBudget))
	dashboard := NewDashboardService(txs, budgets, d.Overviews, logger.WithComponent(log.ComponentDashboard))
	events.Add(dashboard)

	return &Ledger{
		Users:        NewUserService(d.DB, d.IDs, d.Hasher, d.Tokens, logger.WithComponent(log.ComponentUsers)),
		Transactions: txs,
		Budgets:      budgets,
		Dashboard:    dashboard,
		Activity:     NewActivityService(d.DB, d.IDs, logger.WithComponent(log.ComponentActivity)),
		Events:       events,
	}
}

// storageFailure turns an error from the store into the operation's
// user-facing failure. Failures raised inside an update callback pass
// through unchanged.
func storageFailure(err error, message string) error {
	var f *core.Failure
	if errors.As(err, &f) {
		return f
	}
	kind := core.ErrStorageWrite
	switch {
	case errors.Is(err, core.ErrStorageRead):
		kind = core.ErrStorageRead
	case errors.Is(err, core.ErrInternal):
		kind = core.ErrInternal
	}
	return core.Fail(kind, message, err)
}

// isStorageFailure reports whether err came from the medium rather than from
// a business rule.
func isStorageFailure(err error) bool {
	return errors.Is(err, core.ErrStorageRead) || errors.Is(err, core.ErrStorageWrite) || errors.Is(err, core.ErrInternal)
}

// snapshot builds the category copy embedded in a record. An empty name
// means no category.
func snapshot(ids idgen.Generator, name, userID string, now time.Time) *core.Category {
	if name == "" {
		return nil
	}
	return &core.Category{
		ID:          ids.NewID(),
		Name:        name,
		Description: name,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
