package services

import (
	"context"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// TransactionService records deposits and withdrawals. Transactions are
// append-only.
type TransactionService struct {
	transactions *kv.Collection[core.Transaction]
	ids          idgen.Generator
	sink         ChangeSink
	logger       *log.Logger
	now          func() time.Time
}

func NewTransactionService(db *kv.DB, ids idgen.Generator, sink ChangeSink, logger *log.Logger) *TransactionService {
	return &TransactionService{
		transactions: kv.NewCollection[core.Transaction](db, kv.KeyTransactions),
		ids:          ids,
		sink:         sink,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns the user's transactions in the order they were added.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	all, err := s.transactions.Load(ctx)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpList, userID, err)
		return nil, storageFailure(err, "Failed to load transactions")
	}
	out := make([]core.Transaction, 0, len(all))
	for _, t := range all {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Add appends a transaction owned by userID. Input is expected to have been
// validated by the caller.
func (s *TransactionService) Add(ctx context.Context, userID string, in core.NewTransaction) (core.Transaction, error) {
	var created core.Transaction
	err := s.transactions.Update(ctx, func(all []core.Transaction) ([]core.Transaction, error) {
		now := s.now()
		created = core.Transaction{
			ID:           s.ids.NewID(),
			UserID:       userID,
			Amount:       in.Amount,
			Description:  in.Description,
			Type:         in.Type,
			Category:     in.Category,
			CategoryData: snapshot(s.ids, in.Category, userID, now),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return append(all, created), nil
	})
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpCreate, userID, err)
		return core.Transaction{}, storageFailure(err, "Failed to add transaction")
	}

	s.logger.DebugContext(ctx, "Transaction added",
		log.NewFields().WithEntity(core.EntityTransaction, created.ID, core.ActionCreated).WithUserID(userID).ToSlice()...)
	notify(ctx, s.sink, s.logger, core.EntityTransaction, core.ActionCreated, created.ID, userID, created.CreatedAt)
	return created, nil
}
