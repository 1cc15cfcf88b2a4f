package services

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// DashboardService builds the per-user overview: totals, recent activity and
// budget progress. Overviews are cached until the user's records change.
type DashboardService struct {
	transactions *TransactionService
	budgets      *BudgetService
	cache        *cache.LRUCache[core.Overview]
	group        singleflight.Group
	logger       *log.Logger

	mu  sync.Mutex
	gen map[string]uint64 // bumped on every change for the user
}

// NewDashboardService returns a dashboard over the given services. A nil
// cache computes every overview from storage.
func NewDashboardService(transactions *TransactionService, budgets *BudgetService, overviews *cache.LRUCache[core.Overview], logger *log.Logger) *DashboardService {
	return &DashboardService{
		transactions: transactions,
		budgets:      budgets,
		cache:        overviews,
		logger:       logger,
		gen:          make(map[string]uint64),
	}
}

// Overview returns the dashboard for userID.
func (s *DashboardService) Overview(ctx context.Context, userID string) (core.Overview, error) {
	if s.cache != nil {
		if ov, ok := s.cache.Get(userID); ok {
			return ov, nil
		}
	}

	gen := s.generation(userID)
	v, err, _ := s.group.Do(userID+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// Shared by every waiter, so one caller going away must not fail the rest.
		ov, err := s.build(context.WithoutCancel(ctx), userID)
		if err != nil {
			return core.Overview{}, err
		}
		// A change that landed while we were reading makes ov stale.
		if s.cache != nil && s.generation(userID) == gen {
			s.cache.Set(userID, ov)
		}
		return ov, nil
	})
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpOverview, userID, err)
		return core.Overview{}, storageFailure(err, "Failed to load dashboard")
	}
	return v.(core.Overview), nil
}

func (s *DashboardService) build(ctx context.Context, userID string) (core.Overview, error) {
	var (
		txs     []core.Transaction
		budgets []core.Budget
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.transactions.List(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		budgets, err = s.budgets.List(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Overview{}, err
	}
	return core.BuildOverview(txs, budgets), nil
}

func (s *DashboardService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[userID]
}

// PublishChange drops the cached overview of the event's user.
func (s *DashboardService) PublishChange(_ context.Context, ev core.ChangeEvent) error {
	s.mu.Lock()
	s.gen[ev.UserID]++
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Delete(ev.UserID)
	}
	return nil
}
