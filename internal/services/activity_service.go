package services

import (
	"context"
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// ActivityService keeps the per-user feed of changes.
type ActivityService struct {
	activity *kv.Collection[core.Activity]
	ids      idgen.Generator
	logger   *log.Logger
}

func NewActivityService(db *kv.DB, ids idgen.Generator, logger *log.Logger) *ActivityService {
	return &ActivityService{
		activity: kv.NewCollection[core.Activity](db, kv.KeyActivity),
		ids:      ids,
		logger:   logger,
	}
}

// Record appends ev to the feed. Recording the same event twice keeps the
// first entry, so redelivered messages are harmless.
func (s *ActivityService) Record(ctx context.Context, ev core.ChangeEvent) (core.Activity, error) {
	var entry core.Activity
	err := s.activity.Update(ctx, func(all []core.Activity) ([]core.Activity, error) {
		for _, a := range all {
			if sameEvent(a, ev) {
				entry = a
				return nil, kv.ErrNoChange
			}
		}
		entry = core.Activity{
			ID:       s.ids.NewID(),
			UserID:   ev.UserID,
			Entity:   ev.Entity,
			Action:   ev.Action,
			EntityID: ev.EntityID,
			At:       ev.At,
		}
		return append(all, entry), nil
	})
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpCreate, ev.UserID, err)
		return core.Activity{}, storageFailure(err, "Failed to record activity")
	}
	return entry, nil
}

// List returns up to limit entries for userID, newest first. A limit of zero
// or less returns everything.
func (s *ActivityService) List(ctx context.Context, userID string, limit int) ([]core.Activity, error) {
	all, err := s.activity.Load(ctx)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpList, userID, err)
		return nil, storageFailure(err, "Failed to load activity")
	}

	out := make([]core.Activity, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.After(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sameEvent(a core.Activity, ev core.ChangeEvent) bool {
	return a.UserID == ev.UserID && a.Entity == ev.Entity && a.Action == ev.Action &&
		a.EntityID == ev.EntityID && a.At.Equal(ev.At)
}
