package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// ChangeSink receives an event after every successful mutation.
type ChangeSink interface {
	PublishChange(ctx context.Context, ev core.ChangeEvent) error
}

// SinkFunc adapts a function to ChangeSink.
type SinkFunc func(ctx context.Context, ev core.ChangeEvent) error

func (f SinkFunc) PublishChange(ctx context.Context, ev core.ChangeEvent) error {
	return f(ctx, ev)
}

// Broadcaster fans an event out to every registered sink. A failing sink is
// logged and does not stop the others.
type Broadcaster struct {
	mu     sync.RWMutex
	sinks  []ChangeSink
	logger *log.Logger
}

func NewBroadcaster(logger *log.Logger, sinks ...ChangeSink) *Broadcaster {
	return &Broadcaster{sinks: sinks, logger: logger}
}

// Add registers another sink.
func (b *Broadcaster) Add(sink ChangeSink) {
	if sink == nil {
		return
	}
	b.mu.Lock()
	b.sinks = append(b.sinks, sink)
	b.mu.Unlock()
}

// PublishChange delivers ev to every sink and returns their joined errors.
func (b *Broadcaster) PublishChange(ctx context.Context, ev core.ChangeEvent) error {
	b.mu.RLock()
	sinks := append([]ChangeSink(nil), b.sinks...)
	b.mu.RUnlock()

	var errs []error
	for _, s := range sinks {
		if err := s.PublishChange(ctx, ev); err != nil {
			b.logger.WarnContext(ctx, "Change sink failed",
				log.NewFields().WithEntity(ev.Entity, ev.EntityID, ev.Action).WithUserID(ev.UserID).WithError(err).ToSlice()...)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// notify hands ev to sink. Delivery problems never fail the operation that
// produced the event.
func notify(ctx context.Context, sink ChangeSink, logger *log.Logger, entity, action, entityID, userID string, at time.Time) {
	if sink == nil {
		return
	}
	ev := core.ChangeEvent{Entity: entity, Action: action, EntityID: entityID, UserID: userID, At: at}
	if err := sink.PublishChange(ctx, ev); err != nil {
		logger.WarnContext(ctx, "Failed to publish change event",
			log.NewFields().WithEntity(entity, entityID, action).WithUserID(userID).WithError(err).ToSlice()...)
	}
}
