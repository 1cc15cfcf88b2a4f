package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/kv/memory"
	"fintrack/internal/log"
)

// stepClock advances one second on every reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type failingStore struct {
	*memory.Store
	mu               sync.Mutex
	failGet, failSet bool
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, errors.New("medium unavailable")
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, v []byte) error {
	f.mu.Lock()
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, v)
}

func (f *failingStore) set(get, set bool) {
	f.mu.Lock()
	f.failGet, f.failSet = get, set
	f.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []core.ChangeEvent
	err    error
}

func (r *recordingSink) PublishChange(_ context.Context, ev core.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingSink) Events() []core.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.ChangeEvent(nil), r.events...)
}

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

type fixture struct {
	ledger *Ledger
	store  *failingStore
	clock  *stepClock
	sink   *recordingSink
	tokens *auth.Tokens
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &failingStore{Store: memory.New()}
	clock := newStepClock()
	sink := &recordingSink{}
	tokens := auth.NewTokens("services-test-secret", time.Hour)

	l := New(Deps{
		DB:        kv.NewDB(store),
		IDs:       idgen.NewTimestamp(time.Now),
		Hasher:    auth.NewHasher(bcrypt.MinCost),
		Tokens:    tokens,
		Logger:    testLogger(),
		Overviews: cache.NewLRUCache[core.Overview](16, time.Minute),
		Sinks:     []ChangeSink{sink},
	})
	l.Users.now = clock.Now
	l.Transactions.now = clock.Now
	l.Budgets.now = clock.Now
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{ledger: l, store: store, clock: clock, sink: sink, tokens: tokens}
}

func (f *fixture) register(t *testing.T, email string) Session {
	t.Helper()
	s, err := f.ledger.Users.Register(context.Background(), "user", email, "secret1")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return s
}

func TestBroadcasterContinuesPastFailingSink(t *testing.T) {
	failing := &recordingSink{err: errors.New("broker down")}
	ok := &recordingSink{}
	b := NewBroadcaster(testLogger(), failing)
	b.Add(ok)
	b.Add(nil)

	err := b.PublishChange(context.Background(), core.ChangeEvent{Entity: core.EntityBudget, UserID: "u1"})
	if err == nil {
		t.Fatal("expected joined error from failing sink")
	}
	if len(ok.Events()) != 1 || len(failing.Events()) != 1 {
		t.Fatalf("every sink should receive the event: ok=%d failing=%d", len(ok.Events()), len(failing.Events()))
	}
}

func TestSinkFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("broker down")
	s := f.register(t, "a@x.io")

	if _, err := f.ledger.Transactions.Add(context.Background(), s.UserID, core.NewTransaction{
		Description: "Coffee", Amount: 3, Type: core.Withdrawal,
	}); err != nil {
		t.Fatalf("add should succeed despite sink failure: %v", err)
	}
}

func TestStorageFailureKeepsKindAndHidesCause(t *testing.T) {
	err := storageFailure(&kv.WriteError{Key: "budgets", Err: errors.New("disk full")}, "Failed to add budget")
	if !errors.Is(err, core.ErrStorageWrite) {
		t.Fatalf("expected write kind, got %v", err)
	}
	if got := core.MessageOf(err); got != "Failed to add budget" {
		t.Fatalf("message = %q", got)
	}

	nf := core.Fail(core.ErrNotFound, "Budget not found", nil)
	if got := storageFailure(nf, "Failed to update budget"); got != error(nf) {
		t.Fatalf("business failures must pass through, got %v", got)
	}
}
