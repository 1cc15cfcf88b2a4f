package kv

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Locks hands out one mutex per key so that load-mutate-save cycles on the
// same collection run one at a time inside the process.
type Locks struct {
	mu    sync.Mutex
	byKey map[string]*sync.Mutex
}

func NewLocks() *Locks {
	return &Locks{byKey: make(map[string]*sync.Mutex)}
}

func (l *Locks) For(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byKey[key]
	if !ok {
		m = &sync.Mutex{}
		l.byKey[key] = m
	}
	return m
}

// DB bundles a Store with the per-key locks shared by every collection
// opened on it.
type DB struct {
	Store Store
	locks *Locks
}

func NewDB(store Store) *DB {
	return &DB{Store: store, locks: NewLocks()}
}

func (db *DB) Close() error {
	return db.Store.Close()
}

// Collection is a typed, ordered list of records stored under one key.
type Collection[T any] struct {
	store Store
	key   string
	mu    *sync.Mutex
}

func NewCollection[T any](db *DB, key string) *Collection[T] {
	return &Collection[T]{store: db.Store, key: key, mu: db.locks.For(key)}
}

// Load returns every record in storage order, or an empty slice when the key
// has never been written. Undecodable data yields a *ReadError and no
// records.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, &ReadError{Key: c.key, Err: err}
	}
	if !ok || len(raw) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ReadError{Key: c.key, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Save replaces the whole collection.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return &WriteError{Key: c.key, Err: err}
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return &WriteError{Key: c.key, Err: err}
	}
	return nil
}

// ErrNoChange may be returned by an Update callback to skip the save.
var ErrNoChange = errors.New("no change")

// Update loads the collection, passes it to fn and saves what fn returns,
// holding the key's lock for the whole cycle. If fn returns ErrNoChange the
// save is skipped and Update returns nil; any other error aborts the update
// and is returned unchanged.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.Load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.Save(ctx, next)
}

// Document is a single record stored under one key, such as the current
// user pointer.
type Document[T any] struct {
	store Store
	key   string
}

func NewDocument[T any](db *DB, key string) *Document[T] {
	return &Document[T]{store: db.Store, key: key}
}

// Load returns nil when the key has never been written.
func (d *Document[T]) Load(ctx context.Context) (*T, error) {
	raw, ok, err := d.store.Get(ctx, d.key)
	if err != nil {
		return nil, &ReadError{Key: d.key, Err: err}
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &ReadError{Key: d.key, Err: err}
	}
	return &v, nil
}

func (d *Document[T]) Save(ctx context.Context, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &WriteError{Key: d.key, Err: err}
	}
	if err := d.store.Set(ctx, d.key, raw); err != nil {
		return &WriteError{Key: d.key, Err: err}
	}
	return nil
}

func (d *Document[T]) Clear(ctx context.Context) error {
	if err := d.store.Delete(ctx, d.key); err != nil {
		return &WriteError{Key: d.key, Err: err}
	}
	return nil
}
