// Package kv is the local store adapter: it maps a fixed collection key to a
// serialized list of records on top of any byte-oriented key-value backend.
package kv

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// Fixed logical keys.
const (
	KeyUsers        = "users"
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyCurrentUser  = "currentUser"
	KeyActivity     = "activity"
)

// Store is the persistent medium. Set must replace the whole value so that
// a subsequent Get never observes a partial write.
type Store interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

// ReadError reports a failed or undecodable read of key.
type ReadError struct {
	Key string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %q: %v", e.Key, e.Err)
}

func (e *ReadError) Unwrap() []error { return []error{core.ErrStorageRead, e.Err} }

// WriteError reports a failed write of key.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{core.ErrStorageWrite, e.Err} }
