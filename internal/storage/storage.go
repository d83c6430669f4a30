// Package storage persists the client's named slots (token, serialized user)
// across process restarts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SigNoz/storefront-client/internal/metrics"
)

// ErrNotFound is returned by Get for an absent slot.
var ErrNotFound = errors.New("storage: slot not found")

// Slot names
const (
	SlotToken = "token"
	SlotUser  = "user"
)

// Store is a small key/value store for persisted client state.
// Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Instrumented records a storage metric for every call to the wrapped store.
type Instrumented struct {
	Store
	backend string
	metrics *metrics.AppMetrics
}

// Instrument wraps s so every operation is recorded under backend.
func Instrument(s Store, backend string, m *metrics.AppMetrics) *Instrumented {
	return &Instrumented{Store: s, backend: backend, metrics: m}
}

func (i *Instrumented) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	v, err := i.Store.Get(ctx, key)
	i.metrics.RecordStorageOp(ctx, "get", i.backend, key, start, err == nil || errors.Is(err, ErrNotFound))
	return v, err
}

func (i *Instrumented) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	err := i.Store.Set(ctx, key, value)
	i.metrics.RecordStorageOp(ctx, "set", i.backend, key, start, err == nil)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := i.Store.Delete(ctx, keys...)
	i.metrics.RecordStorageOp(ctx, "delete", i.backend, fmt.Sprint(keys), start, err == nil)
	return err
}
