package cache

import (
	"context"
	"time"
)

// Store is a byte cache keyed by string. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Delete(ctx context.Context, key string) error
}

type LookupRecorder interface {
	CacheLookup(hit bool)
}

const defaultTTL = 30 * time.Second

// Instrumented counts hits and misses of the wrapped store.
type Instrumented struct {
	Store
	rec LookupRecorder
}

func WithMetrics(s Store, rec LookupRecorder) Store {
	if rec == nil {
		return s
	}
	return &Instrumented{Store: s, rec: rec}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := i.Store.Get(ctx, key)
	if err == nil {
		i.rec.CacheLookup(ok)
	}
	return val, ok, err
}

// TodosKey is the per-owner todo list key.
func TodosKey(ownerID string) string {
	return "todos:owner:" + ownerID
}
