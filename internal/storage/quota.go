package storage

import (
	"context"
	"fmt"
)

// QuotaStore rejects values larger than a fixed number of bytes, the way
// browser storage refuses writes once its quota is exhausted.
type QuotaStore struct {
	Store
	maxBytes int
}

// WithQuota wraps s so that Set fails with ErrStoreFull above maxBytes.
// A non-positive maxBytes returns s unchanged.
func WithQuota(s Store, maxBytes int) Store {
	if maxBytes <= 0 {
		return s
	}
	return &QuotaStore{Store: s, maxBytes: maxBytes}
}

func (q *QuotaStore) Set(ctx context.Context, key string, value []byte) error {
	if len(value) > q.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds quota of %d", ErrStoreFull, len(value), q.maxBytes)
	}
	return q.Store.Set(ctx, key, value)
}
