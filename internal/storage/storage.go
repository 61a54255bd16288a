package storage

import (
	"context"
	"errors"

	"nftPool/internal/model"
)

// ErrNotFound is returned when no snapshot exists for a pool.
var ErrNotFound = errors.New("pool snapshot not found")

// SnapshotStore persists pool snapshots.
type SnapshotStore interface {
	SavePool(ctx context.Context, snap model.PoolSnapshot) error
	LoadPool(ctx context.Context, address string) (model.PoolSnapshot, error)
}

// SwapSink receives committed swaps.
type SwapSink interface {
	PutSwap(ctx context.Context, record model.SwapRecord) error
}
