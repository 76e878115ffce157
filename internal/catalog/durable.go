package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SnapshotStore persists the encoded store between process lifetimes.
type SnapshotStore interface {
	Save(ctx context.Context, body []byte) error
	Load(ctx context.Context) (body []byte, ok bool, err error)
	Ping(ctx context.Context) error
}

// Durable binds a Store to the SnapshotStore it is restored from at startup
// and saved to at shutdown. It is never invoked mid-operation.
type Durable struct {
	Store     *Store
	Snapshots SnapshotStore
	Log       *zap.Logger
}

// Restore loads the latest snapshot into d.Store. A missing snapshot leaves
// the store empty.
func (d *Durable) Restore(ctx context.Context) error {
	body, ok, err := d.Snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		d.logger().Info("no snapshot found, starting with empty catalog")
		return nil
	}

	snap, err := Decode(body)
	if err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if err := d.Store.Load(snap); err != nil {
		return err
	}

	d.logger().Info("catalog restored",
		zap.Time("taken_at", snap.TakenAt),
		zap.Uint64("next_id", snap.NextID),
		zap.Int("listings", len(snap.Listings)),
		zap.Int("purchases", len(snap.Purchases)),
	)
	return nil
}

// Save encodes the whole store and hands it to the snapshot backend.
func (d *Durable) Save(ctx context.Context) error {
	snap := d.Store.Snapshot()

	body, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := d.Snapshots.Save(ctx, body); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	d.logger().Info("catalog saved",
		zap.Uint64("next_id", snap.NextID),
		zap.Int("listings", len(snap.Listings)),
		zap.Int("purchases", len(snap.Purchases)),
		zap.Int("bytes", len(body)),
	)
	return nil
}

func (d *Durable) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
