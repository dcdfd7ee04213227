package health

import (
	"context"

	"github.com/lumenpress/discovery/internal/domain/trending"
)

// DBPinger checks store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SnapshotSource exposes the current trending snapshot per timeframe.
type SnapshotSource interface {
	Snapshot(tf trending.Timeframe) *trending.Snapshot
}
