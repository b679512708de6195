package pool

import (
	"fmt"

	"go.uber.org/zap"
)

// Stats is a point-in-time snapshot of a Manager's counters.
type Stats struct {
	// Idle is the number of entities in the pool ready to be handed out
	Idle int64 `json:"idle"`
	// Live is the number of entities currently handed out
	Live int64 `json:"live"`
	// MaxLive is the highest Live has ever been
	MaxLive int64 `json:"max_live"`
	// TotalAcquired counts successful Acquire calls
	TotalAcquired int64 `json:"total_acquired"`
	// TotalReleased counts accepted Release calls
	TotalReleased int64 `json:"total_released"`
	// TotalSpawned counts entities the pool has created, across initial
	// population and replenishment
	TotalSpawned int64 `json:"total_spawned"`
	// SpawnFailures counts spawn attempts that produced no entity
	SpawnFailures int64 `json:"spawn_failures"`
	// Destroyed counts idle entities destroyed by Teardown
	Destroyed int64 `json:"destroyed"`
}

// Fields renders the snapshot as zap fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("idle", s.Idle),
		zap.Int64("live", s.Live),
		zap.Int64("max_live", s.MaxLive),
		zap.Int64("total_acquired", s.TotalAcquired),
		zap.Int64("total_released", s.TotalReleased),
		zap.Int64("total_spawned", s.TotalSpawned),
		zap.Int64("spawn_failures", s.SpawnFailures),
		zap.Int64("destroyed", s.Destroyed),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("idle=%d live=%d max_live=%d acquired=%d released=%d spawned=%d spawn_failures=%d destroyed=%d",
		s.Idle, s.Live, s.MaxLive, s.TotalAcquired, s.TotalReleased, s.TotalSpawned, s.SpawnFailures, s.Destroyed)
}
