// Package pool implements a frame-budgeted entity pool. It pre-allocates a
// bounded set of reusable entities, hands them out on demand, takes them back
// when released, and refills itself a few entities per tick instead of in one
// blocking pass.
//
// # Architecture
//
// A Manager owns an idle stack of entity handles and a set of counters. It
// never constructs, destroys or schedules anything itself; three small
// collaborators do that:
//
//   - Spawner[E]: creates one entity of a Class at a Transform
//   - Entity: the handle contract (activate, deactivate, locate, destroy)
//   - Scheduler: runs a callback on a later tick
//
// # Population
//
// InitializePool runs the first population batch immediately and schedules
// the rest one batch per tick, SpawnPerTick entities at a time (all at once
// when SpawnPerTick is 0). Whenever an Acquire leaves fewer than LowWaterMark
// entities idle, a replenishment loop spawns ReplenishPerTick entities per tick
// until the mark is restored. Both loops share TargetCapacity as a lifetime
// ceiling: the pool never spawns more than TargetCapacity entities.
//
// # Failure policy
//
// Nothing on the hot path returns an error. An empty pool yields (zero, false)
// from Acquire; a failed spawn is counted in Stats.SpawnFailures and retried on
// a later tick; releasing nil, destroyed or duplicate handles does nothing.
//
// # Usage
//
//	queue := tick.NewQueue()
//	world := entity.NewWorld("character")
//	cfg := config.DefaultPoolConfig()
//
//	m, err := pool.NewManager[*entity.Actor](&cfg, world, queue)
//	if err != nil {
//		return err
//	}
//	_ = m.InitializePool("character")
//
//	for frame := 0; frame < 20; frame++ {
//		queue.Tick()
//	}
//
//	actor, ok := m.SpawnAt(pool.Vector{X: 10})
//	if ok {
//		defer m.Despawn(actor)
//	}
package pool
