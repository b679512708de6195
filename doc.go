// Package spawnpool provides a frame-budgeted entity pool: a bounded set of
// reusable entities that is populated a few entities per tick, handed out and
// taken back without allocation, and topped up again when it runs low.
//
// # Architecture
//
// The pool itself knows nothing about how entities are built or when ticks
// happen. It talks to its host through three small interfaces:
//
//   - pool.Spawner creates one entity of a class
//   - pool.Entity is the handle contract (activate, deactivate, locate, destroy)
//   - pool.Scheduler runs a callback on a later tick
//
// The pkg/tick package provides a cooperative Scheduler and a fixed-rate
// driver for it, and pkg/entity an in-memory host. Together they let the
// simulate command run a pool the way a game loop would.
//
// # Quick Start
//
//	queue := tick.NewQueue()
//	world := entity.NewWorld("character")
//	cfg := config.DefaultPoolConfig()
//
//	m, _ := pool.NewManager[*entity.Actor](&cfg, world, queue)
//	_ = m.InitializePool("character")
//
//	// once per frame
//	queue.Tick()
//
//	actor, ok := m.SpawnAt(pool.Vector{X: 10})
//	if ok {
//		defer m.Despawn(actor)
//	}
//
// # Package Organization
//
//   - pkg/pool: the pool manager
//   - pkg/tick: next-tick queue and tick loop
//   - pkg/entity: in-memory actors and world
//   - pkg/config: YAML, environment and flag configuration
//   - pkg/errors: typed errors
//   - pkg/logger: structured logging with zap
//   - pkg/metrics: Prometheus collectors
//   - pkg/observability: OpenTelemetry tracing
//   - pkg/compression: codecs for trace export
//   - pkg/performance: process resource sampling
//   - internal/simulation: the synthetic host loop behind `spawnpool simulate`
//   - internal/recorder: tick-by-tick statistics traces
//
// # Command Line
//
//	spawnpool simulate --ticks 600 --tick-interval 16ms
//	spawnpool config --target-capacity 500 --output pool.yaml
//	spawnpool version
package spawnpool
