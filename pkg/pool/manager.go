package pool

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
)

// Manager is a bounded pool of entities of one Class. All methods are safe
// for concurrent use; Spawner and Entity methods are invoked with the
// manager's lock held and must not re-enter it.
type Manager[E Handle] struct {
	name      string
	cfg       config.PoolConfig
	spawner   Spawner[E]
	scheduler Scheduler
	transform Transform
	logger    *zap.Logger

	mu               sync.Mutex
	class            Class
	initialized      bool
	closed           bool
	replenishPending bool
	idle             []E
	idleSet          map[E]struct{}
	stats            Stats
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	name      string
	logger    *zap.Logger
	transform Transform
}

// WithName labels the manager in logs and metrics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger. The default derives from logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSpawnTransform sets where new entities are spawned.
// The default is the origin with no rotation.
func WithSpawnTransform(t Transform) Option {
	return func(o *options) { o.transform = t }
}

// NewManager creates an empty, uninitialized manager. cfg is copied.
func NewManager[E Handle](cfg *config.PoolConfig, spawner Spawner[E], scheduler Scheduler, opts ...Option) (*Manager[E], error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "pool config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if spawner == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "spawner is required")
	}
	if scheduler == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "scheduler is required")
	}

	o := options{name: "default"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}

	return &Manager[E]{
		name:      o.name,
		cfg:       *cfg,
		spawner:   spawner,
		scheduler: scheduler,
		transform: o.transform,
		logger:    o.logger.With(zap.String("component", "pool"), zap.String("pool", o.name)),
		idle:      make([]E, 0, cfg.TargetCapacity),
		idleSet:   make(map[E]struct{}, cfg.TargetCapacity),
	}, nil
}

// Name returns the manager's label.
func (m *Manager[E]) Name() string {
	return m.name
}

// Config returns the pooling policy the manager was built with.
func (m *Manager[E]) Config() config.PoolConfig {
	return m.cfg
}

// InitializePool records the class to spawn and starts initial population:
// the first batch is spawned before returning and the remainder is scheduled
// one batch per tick. An invalid class is logged and leaves a degenerate pool
// that never spawns. A second call fails with a conflict error.
func (m *Manager[E]) InitializePool(class Class) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New(errors.ErrorTypeClosed, "pool has been torn down").
			WithDetail("pool", m.name)
	}
	if m.initialized {
		m.mu.Unlock()
		return errors.New(errors.ErrorTypeConflict, "pool already initialized").
			WithDetail("pool", m.name).
			WithDetail("class", string(m.class)).
			WithDetail("total_spawned", m.stats.TotalSpawned)
	}

	m.initialized = true
	m.class = class
	if !class.Valid() {
		m.logger.Warn("invalid or no class passed to initialize pool")
	} else {
		m.logger.Info("initializing pool",
			zap.String("class", string(class)),
			zap.Int("target_capacity", m.cfg.TargetCapacity),
			zap.Int("spawn_per_tick", m.cfg.SpawnPerTick),
			zap.Int("low_water_mark", m.cfg.LowWaterMark),
			zap.Int("replenish_per_tick", m.cfg.ReplenishPerTick))
	}

	again := m.populateLocked()
	m.mu.Unlock()

	if again {
		m.scheduler.NextTick(m.populate)
	}
	return nil
}

// populate is the scheduled initial-population step.
func (m *Manager[E]) populate() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	again := m.populateLocked()
	m.mu.Unlock()

	if again {
		m.scheduler.NextTick(m.populate)
	}
}

// populateLocked spawns one initial-population batch and reports whether
// another step is needed.
func (m *Manager[E]) populateLocked() bool {
	if !m.class.Valid() {
		return false
	}

	target := int64(m.cfg.TargetCapacity)
	remaining := target - m.stats.TotalSpawned
	if remaining <= 0 {
		return false
	}

	batch := remaining
	if m.cfg.SpawnPerTick > 0 && int64(m.cfg.SpawnPerTick) < batch {
		batch = int64(m.cfg.SpawnPerTick)
	}
	m.spawnLocked(batch)

	if m.stats.TotalSpawned >= target {
		m.logger.Info("pool populated", m.stats.Fields()...)
		return false
	}
	return true
}

// replenish is the scheduled low-water-mark step.
func (m *Manager[E]) replenish() {
	m.mu.Lock()
	if m.closed {
		m.replenishPending = false
		m.mu.Unlock()
		return
	}

	lowWater := int64(m.cfg.LowWaterMark)
	target := int64(m.cfg.TargetCapacity)

	batch := min(
		int64(m.cfg.ReplenishPerTick),
		lowWater-int64(len(m.idle)),
		target-m.stats.TotalSpawned,
	)
	if batch > 0 {
		m.spawnLocked(batch)
	}

	again := int64(len(m.idle)) < lowWater && m.stats.TotalSpawned < target
	if !again {
		m.replenishPending = false
		m.logger.Debug("replenishment finished", m.stats.Fields()...)
	}
	m.mu.Unlock()

	if again {
		m.scheduler.NextTick(m.replenish)
	}
}

// triggerReplenishLocked arms the replenishment loop when the idle count is
// under the low-water mark. At most one loop is pending at a time.
func (m *Manager[E]) triggerReplenishLocked() bool {
	if m.replenishPending || !m.class.Valid() {
		return false
	}
	if len(m.idle) >= m.cfg.LowWaterMark {
		return false
	}
	if m.stats.TotalSpawned >= int64(m.cfg.TargetCapacity) {
		return false
	}
	m.replenishPending = true
	m.logger.Debug("idle count below low-water mark, replenishing",
		zap.Int("idle", len(m.idle)),
		zap.Int("low_water_mark", m.cfg.LowWaterMark))
	return true
}

func (m *Manager[E]) spawnLocked(n int64) {
	var zero E
	for i := int64(0); i < n; i++ {
		e, err := m.spawner.Spawn(m.class, m.transform)
		if err != nil || e == zero {
			m.stats.SpawnFailures++
			m.logger.Debug("spawn failed", zap.String("class", string(m.class)), zap.Error(err))
			continue
		}
		e.Deactivate()
		m.pushLocked(e)
		m.stats.TotalSpawned++
	}
}

func (m *Manager[E]) pushLocked(e E) {
	m.idle = append(m.idle, e)
	m.idleSet[e] = struct{}{}
	m.stats.Idle++
}

// Acquire pops the most recently returned entity. It returns false when the
// pool is empty; it never blocks and never spawns on demand. Either way, if
// the idle count is now below the low-water mark, replenishment is scheduled.
func (m *Manager[E]) Acquire() (E, bool) {
	var zero E

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return zero, false
	}

	e, ok := zero, false
	if n := len(m.idle); n > 0 {
		e = m.idle[n-1]
		m.idle[n-1] = zero
		m.idle = m.idle[:n-1]
		delete(m.idleSet, e)
		ok = true

		m.stats.Idle--
		m.stats.Live++
		m.stats.TotalAcquired++
		if m.stats.Live > m.stats.MaxLive {
			m.stats.MaxLive = m.stats.Live
		}
	}

	schedule := m.triggerReplenishLocked()
	m.mu.Unlock()

	if schedule {
		m.scheduler.NextTick(m.replenish)
	}
	return e, ok
}

// Release returns e to the pool, where it becomes the next entity handed out.
// Nil or destroyed handles, handles already idle, releases with nothing on
// loan and releases after teardown are silently ignored. The entity's own
// state is left as is.
func (m *Manager[E]) Release(e E) {
	var zero E
	if e == zero || e.Destroyed() {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.stats.Live == 0 {
		return
	}
	if _, idle := m.idleSet[e]; idle {
		return
	}

	m.pushLocked(e)
	m.stats.TotalReleased++
	m.stats.Live--
}

// SpawnAt acquires an entity, moves it to location and activates it.
func (m *Manager[E]) SpawnAt(location Vector) (E, bool) {
	e, ok := m.Acquire()
	if ok {
		e.SetLocation(location)
		e.Activate()
	}
	return e, ok
}

// Despawn deactivates e and returns it to the pool. Use it instead of
// destroying pooled entities.
func (m *Manager[E]) Despawn(e E) {
	var zero E
	if e == zero || e.Destroyed() {
		return
	}
	e.Deactivate()
	m.Release(e)
}

// Stats returns a snapshot of the counters. After Teardown it keeps
// returning the last values.
func (m *Manager[E]) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// LogStats writes the current counters to the manager's logger.
func (m *Manager[E]) LogStats() {
	m.logger.Info("pool stats", m.Stats().Fields()...)
}

// Populated reports whether the lifetime spawn ceiling has been reached.
func (m *Manager[E]) Populated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.TotalSpawned >= int64(m.cfg.TargetCapacity)
}

// Closed reports whether Teardown has run.
func (m *Manager[E]) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Teardown destroys every idle entity that is not already destroyed and
// stops the manager: scheduled steps become no-ops and Acquire, Release and
// InitializePool stop doing anything. Entities on loan are not tracked and are
// left to their holders. Teardown is idempotent.
func (m *Manager[E]) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for _, e := range m.idle {
		if !e.Destroyed() {
			e.Destroy()
			m.stats.Destroyed++
		}
	}
	m.idle = nil
	m.idleSet = nil

	m.logger.Info("pool torn down", m.stats.Fields()...)
}
