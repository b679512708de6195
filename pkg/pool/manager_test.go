package pool_test

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
	"github.com/ajitpratap0/spawnpool/pkg/tick"
)

const class pool.Class = "character"

type harness struct {
	m     *pool.Manager[*entity.Actor]
	world *entity.World
	queue *tick.Queue
}

func newHarness(t *testing.T, cfg config.PoolConfig, opts ...pool.Option) *harness {
	t.Helper()
	world := entity.NewWorld(class)
	queue := tick.NewQueue()
	opts = append([]pool.Option{pool.WithLogger(zaptest.NewLogger(t)), pool.WithName(t.Name())}, opts...)
	m, err := pool.NewManager[*entity.Actor](&cfg, world, queue, opts...)
	require.NoError(t, err)
	return &harness{m: m, world: world, queue: queue}
}

func requireInvariants(t *testing.T, s pool.Stats, target int) {
	t.Helper()
	require.GreaterOrEqual(t, s.Idle, int64(0))
	require.GreaterOrEqual(t, s.Live, int64(0))
	require.LessOrEqual(t, s.Live, s.MaxLive)
	require.Equal(t, s.Live, s.TotalAcquired-s.TotalReleased)
	require.LessOrEqual(t, s.TotalSpawned, int64(target))
}

func TestNewManager_Validation(t *testing.T) {
	cfg := config.DefaultPoolConfig()
	world := entity.NewWorld(class)
	queue := tick.NewQueue()

	_, err := pool.NewManager[*entity.Actor](nil, world, queue)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = pool.NewManager[*entity.Actor](&cfg, nil, queue)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = pool.NewManager[*entity.Actor](&cfg, world, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	bad := cfg
	bad.SpawnPerTick = -1
	_, err = pool.NewManager[*entity.Actor](&bad, world, queue)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestInitialPopulation_BudgetedPerTick(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 2000, SpawnPerTick: 100})

	require.NoError(t, h.m.InitializePool(class))
	trace := []int64{h.m.Stats().TotalSpawned}
	for h.queue.Pending() > 0 {
		h.queue.Tick()
		trace = append(trace, h.m.Stats().TotalSpawned)
	}

	require.Len(t, trace, 20)
	for i, spawned := range trace {
		assert.Equal(t, int64(100*(i+1)), spawned, "tick %d", i+1)
	}
	assert.True(t, h.m.Populated())
	assert.Equal(t, int64(2000), h.m.Stats().Idle)
	assert.Equal(t, uint64(2000), h.world.Spawned())
}

func TestInitialPopulation_UnboundedPerTick(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 2000, SpawnPerTick: 0})

	require.NoError(t, h.m.InitializePool(class))
	s := h.m.Stats()
	assert.Equal(t, int64(2000), s.TotalSpawned)
	assert.Equal(t, int64(2000), s.Idle)
	assert.Equal(t, 0, h.queue.Pending())
}

func TestInitialPopulation_EntitiesAreDeactivated(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 5})
	require.NoError(t, h.m.InitializePool(class))

	for i := 0; i < 5; i++ {
		a, ok := h.m.Acquire()
		require.True(t, ok)
		assert.False(t, a.Active())
	}
}

func TestInitializePool_Twice(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 10})
	require.NoError(t, h.m.InitializePool(class))

	err := h.m.InitializePool(class)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	assert.Equal(t, int64(10), h.m.Stats().TotalSpawned)
}

func TestInitializePool_InvalidClass(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 10, LowWaterMark: 5, ReplenishPerTick: 1})

	require.NoError(t, h.m.InitializePool(""))
	assert.Equal(t, 0, h.queue.Pending())
	assert.Equal(t, uint64(0), h.world.SpawnCalls())

	_, ok := h.m.Acquire()
	assert.False(t, ok)
	assert.Equal(t, 0, h.queue.Pending())
	assert.Equal(t, pool.Stats{}, h.m.Stats())
}

func TestInitializePool_ZeroCapacity(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 0, LowWaterMark: 5, ReplenishPerTick: 1})

	require.NoError(t, h.m.InitializePool(class))
	_, ok := h.m.Acquire()
	assert.False(t, ok)
	assert.Equal(t, 0, h.queue.Pending())
	assert.True(t, h.m.Populated())
}

func TestInitialPopulation_SpawnFailuresRetriedLater(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 10})
	h.world.FailEvery(2)

	require.NoError(t, h.m.InitializePool(class))
	s := h.m.Stats()
	assert.Equal(t, int64(5), s.TotalSpawned)
	assert.Equal(t, int64(5), s.SpawnFailures)
	assert.Equal(t, 1, h.queue.Pending())

	h.queue.Drain(100)
	s = h.m.Stats()
	assert.Equal(t, int64(10), s.TotalSpawned)
	assert.Equal(t, int64(10), s.Idle)
	assert.Equal(t, int64(h.world.SpawnCalls())-10, s.SpawnFailures)
}

func TestAcquire_Empty(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 1})
	require.NoError(t, h.m.InitializePool(class))

	_, ok := h.m.Acquire()
	require.True(t, ok)

	a, ok := h.m.Acquire()
	assert.False(t, ok)
	assert.Nil(t, a)
	s := h.m.Stats()
	assert.Equal(t, int64(1), s.Live)
	assert.Equal(t, int64(0), s.Idle)
	assert.Equal(t, int64(1), s.TotalAcquired)
}

func TestAcquire_LIFO(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 3})
	require.NoError(t, h.m.InitializePool(class))

	a, _ := h.m.Acquire()
	b, _ := h.m.Acquire()
	require.NotSame(t, a, b)

	h.m.Release(a)
	h.m.Release(b)

	got, ok := h.m.Acquire()
	require.True(t, ok)
	assert.Same(t, b, got)

	got, ok = h.m.Acquire()
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestAcquire_MaxLive(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 5})
	require.NoError(t, h.m.InitializePool(class))

	var held []*entity.Actor
	for i := 0; i < 4; i++ {
		a, ok := h.m.Acquire()
		require.True(t, ok)
		held = append(held, a)
	}
	for _, a := range held {
		h.m.Release(a)
	}
	_, _ = h.m.Acquire()

	s := h.m.Stats()
	assert.Equal(t, int64(4), s.MaxLive)
	assert.Equal(t, int64(1), s.Live)
}

func TestRelease_Invalid(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 3})
	require.NoError(t, h.m.InitializePool(class))

	a, ok := h.m.Acquire()
	require.True(t, ok)
	before := h.m.Stats()

	h.m.Release(nil)
	assert.Equal(t, before, h.m.Stats())

	h.m.Release(a)
	after := h.m.Stats()
	assert.Equal(t, before.Idle+1, after.Idle)

	h.m.Release(a)
	assert.Equal(t, after, h.m.Stats(), "duplicate release must be ignored")

	b, ok := h.m.Acquire()
	require.True(t, ok)
	b.Destroy()
	before = h.m.Stats()
	h.m.Release(b)
	assert.Equal(t, before, h.m.Stats(), "destroyed handle must be ignored")
}

func TestRelease_NothingOnLoan(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 1})
	require.NoError(t, h.m.InitializePool(class))

	stranger, err := h.world.Spawn(class, pool.Transform{})
	require.NoError(t, err)

	before := h.m.Stats()
	h.m.Release(stranger)
	assert.Equal(t, before, h.m.Stats())
}

func TestRelease_KeepsEntityState(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 1})
	require.NoError(t, h.m.InitializePool(class))

	a, ok := h.m.SpawnAt(pool.Vector{X: 3})
	require.True(t, ok)
	h.m.Release(a)

	got, ok := h.m.Acquire()
	require.True(t, ok)
	assert.True(t, got.Active())
	assert.Equal(t, pool.Vector{X: 3}, got.Location())
}

func TestReplenish_TriggeredBelowLowWaterMark(t *testing.T) {
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   2000,
		SpawnPerTick:     10,
		LowWaterMark:     100,
		ReplenishPerTick: 1,
	})
	require.NoError(t, h.m.InitializePool(class))
	require.Equal(t, int64(10), h.m.Stats().TotalSpawned)

	_, ok := h.m.Acquire()
	require.True(t, ok)
	require.Equal(t, 2, h.queue.Pending(), "population step and one replenishment step")

	h.queue.Tick()
	s := h.m.Stats()
	assert.Equal(t, int64(21), s.TotalSpawned, "10 from population plus 1 from replenishment")
	assert.Equal(t, int64(20), s.Idle)

	h.queue.Tick()
	assert.Equal(t, int64(32), h.m.Stats().TotalSpawned)

	h.queue.Drain(0)
	s = h.m.Stats()
	assert.Equal(t, int64(2000), s.TotalSpawned)
	requireInvariants(t, s, 2000)
}

func TestReplenish_StopsAtLowWaterMark(t *testing.T) {
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   3000,
		SpawnPerTick:     1500,
		LowWaterMark:     1500,
		ReplenishPerTick: 1,
	})
	require.NoError(t, h.m.InitializePool(class))
	for i := 0; i < 2; i++ {
		_, ok := h.m.Acquire()
		require.True(t, ok)
	}
	require.Equal(t, int64(1498), h.m.Stats().Idle)

	// Population and replenishment both run on the next tick.
	h.queue.Tick()
	s := h.m.Stats()
	assert.Equal(t, int64(3000), s.TotalSpawned)
	assert.Equal(t, int64(2998), s.Idle)
	assert.Equal(t, 0, h.queue.Pending())
}

func TestReplenish_OneArmedLoop(t *testing.T) {
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   100,
		SpawnPerTick:     5,
		LowWaterMark:     50,
		ReplenishPerTick: 1,
	})
	require.NoError(t, h.m.InitializePool(class))

	for i := 0; i < 5; i++ {
		_, ok := h.m.Acquire()
		require.True(t, ok)
	}
	assert.Equal(t, 2, h.queue.Pending())
}

func TestReplenish_CeilingLaw(t *testing.T) {
	const target = 500
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   target,
		SpawnPerTick:     20,
		LowWaterMark:     target,
		ReplenishPerTick: 50,
	})
	require.NoError(t, h.m.InitializePool(class))

	rng := rand.New(rand.NewSource(7))
	var live []*entity.Actor
	for i := 0; i < 200; i++ {
		for j := rng.Intn(30); j > 0; j-- {
			if a, ok := h.m.Acquire(); ok {
				live = append(live, a)
			}
		}
		for j := rng.Intn(30); j > 0 && len(live) > 0; j-- {
			k := rng.Intn(len(live))
			h.m.Release(live[k])
			live = append(live[:k], live[k+1:]...)
		}
		h.queue.Tick()
		requireInvariants(t, h.m.Stats(), target)
	}

	assert.Equal(t, int64(target), h.m.Stats().TotalSpawned)
	assert.Equal(t, uint64(target), h.world.Spawned())
	assert.Equal(t, 0, h.queue.Pending())
}

func TestReplenish_Disabled(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 10, SpawnPerTick: 5})
	require.NoError(t, h.m.InitializePool(class))

	for i := 0; i < 5; i++ {
		_, ok := h.m.Acquire()
		require.True(t, ok)
	}
	assert.Equal(t, 1, h.queue.Pending(), "only the population step")
}

func TestTeardown(t *testing.T) {
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   100,
		SpawnPerTick:     10,
		LowWaterMark:     10,
		ReplenishPerTick: 1,
	})
	require.NoError(t, h.m.InitializePool(class))

	held, ok := h.m.Acquire()
	require.True(t, ok)
	idle, ok := h.m.Acquire()
	require.True(t, ok)
	h.m.Release(idle)
	idle.Destroy()

	before := h.m.Stats()
	calls := h.world.SpawnCalls()
	h.m.Teardown()

	s := h.m.Stats()
	assert.Equal(t, before.Idle-1, s.Destroyed, "already destroyed handles are skipped")
	assert.Equal(t, before.TotalSpawned, s.TotalSpawned)
	assert.Equal(t, before.Idle, s.Idle, "statistics are frozen")
	assert.False(t, held.Destroyed(), "live handles are left to their holders")
	assert.True(t, h.m.Closed())

	h.queue.Drain(50)
	assert.Equal(t, calls, h.world.SpawnCalls())

	_, ok = h.m.Acquire()
	assert.False(t, ok)
	h.m.Release(held)
	assert.Equal(t, s, h.m.Stats())

	err := h.m.InitializePool(class)
	assert.True(t, errors.IsType(err, errors.ErrorTypeClosed))

	h.m.Teardown()
	assert.Equal(t, s, h.m.Stats())
	assert.Equal(t, calls, h.world.SpawnCalls())
}

func TestSpawnAtAndDespawn(t *testing.T) {
	at := pool.Transform{Location: pool.Vector{Z: 100}}
	h := newHarness(t, config.PoolConfig{TargetCapacity: 2}, pool.WithSpawnTransform(at))
	require.NoError(t, h.m.InitializePool(class))

	a, ok := h.m.SpawnAt(pool.Vector{X: 1, Y: 2})
	require.True(t, ok)
	assert.True(t, a.Active())
	assert.Equal(t, pool.Vector{X: 1, Y: 2}, a.Location())
	assert.Equal(t, 1, a.Activations())

	h.m.Despawn(a)
	assert.False(t, a.Active())
	assert.Equal(t, int64(0), h.m.Stats().Live)

	h.m.Despawn(nil)

	b, ok := h.m.Acquire()
	require.True(t, ok)
	assert.Same(t, a, b)

	c, ok := h.m.Acquire()
	require.True(t, ok)
	assert.Equal(t, at.Location, c.Location())
}

func TestStats_String(t *testing.T) {
	h := newHarness(t, config.PoolConfig{TargetCapacity: 2})
	require.NoError(t, h.m.InitializePool(class))
	_, _ = h.m.Acquire()
	h.m.LogStats()

	assert.Equal(t,
		"idle=1 live=1 max_live=1 acquired=1 released=0 spawned=2 spawn_failures=0 destroyed=0",
		h.m.Stats().String())
	assert.Len(t, h.m.Stats().Fields(), 8)
}

func TestManager_Concurrent(t *testing.T) {
	const target = 1000
	h := newHarness(t, config.PoolConfig{
		TargetCapacity:   target,
		SpawnPerTick:     50,
		LowWaterMark:     200,
		ReplenishPerTick: 10,
	})
	require.NoError(t, h.m.InitializePool(class))

	done := make(chan struct{})
	var ticker sync.WaitGroup
	ticker.Add(1)
	go func() {
		defer ticker.Done()
		for {
			select {
			case <-done:
				return
			default:
				h.queue.Tick()
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			var live []*entity.Actor
			for i := 0; i < 500; i++ {
				if rng.Intn(2) == 0 {
					if a, ok := h.m.Acquire(); ok {
						live = append(live, a)
					}
				} else if len(live) > 0 {
					h.m.Release(live[len(live)-1])
					live = live[:len(live)-1]
				}
			}
			for _, a := range live {
				h.m.Release(a)
			}
		}(int64(w))
	}
	wg.Wait()
	close(done)
	ticker.Wait()

	s := h.m.Stats()
	requireInvariants(t, s, target)
	assert.Equal(t, int64(0), s.Live)
	assert.Equal(t, s.TotalSpawned, s.Idle)
}
