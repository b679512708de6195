package entity

import (
	"sync"
	"sync/atomic"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// World creates actors for registered classes.
type World struct {
	mu        sync.RWMutex
	classes   map[pool.Class]struct{}
	failEvery uint64

	nextID    atomic.Uint64
	calls     atomic.Uint64
	spawned   atomic.Uint64
	destroyed atomic.Uint64
}

var _ pool.Spawner[*Actor] = (*World)(nil)

// NewWorld creates a world that knows the given classes.
func NewWorld(classes ...pool.Class) *World {
	w := &World{classes: make(map[pool.Class]struct{})}
	for _, c := range classes {
		w.Register(c)
	}
	return w
}

// Register makes class spawnable. Invalid classes are ignored.
func (w *World) Register(class pool.Class) {
	if !class.Valid() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.classes[class] = struct{}{}
}

// Registered reports whether class can be spawned.
func (w *World) Registered(class pool.Class) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.classes[class]
	return ok
}

// FailEvery makes every nth spawn call fail. 0 disables failures.
func (w *World) FailEvery(n int) {
	if n < 0 {
		n = 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failEvery = uint64(n)
}

// Spawn creates an active actor of class at the given placement.
func (w *World) Spawn(class pool.Class, at pool.Transform) (*Actor, error) {
	call := w.calls.Add(1)

	w.mu.RLock()
	_, known := w.classes[class]
	failEvery := w.failEvery
	w.mu.RUnlock()

	if !known {
		return nil, errors.New(errors.ErrorTypeNotFound, "unknown entity class").
			WithDetail("class", string(class))
	}
	if failEvery > 0 && call%failEvery == 0 {
		return nil, errors.New(errors.ErrorTypeSpawn, "spawn rejected").
			WithDetail("class", string(class)).
			WithDetail("call", call)
	}

	w.spawned.Add(1)
	return &Actor{
		id:        w.nextID.Add(1),
		class:     class,
		world:     w,
		transform: at,
		active:    true,
	}, nil
}

// SpawnCalls returns how many times Spawn has been called.
func (w *World) SpawnCalls() uint64 { return w.calls.Load() }

// Spawned returns how many actors were created.
func (w *World) Spawned() uint64 { return w.spawned.Load() }

// Destroyed returns how many actors were destroyed.
func (w *World) Destroyed() uint64 { return w.destroyed.Load() }

// Alive returns how many actors exist and have not been destroyed.
func (w *World) Alive() uint64 { return w.Spawned() - w.Destroyed() }
