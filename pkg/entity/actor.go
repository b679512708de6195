// Package entity is an in-memory host for pooled entities: Actor implements
// pool.Entity and World is a pool.Spawner with a class registry and spawn
// failure injection. It backs the simulator and the pool's tests.
package entity

import (
	"sync"

	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// Actor is a spawned entity.
type Actor struct {
	id    uint64
	class pool.Class
	world *World

	mu        sync.Mutex
	transform pool.Transform
	active    bool
	destroyed bool
	spawns    int
}

// ID returns the actor's unique identifier within its world.
func (a *Actor) ID() uint64 { return a.id }

// Class returns the class the actor was spawned from.
func (a *Actor) Class() pool.Class { return a.class }

// Activate shows the actor. It is a no-op once destroyed.
func (a *Actor) Activate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.active = true
	a.spawns++
}

// Deactivate hides the actor.
func (a *Actor) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
}

// SetLocation moves the actor.
func (a *Actor) SetLocation(v pool.Vector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.transform.Location = v
}

// Destroy removes the actor from its world. Repeated calls are ignored.
func (a *Actor) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	a.active = false
	a.mu.Unlock()

	if a.world != nil {
		a.world.destroyed.Add(1)
	}
}

// Destroyed reports whether Destroy has been called.
func (a *Actor) Destroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

// Active reports whether the actor is currently shown.
func (a *Actor) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Location returns the actor's position.
func (a *Actor) Location() pool.Vector {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transform.Location
}

// Transform returns the actor's full placement.
func (a *Actor) Transform() pool.Transform {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transform
}

// Activations counts how many times the actor has been activated, i.e. how
// often it was reused.
func (a *Actor) Activations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spawns
}
