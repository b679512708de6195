package pool

// Vector is a position in world space.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotator is an orientation in degrees.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Transform is where a freshly spawned entity is placed.
type Transform struct {
	Location Vector  `json:"location"`
	Rotation Rotator `json:"rotation"`
}

// Class identifies the entity template a pool instantiates.
// The empty Class is invalid.
type Class string

// Valid reports whether c names a class.
func (c Class) Valid() bool {
	return c != ""
}

// Entity is the capability contract of a pooled handle.
type Entity interface {
	// Activate makes the entity visible and ticking.
	Activate()
	// Deactivate parks the entity while it sits in the pool.
	Deactivate()
	// SetLocation moves the entity.
	SetLocation(Vector)
	// Destroy invalidates the entity. It must be idempotent.
	Destroy()
	// Destroyed reports whether Destroy was called, by the pool or anyone else.
	Destroyed() bool
}

// Handle is the constraint on pooled types: an Entity that can be compared,
// which in practice means a pointer.
type Handle interface {
	comparable
	Entity
}

// Spawner is the host's construction primitive. Spawn must be synchronous and
// must not call back into the Manager.
type Spawner[E Handle] interface {
	Spawn(class Class, at Transform) (E, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc[E Handle] func(class Class, at Transform) (E, error)

// Spawn calls f.
func (f SpawnerFunc[E]) Spawn(class Class, at Transform) (E, error) {
	return f(class, at)
}

// Scheduler runs fn exactly once on a later tick, on the same logical thread
// as the rest of the pool's callers, and never after its owner is gone.
type Scheduler interface {
	NextTick(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// NextTick calls f.
func (f SchedulerFunc) NextTick(fn func()) {
	f(fn)
}
