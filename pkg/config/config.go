package config

import (
	"time"

	"github.com/ajitpratap0/spawnpool/pkg/compression"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

// Config is the root configuration document.
type Config struct {
	// Name identifies the pool instance in logs and metrics
	Name string `yaml:"name" json:"name" mapstructure:"name"`

	// Pool holds the pooling policy
	Pool PoolConfig `yaml:"pool" json:"pool" mapstructure:"pool"`

	// Simulation configures the host loop used by `spawnpool simulate`
	Simulation SimulationConfig `yaml:"simulation" json:"simulation" mapstructure:"simulation"`

	// Observability settings for logging, tracing and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`

	// Trace controls export of the per-tick statistics trace
	Trace TraceConfig `yaml:"trace" json:"trace" mapstructure:"trace"`
}

// PoolConfig is the pooling policy. It is read once when a pool manager is
// created and treated as immutable afterwards.
type PoolConfig struct {
	// TargetCapacity is the total number of entities the pool spawns over its lifetime
	TargetCapacity int `yaml:"target_capacity" json:"target_capacity" mapstructure:"target_capacity"`
	// SpawnPerTick caps spawns per tick during initial population; 0 spawns everything in one tick
	SpawnPerTick int `yaml:"spawn_per_tick" json:"spawn_per_tick" mapstructure:"spawn_per_tick"`
	// LowWaterMark is the idle count below which replenishment starts; 0 disables it
	LowWaterMark int `yaml:"low_water_mark" json:"low_water_mark" mapstructure:"low_water_mark"`
	// ReplenishPerTick caps spawns per tick during replenishment
	ReplenishPerTick int `yaml:"replenish_per_tick" json:"replenish_per_tick" mapstructure:"replenish_per_tick"`
}

// SimulationConfig describes the synthetic host workload.
type SimulationConfig struct {
	// Ticks is the number of ticks to run
	Ticks int `yaml:"ticks" json:"ticks" mapstructure:"ticks"`
	// TickInterval is the wall-clock length of a tick; 0 runs ticks back to back
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval" mapstructure:"tick_interval"`
	// Class is the entity class the pool is initialized with
	Class string `yaml:"class" json:"class" mapstructure:"class"`
	// AcquirePerTick is how many entities the host requests each tick
	AcquirePerTick int `yaml:"acquire_per_tick" json:"acquire_per_tick" mapstructure:"acquire_per_tick"`
	// ReleasePerTick is how many live entities the host returns each tick
	ReleasePerTick int `yaml:"release_per_tick" json:"release_per_tick" mapstructure:"release_per_tick"`
	// SpawnFailEvery makes every Nth spawn fail; 0 disables failure injection
	SpawnFailEvery int `yaml:"spawn_fail_every" json:"spawn_fail_every" mapstructure:"spawn_fail_every"`
	// Seed feeds the workload's random source
	Seed int64 `yaml:"seed" json:"seed" mapstructure:"seed"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogFormat selects the zap encoding (json, console)
	LogFormat string `yaml:"log_format" json:"log_format" mapstructure:"log_format"`
	// EnableTracing activates span export for scheduled pool steps
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	// MetricsAddr serves Prometheus metrics when non-empty (e.g. ":9090")
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr" mapstructure:"metrics_addr"`
}

// TraceConfig controls the per-tick statistics trace.
type TraceConfig struct {
	// Path is the output file; empty disables export
	Path string `yaml:"path" json:"path" mapstructure:"path"`
	// Compression selects the codec (none, gzip, snappy, lz4, zstd, s2)
	Compression string `yaml:"compression" json:"compression" mapstructure:"compression"`
}

// DefaultPoolConfig mirrors the stock pool: 2000 entities, 100 per tick,
// replenish one per tick once fewer than 1500 are idle.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		TargetCapacity:   2000,
		SpawnPerTick:     100,
		LowWaterMark:     1500,
		ReplenishPerTick: 1,
	}
}

// NewDefault creates a Config with sensible defaults.
func NewDefault(name string) *Config {
	return &Config{
		Name: name,
		Pool: DefaultPoolConfig(),
		Simulation: SimulationConfig{
			Ticks:          600,
			TickInterval:   16 * time.Millisecond,
			Class:          "character",
			AcquirePerTick: 20,
			ReleasePerTick: 15,
			SpawnFailEvery: 0,
			Seed:           1,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogFormat:         "json",
			EnableTracing:     false,
			TracingSampleRate: 1.0,
		},
		Trace: TraceConfig{
			Compression: string(compression.None),
		},
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "tracing_sample_rate must be within [0, 1]").
			WithDetail("tracing_sample_rate", c.Observability.TracingSampleRate)
	}
	if _, err := compression.ParseAlgorithm(c.Trace.Compression); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid trace compression")
	}
	return nil
}

// Validate checks the pooling policy.
func (p *PoolConfig) Validate() error {
	if p.TargetCapacity < 0 {
		return errors.New(errors.ErrorTypeConfig, "target_capacity cannot be negative").
			WithDetail("target_capacity", p.TargetCapacity)
	}
	if p.SpawnPerTick < 0 {
		return errors.New(errors.ErrorTypeConfig, "spawn_per_tick cannot be negative").
			WithDetail("spawn_per_tick", p.SpawnPerTick)
	}
	if p.LowWaterMark < 0 {
		return errors.New(errors.ErrorTypeConfig, "low_water_mark cannot be negative").
			WithDetail("low_water_mark", p.LowWaterMark)
	}
	if p.ReplenishPerTick < 0 {
		return errors.New(errors.ErrorTypeConfig, "replenish_per_tick cannot be negative").
			WithDetail("replenish_per_tick", p.ReplenishPerTick)
	}
	if p.LowWaterMark > 0 && p.ReplenishPerTick == 0 {
		return errors.New(errors.ErrorTypeConfig, "replenish_per_tick must be positive when low_water_mark is set").
			WithDetail("low_water_mark", p.LowWaterMark)
	}
	return nil
}

// ReplenishEnabled reports whether the low-water mark is active.
func (p *PoolConfig) ReplenishEnabled() bool {
	return p.LowWaterMark > 0
}

// Validate checks the simulation workload.
func (s *SimulationConfig) Validate() error {
	if s.Ticks < 0 {
		return errors.New(errors.ErrorTypeConfig, "ticks cannot be negative")
	}
	if s.TickInterval < 0 {
		return errors.New(errors.ErrorTypeConfig, "tick_interval cannot be negative")
	}
	if s.AcquirePerTick < 0 || s.ReleasePerTick < 0 {
		return errors.New(errors.ErrorTypeConfig, "acquire_per_tick and release_per_tick cannot be negative")
	}
	if s.SpawnFailEvery < 0 {
		return errors.New(errors.ErrorTypeConfig, "spawn_fail_every cannot be negative")
	}
	return nil
}
