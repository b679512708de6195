package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// SPAWNPOOL_POOL_TARGET_CAPACITY=500.
const EnvPrefix = "SPAWNPOOL"

// NewViper returns a viper instance seeded with every key of NewDefault so
// that environment variables and bound flags resolve for all of them.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, NewDefault("default"))
	return v
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("name", d.Name)

	v.SetDefault("pool.target_capacity", d.Pool.TargetCapacity)
	v.SetDefault("pool.spawn_per_tick", d.Pool.SpawnPerTick)
	v.SetDefault("pool.low_water_mark", d.Pool.LowWaterMark)
	v.SetDefault("pool.replenish_per_tick", d.Pool.ReplenishPerTick)

	v.SetDefault("simulation.ticks", d.Simulation.Ticks)
	v.SetDefault("simulation.tick_interval", d.Simulation.TickInterval)
	v.SetDefault("simulation.class", d.Simulation.Class)
	v.SetDefault("simulation.acquire_per_tick", d.Simulation.AcquirePerTick)
	v.SetDefault("simulation.release_per_tick", d.Simulation.ReleasePerTick)
	v.SetDefault("simulation.spawn_fail_every", d.Simulation.SpawnFailEvery)
	v.SetDefault("simulation.seed", d.Simulation.Seed)

	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_format", d.Observability.LogFormat)
	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
	v.SetDefault("observability.metrics_addr", d.Observability.MetricsAddr)

	v.SetDefault("trace.path", d.Trace.Path)
	v.SetDefault("trace.compression", d.Trace.Compression)
}

// FromViper resolves a Config from v: the config file (if one was set with
// SetConfigFile), then environment, then bound flags, over the defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
				WithDetail("path", v.ConfigFileUsed())
		}
	}

	cfg := NewDefault("default")
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
