// Package config provides configuration management for spawnpool.
//
// # Key Features
//
// - Config: single root document covering pool policy, simulation, observability and trace export
// - Environment variable substitution with ${VAR_NAME} syntax in YAML files
// - viper integration: SPAWNPOOL_* environment overrides and bound CLI flags
// - Automatic defaults and typed validation errors
//
// # Usage
//
// ## Loading a YAML file
//
//	cfg, err := config.LoadFile("pool.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Resolving through viper
//
//	v := config.NewViper()
//	v.SetConfigFile("pool.yaml")
//	_ = v.BindPFlag("pool.spawn_per_tick", cmd.Flags().Lookup("spawn-per-tick"))
//	cfg, err := config.FromViper(v)
//
// ## Environment Variable Substitution
//
//	# pool.yaml
//	name: characters
//	pool:
//	  target_capacity: ${POOL_CAPACITY}
//
// # Pool policy
//
// The pool section is immutable once a manager is built from it:
//
//	pool:
//	  target_capacity: 2000    # lifetime spawn ceiling
//	  spawn_per_tick: 100      # initial population budget per tick, 0 = all at once
//	  low_water_mark: 1500     # replenish when fewer are idle, 0 = never
//	  replenish_per_tick: 1    # replenishment budget per tick
package config
