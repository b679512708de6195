package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/spawnpool/pkg/config"
)

// ExampleNewDefault demonstrates creating a configuration with default values.
func ExampleNewDefault() {
	cfg := config.NewDefault("characters")

	fmt.Printf("Target Capacity: %d\n", cfg.Pool.TargetCapacity)
	fmt.Printf("Spawn Per Tick: %d\n", cfg.Pool.SpawnPerTick)
	fmt.Printf("Low Water Mark: %d\n", cfg.Pool.LowWaterMark)
	fmt.Printf("Tick Interval: %s\n", cfg.Simulation.TickInterval)

	// Output:
	// Target Capacity: 2000
	// Spawn Per Tick: 100
	// Low Water Mark: 1500
	// Tick Interval: 16ms
}

// ExampleConfig_Validate shows how to validate a configuration before using it.
func ExampleConfig_Validate() {
	cfg := config.NewDefault("projectiles")
	cfg.Pool.TargetCapacity = 500
	cfg.Pool.SpawnPerTick = 0
	cfg.Pool.LowWaterMark = 0

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Pool.LowWaterMark = 100
	cfg.Pool.ReplenishPerTick = 0
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: replenish_per_tick must be positive when low_water_mark is set
}
