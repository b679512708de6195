// Package testutil provides testing utilities for spawnpool
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/spawnpool/pkg/config"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// TestConfig returns a small, fast configuration: a 200 entity pool
// populated 20 per tick and ticks run back to back.
func TestConfig(name string) *config.Config {
	cfg := config.NewDefault(name)
	cfg.Pool = config.PoolConfig{
		TargetCapacity:   200,
		SpawnPerTick:     20,
		LowWaterMark:     100,
		ReplenishPerTick: 5,
	}
	cfg.Simulation.Ticks = 60
	cfg.Simulation.TickInterval = 0
	cfg.Simulation.AcquirePerTick = 8
	cfg.Simulation.ReleasePerTick = 6
	return cfg
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
