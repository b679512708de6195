package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/spawnpool/internal/recorder"
	"github.com/ajitpratap0/spawnpool/pkg/compression"
	"github.com/ajitpratap0/spawnpool/pkg/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var fastFlags = []string{
	"--ticks", "12",
	"--tick-interval", "0s",
	"--target-capacity", "60",
	"--spawn-per-tick", "10",
	"--low-water-mark", "20",
	"--replenish-per-tick", "2",
	"--acquire-per-tick", "4",
	"--release-per-tick", "3",
	"--log-level", "error",
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "spawnpool v"+version)
}

func TestConfig_PrintsResolvedYAML(t *testing.T) {
	out, err := execute(t, "config", "--target-capacity", "500", "--name", "characters")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, config.Load(writeTemp(t, "out.yaml", out), &cfg))
	assert.Equal(t, "characters", cfg.Name)
	assert.Equal(t, 500, cfg.Pool.TargetCapacity)
	assert.Equal(t, 100, cfg.Pool.SpawnPerTick)
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("SPAWNPOOL_POOL_LOW_WATER_MARK", "42")

	path := filepath.Join(t.TempDir(), "pool.yaml")
	_, err := execute(t, "config", "--output", path)
	require.NoError(t, err)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Pool.LowWaterMark)
}

func TestConfig_FileThenFlags(t *testing.T) {
	path := writeTemp(t, "pool.yaml", `
name: from-file
pool:
  target_capacity: 300
  spawn_per_tick: 30
`)
	out, err := execute(t, "config", "--config", path, "--spawn-per-tick", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "name: from-file")
	assert.Contains(t, out, "target_capacity: 300")
	assert.Contains(t, out, "spawn_per_tick: 50")
}

func TestConfig_Invalid(t *testing.T) {
	_, err := execute(t, "config", "--spawn-per-tick", "-1")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "trace.jsonl.lz4")
	args := append([]string{"simulate"}, fastFlags...)
	args = append(args, "--trace-path", tracePath, "--trace-compression", "lz4")

	out, err := execute(t, args...)
	require.NoError(t, err)

	var report struct {
		Ticks uint64 `json:"ticks"`
		Final struct {
			Live         int64 `json:"live"`
			TotalSpawned int64 `json:"total_spawned"`
			Destroyed    int64 `json:"destroyed"`
		} `json:"final"`
		TracePath string `json:"trace_path"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, uint64(12), report.Ticks)
	assert.Equal(t, int64(0), report.Final.Live)
	assert.Equal(t, int64(60), report.Final.TotalSpawned)
	assert.Equal(t, report.Final.TotalSpawned, report.Final.Destroyed)
	assert.Equal(t, tracePath, report.TracePath)

	samples, err := recorder.ReadFile(tracePath, compression.LZ4)
	require.NoError(t, err)
	assert.Len(t, samples, 12)
}

func TestSimulate_Tracing(t *testing.T) {
	spans := filepath.Join(t.TempDir(), "spans.json")
	args := append([]string{"simulate"}, fastFlags...)
	args = append(args, "--enable-tracing", "--tracing-output", spans)

	_, err := execute(t, args...)
	require.NoError(t, err)

	data, err := os.ReadFile(spans)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simulation.run")
	assert.Contains(t, string(data), "pool.scheduled_step")
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
