package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/internal/simulation"
	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
	"github.com/ajitpratap0/spawnpool/pkg/observability"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"name":                "name",
	"target-capacity":     "pool.target_capacity",
	"spawn-per-tick":      "pool.spawn_per_tick",
	"low-water-mark":      "pool.low_water_mark",
	"replenish-per-tick":  "pool.replenish_per_tick",
	"ticks":               "simulation.ticks",
	"tick-interval":       "simulation.tick_interval",
	"class":               "simulation.class",
	"acquire-per-tick":    "simulation.acquire_per_tick",
	"release-per-tick":    "simulation.release_per_tick",
	"spawn-fail-every":    "simulation.spawn_fail_every",
	"seed":                "simulation.seed",
	"log-level":           "observability.log_level",
	"log-format":          "observability.log_format",
	"enable-tracing":      "observability.enable_tracing",
	"tracing-sample-rate": "observability.tracing_sample_rate",
	"metrics-addr":        "observability.metrics_addr",
	"trace-path":          "trace.path",
	"trace-compression":   "trace.compression",
}

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var configFile string

	root := &cobra.Command{
		Use:   "spawnpool",
		Short: "spawnpool - frame-budgeted entity pool",
		Long: `spawnpool pre-allocates a bounded set of reusable entities, hands them out on
demand and replenishes itself a few entities per tick.

The simulate command hosts a pool in a synthetic game loop and reports how it
behaves. Settings come from flags, SPAWNPOOL_* environment variables and an
optional YAML file, in that order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			return bindFlags(v, cmd.Flags())
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML configuration file")
	addConfigFlags(root.PersistentFlags(), config.NewDefault("default"))

	root.AddCommand(newVersionCommand())
	root.AddCommand(newConfigCommand(v))
	root.AddCommand(newSimulateCommand(v))
	return root
}

func addConfigFlags(fs *pflag.FlagSet, d *config.Config) {
	fs.String("name", d.Name, "Pool name used in logs and metrics")

	fs.Int("target-capacity", d.Pool.TargetCapacity, "Total entities the pool spawns over its lifetime")
	fs.Int("spawn-per-tick", d.Pool.SpawnPerTick, "Entities spawned per tick during initial population (0 = all at once)")
	fs.Int("low-water-mark", d.Pool.LowWaterMark, "Idle count below which replenishment starts (0 = disabled)")
	fs.Int("replenish-per-tick", d.Pool.ReplenishPerTick, "Entities spawned per tick during replenishment")

	fs.Int("ticks", d.Simulation.Ticks, "Number of ticks to simulate")
	fs.Duration("tick-interval", d.Simulation.TickInterval, "Wall-clock length of a tick (0 = back to back)")
	fs.String("class", d.Simulation.Class, "Entity class to pool")
	fs.Int("acquire-per-tick", d.Simulation.AcquirePerTick, "Entities the host acquires each tick")
	fs.Int("release-per-tick", d.Simulation.ReleasePerTick, "Entities the host despawns each tick")
	fs.Int("spawn-fail-every", d.Simulation.SpawnFailEvery, "Make every Nth spawn fail (0 = never)")
	fs.Int64("seed", d.Simulation.Seed, "Seed of the workload's random source")

	fs.String("log-level", d.Observability.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.Observability.LogFormat, "Log encoding (json, console)")
	fs.Bool("enable-tracing", d.Observability.EnableTracing, "Export OpenTelemetry spans")
	fs.Float64("tracing-sample-rate", d.Observability.TracingSampleRate, "Trace sampling rate (0.0-1.0)")
	fs.String("metrics-addr", d.Observability.MetricsAddr, "Serve Prometheus metrics on this address (e.g. :9090)")

	fs.String("trace-path", d.Trace.Path, "Write the per-tick statistics trace to this file")
	fs.String("trace-compression", d.Trace.Compression, "Trace compression (none, gzip, snappy, lz4, zstd, s2)")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "spawnpool v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newConfigCommand(v *viper.Viper) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as YAML",
		Long: `Resolve the configuration from defaults, the config file, environment and
flags, validate it, and print it. With --output the result is saved instead.

Example:
  spawnpool config --target-capacity 500 --output pool.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			if output != "" {
				return config.Save(output, cfg)
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the configuration to this file")
	return cmd
}

func newSimulateCommand(v *viper.Viper) *cobra.Command {
	var timeout time.Duration
	var tracingOutput string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a pool through a synthetic game loop",
		Long: `Run a pool through a synthetic game loop: initialize it, tick it, acquire
and despawn entities on a seeded random workload, tear it down and print a
JSON report.

Example:
  spawnpool simulate --ticks 600 --tick-interval 16ms --trace-path trace.jsonl.zst --trace-compression zstd`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cfg, cmd.OutOrStdout(), timeout, tracingOutput)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the simulation after this long (0 = no limit)")
	cmd.Flags().StringVar(&tracingOutput, "tracing-output", "", "Write spans to this file instead of stderr")
	return cmd
}

func runSimulation(ctx context.Context, cfg *config.Config, out io.Writer, timeout time.Duration, tracingOutput string) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Encoding:    cfg.Observability.LogFormat,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get().With(
		zap.String("component", "spawnpool-cli"),
		zap.String("pool", cfg.Name))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []simulation.Option{simulation.WithLogger(log)}

	if cfg.Observability.EnableTracing {
		tcfg := observability.DefaultTracingConfig()
		tcfg.ServiceVersion = version
		tcfg.SamplingRate = cfg.Observability.TracingSampleRate
		tcfg.Writer = os.Stderr
		if tracingOutput != "" {
			f, err := os.Create(tracingOutput) //nolint:gosec // G304: path comes from the operator
			if err != nil {
				return fmt.Errorf("failed to create tracing output: %w", err)
			}
			defer f.Close()
			tcfg.Writer = f
		}
		if _, err := observability.InitTracing(tcfg); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := observability.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
		opts = append(opts, simulation.WithTracer(observability.Tracer()))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opts = append(opts, simulation.WithRegisterer(reg))

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsHandler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", zap.String("addr", addr))
	}

	sim, err := simulation.New(cfg, opts...)
	if err != nil {
		return err
	}

	report, runErr := sim.Run(ctx)
	if report != nil {
		if err := report.WriteJSON(out); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("simulation failed: %w", runErr)
	}
	return nil
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
