// Package simulation hosts a pool the way a game loop would: it drives ticks,
// acquires and despawns entities on a seeded random workload, records the
// pool's statistics every tick and tears the pool down at the end.
package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/internal/recorder"
	"github.com/ajitpratap0/spawnpool/pkg/compression"
	"github.com/ajitpratap0/spawnpool/pkg/config"
	"github.com/ajitpratap0/spawnpool/pkg/entity"
	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
	"github.com/ajitpratap0/spawnpool/pkg/metrics"
	"github.com/ajitpratap0/spawnpool/pkg/observability"
	"github.com/ajitpratap0/spawnpool/pkg/performance"
	"github.com/ajitpratap0/spawnpool/pkg/pool"
	"github.com/ajitpratap0/spawnpool/pkg/tick"
)

// Simulation runs one pool through a synthetic workload. It is single use.
type Simulation struct {
	cfg    *config.Config
	id     string
	logger *zap.Logger
	tracer trace.Tracer

	world    *entity.World
	queue    *tick.Queue
	manager  *pool.Manager[*entity.Actor]
	recorder *recorder.Recorder
	latency  *metrics.LatencyTracker
	ticks    *metrics.TickMetrics
	algo     compression.Algorithm

	registerer prometheus.Registerer

	rng  *rand.Rand
	live []*entity.Actor
	ran  bool
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. The default is logger.Get().
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithTracer traces the run and every scheduled pool step.
func WithTracer(t trace.Tracer) Option {
	return func(s *Simulation) { s.tracer = t }
}

// WithRegisterer exports pool and tick metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Simulation) {
		if reg != nil {
			s.ticks = metrics.NewTickMetrics(reg)
			s.registerer = reg
		}
	}
}

// WithID overrides the generated simulation ID.
func WithID(id string) Option {
	return func(s *Simulation) { s.id = id }
}

// New validates cfg and builds the world, the tick queue and the pool.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	algo, err := compression.ParseAlgorithm(cfg.Trace.Compression)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid trace compression")
	}

	s := &Simulation{
		cfg:      cfg,
		id:       fmt.Sprintf("%s-%d", cfg.Name, time.Now().UnixNano()),
		world:    entity.NewWorld(pool.Class(cfg.Simulation.Class)),
		queue:    tick.NewQueue(),
		recorder: recorder.New(cfg.Simulation.Ticks),
		latency:  metrics.NewLatencyTracker(max(cfg.Simulation.Ticks, 1)),
		algo:     algo,
		rng:      rand.New(rand.NewSource(cfg.Simulation.Seed)), //nolint:gosec // deterministic workload
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With(
		zap.String("component", "simulation"),
		zap.String("simulation_id", s.id))

	s.world.FailEvery(cfg.Simulation.SpawnFailEvery)

	var scheduler pool.Scheduler = s.queue
	if s.tracer != nil {
		scheduler = observability.NewTracedScheduler(context.Background(), s.queue, cfg.Name, s.tracer)
	}

	s.manager, err = pool.NewManager[*entity.Actor](&cfg.Pool, s.world, scheduler,
		pool.WithName(cfg.Name),
		pool.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	if s.registerer != nil {
		if err := s.registerer.Register(metrics.NewPoolCollector(s.manager)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConflict, "failed to register pool collector").
				WithDetail("pool", cfg.Name)
		}
	}

	return s, nil
}

// ID returns the simulation ID used in logs.
func (s *Simulation) ID() string { return s.id }

// Manager exposes the pool under test.
func (s *Simulation) Manager() *pool.Manager[*entity.Actor] { return s.manager }

// World exposes the entity host.
func (s *Simulation) World() *entity.World { return s.world }

// Recorder exposes the tick-by-tick trace.
func (s *Simulation) Recorder() *recorder.Recorder { return s.recorder }

// Run initializes the pool, ticks it Simulation.Ticks times, despawns every
// entity still on loan and tears the pool down. When ctx is cancelled the run
// stops early, still tears down, and returns the partial report with
// ctx's error.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	if s.ran {
		return nil, errors.New(errors.ErrorTypeConflict, "simulation already ran").
			WithDetail("simulation_id", s.id)
	}
	s.ran = true

	ctx = logger.WithSimulationID(logger.WithPool(ctx, s.cfg.Name), s.id)
	ctx, span := observability.StartSpan(ctx, s.tracer, "simulation.run")
	span.SetAttribute("simulation.id", s.id)
	span.SetAttribute("pool.name", s.cfg.Name)
	span.SetAttribute("simulation.ticks", s.cfg.Simulation.Ticks)
	defer span.End()

	monitor, err := performance.NewResourceMonitor()
	if err != nil {
		s.logger.Warn("resource monitoring unavailable", zap.Error(err))
	}

	start := time.Now()
	initTimer := metrics.NewTimer("initialize_pool")
	if err := s.manager.InitializePool(pool.Class(s.cfg.Simulation.Class)); err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("simulation started",
		zap.Int("ticks", s.cfg.Simulation.Ticks),
		zap.Duration("tick_interval", s.cfg.Simulation.TickInterval),
		zap.Int64("seed", s.cfg.Simulation.Seed),
		zap.Duration("initialize_duration", initTimer.Stop()))

	loop, err := tick.NewLoop(s.queue, s.cfg.Simulation.TickInterval,
		tick.MaxTicks(uint64(s.cfg.Simulation.Ticks)),
		tick.OnTick(s.step),
		tick.ObserveDuration(s.observe),
		tick.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	runErr := loop.Run(ctx)

	for _, a := range s.live {
		s.manager.Despawn(a)
	}
	s.live = nil
	s.manager.Teardown()
	s.queue.Close()

	report := &Report{
		Name:         s.cfg.Name,
		SimulationID: s.id,
		Ticks:        s.queue.Ticks(),
		Duration:     time.Since(start),
		Final:        s.manager.Stats(),
		TickP50:      s.latency.Percentile(50),
		TickP99:      s.latency.Percentile(99),
		TickMax:      s.latency.Max(),
		WorldAlive:   s.world.Alive(),
	}
	if monitor != nil {
		report.Resources = monitor.Usage()
	}

	if path := s.cfg.Trace.Path; path != "" {
		if err := s.recorder.WriteFile(path, s.algo); err != nil {
			span.RecordError(err)
			return report, err
		}
		report.TracePath = path
	}

	logger.WithContext(ctx).Info("simulation finished",
		zap.Uint64("ticks", report.Ticks),
		zap.Duration("duration", report.Duration),
		zap.Duration("tick_p99", report.TickP99))
	s.manager.LogStats()

	span.SetAttribute("pool.total_spawned", report.Final.TotalSpawned)
	span.SetAttribute("pool.max_live", report.Final.MaxLive)
	if runErr != nil {
		span.RecordError(runErr)
		return report, runErr
	}
	span.RecordError(nil)
	return report, nil
}

// step is the host's per-tick workload. Pool steps scheduled for this tick
// have already run.
func (s *Simulation) step(uint64) {
	for i := 0; i < s.cfg.Simulation.AcquirePerTick; i++ {
		a, ok := s.manager.SpawnAt(s.randomLocation())
		if !ok {
			break
		}
		s.live = append(s.live, a)
	}

	for i := 0; i < s.cfg.Simulation.ReleasePerTick && len(s.live) > 0; i++ {
		k := s.rng.Intn(len(s.live))
		a := s.live[k]
		last := len(s.live) - 1
		s.live[k] = s.live[last]
		s.live[last] = nil
		s.live = s.live[:last]
		s.manager.Despawn(a)
	}
}

func (s *Simulation) observe(d time.Duration) {
	s.recorder.RecordSample(recorder.Sample{
		Tick:     s.queue.Ticks(),
		Stats:    s.manager.Stats(),
		Duration: d,
	})
	s.latency.Record(d)
	if s.ticks != nil {
		s.ticks.Observe(d)
	}
}

func (s *Simulation) randomLocation() pool.Vector {
	return pool.Vector{
		X: s.rng.Float64()*2000 - 1000,
		Y: s.rng.Float64()*2000 - 1000,
		Z: 0,
	}
}
