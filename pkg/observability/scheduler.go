package observability

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/spawnpool/pkg/pool"
)

// TracedScheduler decorates a pool.Scheduler so every scheduled step runs
// inside its own span.
type TracedScheduler struct {
	next     pool.Scheduler
	tracer   trace.Tracer
	ctx      context.Context
	poolName string

	scheduled atomic.Uint64
}

var _ pool.Scheduler = (*TracedScheduler)(nil)

// NewTracedScheduler wraps next. Spans are children of the span in ctx, if
// any. A nil tracer uses Tracer() at construction time.
func NewTracedScheduler(ctx context.Context, next pool.Scheduler, poolName string, t trace.Tracer) *TracedScheduler {
	if t == nil {
		t = Tracer()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &TracedScheduler{
		next:     next,
		tracer:   t,
		ctx:      ctx,
		poolName: poolName,
	}
}

// NextTick implements pool.Scheduler.
func (s *TracedScheduler) NextTick(fn func()) {
	seq := s.scheduled.Add(1)
	s.next.NextTick(func() {
		_, span := s.tracer.Start(s.ctx, "pool.scheduled_step",
			trace.WithAttributes(
				attribute.String("pool.name", s.poolName),
				attribute.Int64("pool.step", int64(seq)),
			))
		defer span.End()
		fn()
	})
}

// Scheduled returns how many steps went through the decorator.
func (s *TracedScheduler) Scheduled() uint64 {
	return s.scheduled.Load()
}
