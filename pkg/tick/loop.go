package tick

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
	"github.com/ajitpratap0/spawnpool/pkg/logger"
)

// Loop drives a Queue at a fixed interval.
type Loop struct {
	queue    *Queue
	interval time.Duration
	maxTicks uint64
	onTick   func(n uint64)
	observe  func(time.Duration)
	logger   *zap.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// MaxTicks stops the loop after n ticks. 0 runs until the context is done.
func MaxTicks(n uint64) LoopOption {
	return func(l *Loop) { l.maxTicks = n }
}

// OnTick registers a hook that runs after the queue's callbacks on every tick.
// n starts at 1.
func OnTick(fn func(n uint64)) LoopOption {
	return func(l *Loop) { l.onTick = fn }
}

// ObserveDuration registers a hook that receives the wall time of each tick,
// including the OnTick hook.
func ObserveDuration(fn func(time.Duration)) LoopOption {
	return func(l *Loop) { l.observe = fn }
}

// WithLogger sets the loop's logger.
func WithLogger(log *zap.Logger) LoopOption {
	return func(l *Loop) { l.logger = log }
}

// NewLoop creates a loop over queue. An interval of 0 runs ticks back to back.
func NewLoop(queue *Queue, interval time.Duration, opts ...LoopOption) (*Loop, error) {
	if queue == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "queue is required")
	}
	if interval < 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "interval cannot be negative").
			WithDetail("interval", interval.String())
	}

	l := &Loop{
		queue:    queue,
		interval: interval,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get()
	}
	l.logger = l.logger.With(zap.String("component", "tick_loop"))
	return l, nil
}

// Run ticks until ctx is done or MaxTicks is reached. It returns ctx.Err()
// when stopped by the context and nil otherwise.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("tick loop started",
		zap.Duration("interval", l.interval),
		zap.Uint64("max_ticks", l.maxTicks))

	var ticker *time.Ticker
	if l.interval > 0 {
		ticker = time.NewTicker(l.interval)
		defer ticker.Stop()
	}

	var n uint64
	for l.maxTicks == 0 || n < l.maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		n++
		start := time.Now()
		l.queue.Tick()
		if l.onTick != nil {
			l.onTick(n)
		}
		if l.observe != nil {
			l.observe(time.Since(start))
		}
	}

	l.logger.Debug("tick loop finished", zap.Uint64("ticks", n))
	return nil
}
