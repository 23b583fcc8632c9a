package sensorclient

import (
	"context"
	"fmt"
	"time"

	"github.com/grbuguj/Sinker-IOT/pkg/logger"
)

// Clock abstracts waiting so tests can run cycles without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// wallClock is the production Clock; Sleep returns early on cancellation.
type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Runner drives the collect, send, sleep loop on a field device.
type Runner struct {
	config    *Config
	collector Collector
	sender    Sender
	clock     Clock
	stats     Stats
	logger    logger.Logger
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithCollector injects a collector; the default simulates sensor values.
func WithCollector(c Collector) Option {
	return func(r *Runner) {
		if c != nil {
			r.collector = c
		}
	}
}

// WithSender injects a sender; the default posts to Config.ServerURL.
func WithSender(s Sender) Option {
	return func(r *Runner) {
		if s != nil {
			r.sender = s
		}
	}
}

// WithClock overrides the wall clock for tests.
func WithClock(c Clock) Option {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets a custom logger for the runner.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for the given config.
func NewRunner(config *Config, opts ...Option) *Runner {
	r := &Runner{
		config: config,
		clock:  wallClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.collector == nil {
		r.collector = NewSimCollector()
	}
	if r.sender == nil {
		r.sender = NewHTTPSender(config.ServerURL, config.Timeout)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("sensorclient")
	}
	return r
}

// Run executes cycles until ctx is cancelled, then reports statistics.
// Cancellation is observed at the top of each cycle: an in-flight cycle
// finishes before the loop exits.
func (r *Runner) Run(ctx context.Context) Stats {
	r.stats = Stats{StartTime: r.clock.Now()}
	r.logger.Info(ctx, "sensor client started",
		logger.String("serverURL", r.config.ServerURL),
		logger.Duration("sendInterval", r.config.SendInterval),
		logger.Int("maxRetries", r.config.MaxRetries),
	)

	for {
		select {
		case <-ctx.Done():
			r.stats.EndTime = r.clock.Now()
			r.report(ctx)
			return r.stats
		default:
		}

		r.cycle(ctx)
		r.clock.Sleep(ctx, r.config.SendInterval)
	}
}

// cycle collects one reading and tries to deliver it, retrying up to
// MaxRetries attempts with a fixed delay. A reading that cannot be
// collected or delivered is abandoned; the next cycle starts fresh.
func (r *Runner) cycle(ctx context.Context) {
	r.stats.CyclesRun++

	reading, err := r.collector.Collect()
	if err != nil {
		r.stats.TotalFailed++
		r.logger.Error(ctx, "collect failed", logger.Error(err))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxRetries; attempt++ {
		lastErr = r.sender.Send(ctx, reading)
		if lastErr == nil {
			r.stats.TotalSent++
			if r.config.Verbose {
				r.logger.Debug(ctx, "reading delivered",
					logger.Int("attempt", attempt),
					logger.Float64("moisture", reading.Moisture),
				)
			}
			return
		}
		r.logger.Warn(ctx, "send attempt failed",
			logger.Int("attempt", attempt),
			logger.Int("maxRetries", r.config.MaxRetries),
			logger.Error(lastErr),
		)
		if attempt < r.config.MaxRetries {
			r.clock.Sleep(ctx, r.config.RetryDelay)
		}
	}

	r.stats.TotalFailed++
	r.logger.Error(ctx, "abandoning reading after retries", logger.Error(lastErr))
}

// report logs the final run statistics.
func (r *Runner) report(ctx context.Context) {
	r.logger.Info(ctx, "sensor client stopped",
		logger.Int("cyclesRun", r.stats.CyclesRun),
		logger.Int("totalSent", r.stats.TotalSent),
		logger.Int("totalFailed", r.stats.TotalFailed),
		logger.String("successRate", fmt.Sprintf("%.1f%%", r.stats.SuccessRate()*100)),
		logger.Duration("uptime", r.stats.EndTime.Sub(r.stats.StartTime)),
	)
}
