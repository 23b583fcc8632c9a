package sensorclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/sensorclient"
	"github.com/grbuguj/Sinker-IOT/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// fakeClock never sleeps and cancels the run after a fixed number of
// cycle sleeps, bounding the loop without wall time.
type fakeClock struct {
	now        time.Time
	sleeps     []time.Duration
	stopAfter  int
	stopCancel context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.stopCancel != nil && len(c.sleeps) >= c.stopAfter {
		c.stopCancel()
	}
}

// scriptedSender fails a fixed number of attempts before succeeding.
type scriptedSender struct {
	failures int
	attempts int
}

func (s *scriptedSender) Send(_ context.Context, _ sensorclient.Reading) error {
	s.attempts++
	if s.attempts <= s.failures {
		return errors.New("connection refused")
	}
	return nil
}

// staticCollector returns the same reading every cycle.
type staticCollector struct {
	err error
}

func (c *staticCollector) Collect() (sensorclient.Reading, error) {
	if c.err != nil {
		return sensorclient.Reading{}, c.err
	}
	return sensorclient.Reading{
		Moisture:     810.0,
		VibrationRaw: 90.0,
		Timestamp:    "2026-03-14T12:00:00Z",
	}, nil
}

func testConfig() *sensorclient.Config {
	return &sensorclient.Config{
		ServerURL:    "http://localhost:8000/sensor",
		SendInterval: 5 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		Timeout:      time.Second,
	}
}

// runOneCycle drives the runner through exactly one cycle: the first
// inter-cycle sleep cancels the context, and cancellation is observed at
// the top of the next cycle.
func runOneCycle(sender sensorclient.Sender, collector sensorclient.Collector) (sensorclient.Stats, *fakeClock) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{
		now:        time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		stopCancel: cancel,
	}

	cfg := testConfig()
	runner := sensorclient.NewRunner(cfg,
		sensorclient.WithSender(sender),
		sensorclient.WithCollector(collector),
		sensorclient.WithClock(clock),
	)

	// Count the retry sleeps the cycle will make so only the final
	// inter-cycle sleep triggers cancellation.
	clock.stopAfter = 1
	if s, ok := sender.(*scriptedSender); ok {
		retries := s.failures
		if retries >= cfg.MaxRetries {
			retries = cfg.MaxRetries - 1
		}
		clock.stopAfter = retries + 1
	}

	return runner.Run(ctx), clock
}

func TestRunner(t *testing.T) {
	Convey("Given a runner with a scripted sender", t, func() {
		Convey("When the first attempt succeeds", func() {
			sender := &scriptedSender{}
			stats, clock := runOneCycle(sender, &staticCollector{})

			Convey("Then one reading is sent with no retries", func() {
				So(stats.CyclesRun, ShouldEqual, 1)
				So(stats.TotalSent, ShouldEqual, 1)
				So(stats.TotalFailed, ShouldEqual, 0)
				So(sender.attempts, ShouldEqual, 1)

				So(len(clock.sleeps), ShouldEqual, 1)
				So(clock.sleeps[0], ShouldEqual, 5*time.Second)
			})
		})

		Convey("When the second attempt succeeds", func() {
			sender := &scriptedSender{failures: 1}
			stats, clock := runOneCycle(sender, &staticCollector{})

			Convey("Then the reading is delivered and no third attempt happens", func() {
				So(stats.TotalSent, ShouldEqual, 1)
				So(stats.TotalFailed, ShouldEqual, 0)
				So(sender.attempts, ShouldEqual, 2)

				// One retry pause, then the inter-cycle pause.
				So(clock.sleeps[0], ShouldEqual, 2*time.Second)
				So(clock.sleeps[1], ShouldEqual, 5*time.Second)
			})
		})

		Convey("When every attempt fails", func() {
			sender := &scriptedSender{failures: 99}
			stats, _ := runOneCycle(sender, &staticCollector{})

			Convey("Then the reading is abandoned after max retries", func() {
				So(stats.TotalSent, ShouldEqual, 0)
				So(stats.TotalFailed, ShouldEqual, 1)
				So(sender.attempts, ShouldEqual, 3)
			})
		})

		Convey("When collection itself fails", func() {
			sender := &scriptedSender{}
			stats, _ := runOneCycle(sender, &staticCollector{err: errors.New("i2c bus error")})

			Convey("Then the cycle counts as failed and nothing is sent", func() {
				So(stats.TotalFailed, ShouldEqual, 1)
				So(stats.TotalSent, ShouldEqual, 0)
				So(sender.attempts, ShouldEqual, 0)
			})
		})
	})

	Convey("Given run statistics", t, func() {
		Convey("When computing the success rate", func() {
			stats := sensorclient.Stats{TotalSent: 3, TotalFailed: 1}
			So(stats.SuccessRate(), ShouldEqual, 0.75)

			Convey("And an empty run reports zero", func() {
				So((&sensorclient.Stats{}).SuccessRate(), ShouldEqual, 0)
			})
		})
	})
}
