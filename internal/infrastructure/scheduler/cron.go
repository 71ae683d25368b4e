package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"WikiCardPoster/internal/ports"
)

// EveryMinute is the default spec for the serve loop.
const EveryMinute = "* * * * *"

// CronScheduler triggers the job on a cron spec in a fixed time zone.
// A trigger that arrives while the previous job still runs is skipped.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	stop chan struct{}
	// halted is done once the last running job has returned after a stop.
	halted context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) *CronScheduler {
	if spec == "" {
		spec = EveryMinute
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{spec: spec, location: loc, logger: logger.With("component", "cron")}
}

// Start registers the job and begins ticking until ctx ends or Stop is called.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	log := cronLogger{c.logger}
	runner := cron.New(
		cron.WithLocation(c.location),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("cron spec %q: %w", c.spec, err)
	}

	stop := make(chan struct{})
	c.cron, c.stop, c.halted = runner, stop, nil
	runner.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-stop:
		}
	}()

	c.logger.Info("cron started", "spec", c.spec, "timezone", c.location.String())
	return nil
}

// Stop halts the scheduler and waits for a running job to return or ctx to end.
// Every caller waits on the same shutdown, including the context watcher.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron != nil {
		close(c.stop)
		c.halted = c.cron.Stop()
		c.cron, c.stop = nil, nil
	}
	halted := c.halted
	c.mu.Unlock()

	if halted == nil {
		return nil
	}
	select {
	case <-halted.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
