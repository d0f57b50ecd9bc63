// Package digest posts a scheduled summary of pending orders to staff.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/flow"
)

// Config enables the digest. An empty schedule disables it.
type Config struct {
	// Schedule is a five field cron expression, e.g. "0 10 * * *".
	Schedule string `yaml:"schedule" envconfig:"DIGEST_SCHEDULE"`
}

// parser accepts standard five field expressions and descriptors like @daily.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Counter reports pending orders per domain.
type Counter interface {
	Overview(ctx context.Context) ([]admin.Summary, error)
}

// Scheduler runs the digest job.
type Scheduler struct {
	cron     *cron.Cron
	counter  Counter
	notifier flow.Notifier
	now      func() time.Time
	loc      *time.Location
}

// New validates the cron schedule and builds a stopped scheduler.
func New(schedule string, loc *time.Location, counter Counter, notifier flow.Notifier) (*Scheduler, error) {
	if counter == nil || notifier == nil {
		return nil, fmt.Errorf("digest: counter and notifier are required")
	}
	if loc == nil {
		loc = time.UTC
	}
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("digest: schedule %q: %w", schedule, err)
	}
	s := &Scheduler{counter: counter, notifier: notifier, now: time.Now, loc: loc}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	s.cron.Schedule(sched, cron.FuncJob(func() {
		if err := s.Fire(context.Background()); err != nil {
			logger.Error(context.Background(), logger.CompDigest, "digest.fire", logger.Err(err))
		}
	}))
	return s, nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	logger.Info(ctx, logger.CompDigest, "digest.start", slog.Time("next", s.Next()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Next returns the next fire time, zero before Run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Fire sends one digest now. Nothing is sent when no order is pending.
func (s *Scheduler) Fire(ctx context.Context) error {
	start := time.Now()
	sums, err := s.counter.Overview(ctx)
	if err != nil {
		return fmt.Errorf("digest: count pending: %w", err)
	}
	text, total := Text(sums, s.now().In(s.loc))
	if total == 0 {
		logger.Debug(ctx, logger.CompDigest, "digest.fire", slog.String("status", "skip"))
		return nil
	}
	err = s.notifier.Notify(ctx, text)
	logger.Info(ctx, logger.CompDigest, "digest.fire",
		slog.String("status", logger.Status(err)),
		slog.Int("count", total),
		slog.Duration("duration", logger.Took(start)),
		logger.Err(err),
	)
	return err
}

// Text renders the digest and the total pending count.
func Text(sums []admin.Summary, at time.Time) (string, int) {
	var b strings.Builder
	total := 0
	fmt.Fprintf(&b, "🗓 گزارش سفارشات در انتظار تایید (%s)\n\n", at.Format("2006-01-02 15:04"))
	for _, s := range sums {
		if s.Pending == 0 {
			continue
		}
		fmt.Fprintf(&b, "• %s: %d\n", s.Domain.Title(), s.Pending)
		total += s.Pending
	}
	fmt.Fprintf(&b, "\nمجموع: %d\nبرای بررسی از /orders استفاده کنید.", total)
	return b.String(), total
}

// cronLogger routes cron's own messages into the structured log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Component(logger.CompDigest).Debug(msg, append([]any{"event", "digest.cron"}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Component(logger.CompDigest).Error(msg, append([]any{"event", "digest.cron", "err", err}, keysAndValues...)...)
}
