package sender

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls on a worker pool, retrying
// transient network failures with linear backoff.
type Dispatcher struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher; zero options get defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.handle(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run for asynchronous execution. run must be safe to
// call more than once when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Submit enqueues run and falls back to running it inline when the queue
// cannot take it. A nil dispatcher always runs inline.
func (d *Dispatcher) Submit(ctx context.Context, action, endpoint string, run func() error) error {
	if d == nil {
		return run()
	}
	err := d.Enqueue(ctx, action, endpoint, run)
	if errors.Is(err, ErrQueueFull) || errors.Is(err, ErrQueueClosed) {
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("op", action),
			slog.String("endpoint", endpoint),
			logger.Err(err),
		)
		return run()
	}
	return err
}

// ErrorCount returns the number of jobs that failed after all attempts.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) handle(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	// The caller's update context may already be done; jobs outlive it.
	deadline, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	attempt := 1
	for ; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			logger.Debug(ctx, logger.CompSender, "send.success",
				append(jobAttrs(j), slog.Int("attempts", attempt), slog.Duration("duration", time.Since(start)))...,
			)
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := d.opts.RetryBackoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			attempt = attempts
		case <-timer.C:
			logger.Debug(ctx, logger.CompSender, "send.retry",
				append(jobAttrs(j), slog.Int("attempts", attempt), slog.Duration("backoff", delay))...,
			)
			continue
		}
		break
	}

	d.errs.Add(1)
	logger.Error(ctx, logger.CompSender, "send.fail",
		append(jobAttrs(j),
			slog.String("status", "fail"),
			slog.String("err", redact(err)),
			slog.String("err_code", classifyError(err)),
			slog.Bool("retryable", netutil.ShouldRetry(err)),
			slog.Int("attempts", min(attempt, attempts)),
			slog.Duration("duration", time.Since(start)),
		)...,
	)
}

func jobAttrs(j job) []slog.Attr {
	return []slog.Attr{
		slog.String("op", j.action),
		slog.String("endpoint", j.endpoint),
	}
}

// redact strips bot tokens that telebot embeds in request URLs.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

func classifyError(err error) string {
	var (
		apiErr   *tele.Error
		floodErr tele.FloodError
		dnsErr   *net.DNSError
		opErr    *net.OpError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &floodErr):
		return "http_429"
	case errors.As(err, &apiErr):
		if apiErr.Code >= 500 {
			return "http_5xx"
		}
		return "http_4xx"
	case errors.As(err, &dnsErr):
		return "dns"
	case errors.As(err, &opErr):
		if opErr.Timeout() {
			return "timeout"
		}
		return opErr.Op
	}
	return "unknown"
}
