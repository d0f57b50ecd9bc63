package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m3rciful/dopiumbot/core/logger"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Burst     int
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// UserLimiter hands out one token bucket per user.
type UserLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewUserLimiter allows one event per interval with the given burst.
func NewUserLimiter(interval time.Duration, burst int) *UserLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{
		limiters: make(map[int64]*rate.Limiter),
		every:    rate.Every(interval),
		burst:    burst,
	}
}

// Allow consumes a token for userID.
func (l *UserLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	lim, ok := l.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[userID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RateLimitMiddleware throttles each user to the configured rate.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	limiter := NewUserLimiter(opts.Interval, opts.Burst)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if limiter.Allow(user.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), logger.CompTG, "tg.rate_limit",
				slog.String("status", "rate_limited"),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	default:
		return "other"
	}
}
