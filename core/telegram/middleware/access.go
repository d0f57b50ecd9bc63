package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/dopiumbot/core/logger"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker reports whether a Telegram user may use admin features.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Checker  AdminChecker
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only users accepted by the checker through. A
// failing lookup is treated as a rejection.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Checker == nil || c.Sender() == nil {
				return reject(c, opts)
			}
			ctx := tghelpers.BuildContext(c)
			ok, err := opts.Checker.IsAdmin(ctx, c.Sender().ID)
			if err != nil {
				logger.Error(ctx, logger.CompAdmin, "admin.check", logger.Err(err))
			}
			if !ok {
				logger.Debug(ctx, logger.CompAdmin, "admin.reject", slog.String("status", "skip"))
				return reject(c, opts)
			}
			return next(c)
		}
	}
}

func reject(c tele.Context, opts AdminOptions) error {
	if opts.OnReject != nil {
		return opts.OnReject(c)
	}
	return nil
}
