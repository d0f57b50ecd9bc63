package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware assigns the update's rid, stores the logging context and
// logs one receipt line per update at debug level.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if _, ok := tghelpers.ContextFrom(c); ok {
			return next(c)
		}
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		if user := c.Sender(); user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		c.Set("update_start", time.Now())

		ctx := logger.WithRID(context.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		tghelpers.StoreContext(c, ctx)

		attrs := []slog.Attr{slog.String("status", "ok")}
		if u := c.Sender(); u != nil && u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		switch {
		case upd.Callback != nil:
			key, payload := callbacks.ParseCallbackData(upd.Callback)
			attrs = append(attrs,
				slog.String("cb_key", logger.SanitizeLimit(key, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 128)),
			)
		case upd.Message != nil:
			attrs = append(attrs, slog.Int("text_len", len([]rune(c.Text()))))
		}
		logger.Debug(ctx, logger.CompTG, "update.received", attrs...)

		return next(c)
	}
}
