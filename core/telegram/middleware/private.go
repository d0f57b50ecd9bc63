package middleware

import (
	"log/slog"

	"github.com/m3rciful/dopiumbot/core/logger"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PrivateOnly drops updates that do not originate from a private chat, so
// the bot stays silent in the staff group it posts to.
func PrivateOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if chat := c.Chat(); chat != nil && chat.Type != tele.ChatPrivate {
			logger.Debug(tghelpers.BuildContext(c), logger.CompTG, "update.skip",
				slog.String("status", "skip"),
				slog.String("chat_type", string(chat.Type)),
			)
			return nil
		}
		return next(c)
	}
}
