package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/dopiumbot/core/telegram"
	"github.com/m3rciful/dopiumbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the OnCallback route that dispatches inline button
// presses through the registry by their unique key.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok {
			extras = append(extras, slog.String("reason", "not_found"))
			cbHandler = reg.CallbackNotFound()
		}
		return handleWithSummary(c, name, start, func() error {
			if cbHandler == nil {
				return c.Respond()
			}
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
