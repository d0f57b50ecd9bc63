package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/dopiumbot/core/logger"
	tg "github.com/m3rciful/dopiumbot/core/telegram"
	"github.com/m3rciful/dopiumbot/core/telegram/commands"
	"github.com/m3rciful/dopiumbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	Admin middleware.AdminOptions
}

// CommandRoutes builds one route per slash command; admin commands are
// wrapped with the admin check.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  wrapCommand(name, def, opts),
		})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "tg.wire.complete"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}

func wrapCommand(name string, def commands.Command, opts CommandRouteOptions) tele.HandlerFunc {
	h := def.Handler
	if def.AdminOnly {
		h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
	}
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, handlerName, start, func() error { return h(c) })
	}
}
