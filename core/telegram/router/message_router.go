package router

import (
	"time"

	tg "github.com/m3rciful/dopiumbot/core/telegram"
	"github.com/m3rciful/dopiumbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the text-input side of an active multi-step dialog.
type Conversation interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for non-command messages.
type TextOptions struct {
	Admin           CommandRouteOptions
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes routes plain text: global aliases such as a cancel button first,
// then the user's active conversation, then command aliases, then fallbacks.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		var (
			key   string
			cmd   commands.Command
			found bool
		)
		if reg != nil {
			key, cmd, found = reg.LookupCommand(c.Text())
		}
		inFlow := conv != nil && c.Sender() != nil && conv.InProgress(c.Sender().ID)

		switch {
		case found && (cmd.Global || !inFlow):
			h := wrapCommand(key, cmd, opts.Admin)
			return h(c)
		case inFlow:
			return handleWithSummary(c, "flow.text", start, func() error {
				return conv.HandleText(c)
			})
		case opts.UnknownText != nil:
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument == nil {
			logHandlerSummary(c, "unexpected_document", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "unexpected_document", start, func() error {
			return opts.UnknownDocument(c)
		})
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: handler},
		{Endpoint: tele.OnDocument, Handler: docHandler},
		{Endpoint: tele.OnPhoto, Handler: docHandler},
	}
}
