package helpers

import (
	"sync/atomic"

	"github.com/m3rciful/dopiumbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Dispatcher returns the wired sender or nil.
func Dispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// SendText sends plain text to the current chat with optional reply markup.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return Dispatcher().Submit(BuildContext(c), "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// SendMD sends Markdown text with optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return Dispatcher().Submit(BuildContext(c), "send.md", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}

// EditOrSendText edits the callback's message as plain text or sends a new
// one. A nil markup drops the message's inline keyboard.
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return c.EditOrSend(text, opts)
}
