package bot

import (
	"github.com/m3rciful/dopiumbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UnknownText answers text that is neither a menu button nor wizard input.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, txtInvalidOption, mainMenu())
	}
}

// UnknownDocument answers files and photos.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, txtTextOnly)
	}
}

// UnknownCallback answers buttons whose key is not registered.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: txtUnsupported})
	}
}

// RateLimited answers updates dropped by the rate limiter.
func (b *Bot) RateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: txtSlowDown})
	}
	return tghelpers.SendText(c, txtSlowDown)
}

func callbackParts(c tele.Context) (string, string) {
	return callbacks.ParseCallbackData(c.Callback())
}
