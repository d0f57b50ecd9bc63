package notify

import (
	"context"
	"errors"

	"github.com/m3rciful/dopiumbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Sender is the slice of the bot API the Telegram notifier uses.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram posts notices to the staff group and messages users directly.
// Calls go through the outbound dispatcher when one is set.
type Telegram struct {
	api        Sender
	dispatcher *sender.Dispatcher
	group      int64
}

// NewTelegram returns nil when api is nil.
func NewTelegram(api Sender, dispatcher *sender.Dispatcher, groupChatID int64) *Telegram {
	if api == nil {
		return nil
	}
	return &Telegram{api: api, dispatcher: dispatcher, group: groupChatID}
}

// Notify posts text to the staff group.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if t.group == 0 {
		return errors.New("notify: staff group chat not configured")
	}
	return t.send(ctx, "notify.group", tele.ChatID(t.group), text)
}

// NotifyUser messages a user in their private chat.
func (t *Telegram) NotifyUser(ctx context.Context, userID int64, text string) error {
	return t.send(ctx, "notify.user", tele.ChatID(userID), text)
}

func (t *Telegram) send(ctx context.Context, action string, to tele.Recipient, text string) error {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	return t.dispatcher.Submit(ctx, action, "sendMessage", func() error {
		_, err := t.api.Send(to, text, opts)
		return err
	})
}
