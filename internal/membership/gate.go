// Package membership requires users to join the studio's Telegram channel
// before they can book.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

const (
	joinMessage = "لطفا برای استفاده از خدمات در کانال مجموعه عضو شوید."
	joinButton  = "✅ عضویت در کانال"
)

// Config names the channel. Either field may be empty; with both empty the
// gate lets everyone through.
type Config struct {
	ChannelID       string `yaml:"channel_id" envconfig:"CHANNEL_ID"`
	ChannelUsername string `yaml:"channel_username" envconfig:"CHANNEL_USERNAME"`
}

// MemberLookup is the Telegram call the gate needs; *tele.Bot satisfies it.
type MemberLookup interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

type chatRef string

func (c chatRef) Recipient() string { return string(c) }

// Gate checks channel membership.
type Gate struct {
	api     MemberLookup
	chats   []chatRef
	joinURL string
}

var _ flow.Gate = (*Gate)(nil)

// New builds a gate. The username is tried before the numeric id.
func New(api MemberLookup, cfg Config) *Gate {
	g := &Gate{api: api}
	if u := strings.TrimPrefix(strings.TrimSpace(cfg.ChannelUsername), "@"); u != "" {
		g.chats = append(g.chats, chatRef("@"+u))
		g.joinURL = "https://t.me/" + u
	}
	if id := strings.TrimSpace(cfg.ChannelID); id != "" {
		g.chats = append(g.chats, chatRef(id))
		if g.joinURL == "" {
			g.joinURL = "https://t.me/c/" + strings.TrimPrefix(id, "-100")
		}
	}
	return g
}

// Enabled reports whether a channel is configured.
func (g *Gate) Enabled() bool { return len(g.chats) > 0 }

// Check reports whether userID is a member, administrator or creator of the
// channel. It fails only when no identifier could be looked up at all.
func (g *Gate) Check(ctx context.Context, userID int64) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	if g.api == nil {
		return false, errors.New("membership: no telegram client")
	}
	user := &tele.User{ID: userID}
	var errs []error
	answered := false
	for _, chat := range g.chats {
		m, err := g.api.ChatMemberOf(chat, user)
		if err != nil {
			errs = append(errs, fmt.Errorf("membership: %s: %w", chat, err))
			continue
		}
		answered = true
		logger.Debug(ctx, logger.CompFlow, "membership.check",
			slog.String("chat", string(chat)),
			slog.String("role", string(m.Role)),
		)
		switch m.Role {
		case tele.Member, tele.Administrator, tele.Creator:
			return true, nil
		}
	}
	if !answered {
		return false, errors.Join(errs...)
	}
	return false, nil
}

// JoinPrompt asks the user to join, with a link button when one is known.
func (g *Gate) JoinPrompt() flow.Render {
	r := flow.Render{Kind: flow.KindJoin, Message: joinMessage}
	if g.joinURL != "" {
		r.Options = []flow.Option{{Label: joinButton, URL: g.joinURL}}
	}
	return r
}

// String describes the configured channels for logs.
func (g *Gate) String() string {
	parts := make([]string, len(g.chats))
	for i, c := range g.chats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",") + " (" + strconv.Itoa(len(parts)) + ")"
}
