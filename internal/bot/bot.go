// Package bot is the Telegram face of the studio: reply keyboard menus,
// slash commands, inline wizard buttons and the admin order panel.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tg "github.com/m3rciful/dopiumbot/core/telegram"
	"github.com/m3rciful/dopiumbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"
	"github.com/m3rciful/dopiumbot/core/telegram/middleware"
	"github.com/m3rciful/dopiumbot/core/telegram/router"
	"github.com/m3rciful/dopiumbot/core/telegram/state"
	"github.com/m3rciful/dopiumbot/core/telegram/ui"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"
	"github.com/m3rciful/dopiumbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// Options wires the bot to the application services.
type Options struct {
	Manager *flow.Manager
	// Admins decides access to the admin panel. Nil disables it.
	Admins middleware.AdminChecker
	Panel  *admin.Panel
	// Location formats staff timestamps; UTC when nil.
	Location *time.Location
}

// Bot holds per-user wizard sessions and the handlers that drive them.
type Bot struct {
	mgr      *flow.Manager
	sessions *state.Store[flow.Session]
	admins   middleware.AdminChecker
	panel    *admin.Panel
	loc      *time.Location
}

var (
	_ router.Conversation = (*Bot)(nil)
	_ ui.FallbackProvider = (*Bot)(nil)
)

// New builds a Bot. Manager is required.
func New(opts Options) (*Bot, error) {
	if opts.Manager == nil {
		return nil, errors.New("bot: nil flow manager")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		mgr:      opts.Manager,
		sessions: state.NewStore[flow.Session](),
		admins:   opts.Admins,
		panel:    opts.Panel,
		loc:      loc,
	}, nil
}

// Register adds the bot's commands and callbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{Handler: b.handleStart, Description: "شروع و نمایش منو"})
	reg.RegisterCommand("/help", commands.Command{Handler: b.handleHelp, Description: "راهنما", Aliases: []string{btnHelp}})
	reg.RegisterCommand("/keyboard", commands.Command{Handler: b.handleKeyboard, Description: "نمایش منو"})
	reg.RegisterCommand("/track", commands.Command{Handler: b.handleTrack, Description: "پیگیری سفارش با کد رهگیری"})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "لغو عملیات",
		Aliases:     []string{btnCancel},
		Global:      true,
	})
	for _, m := range menuDomains {
		reg.RegisterCommand(m.Command, commands.Command{
			Handler:     b.startHandler(m.Domain),
			Description: m.Domain.Title(),
			Aliases:     []string{m.Label},
			Hidden:      true,
		})
	}

	callbacks := map[string]tele.HandlerFunc{
		cbFlowOption: b.handleOption,
		cbFlowBack:   b.handleBack,
	}
	if b.adminEnabled() {
		reg.RegisterCommand("/admin", commands.Command{Handler: b.handleAdmin, Description: "پنل مدیریت", AdminOnly: true})
		reg.RegisterCommand("/orders", commands.Command{
			Handler:     b.handleOrders,
			Description: "سفارشات در انتظار تایید",
			AdminOnly:   true,
			Aliases:     []string{btnOrders},
		})
		guard := middleware.AdminOnlyMiddleware(b.adminOptions())
		callbacks[cbAdminHome] = guard(b.handleAdminHome)
		callbacks[cbAdminList] = guard(b.handleAdminList)
		callbacks[cbAdminConfirm] = guard(b.handleAdminDecision(booking.StatusConfirmed))
		callbacks[cbAdminCancel] = guard(b.handleAdminDecision(booking.StatusCancelled))
	}
	for key, h := range callbacks {
		if err := reg.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("register %s: %w", key, err)
		}
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	return nil
}

// Routes returns every handler route for reg, which must already hold the
// bot's registrations.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	cmdOpts := router.CommandRouteOptions{Admin: b.adminOptions()}
	routes := router.CommandRoutes(reg, cmdOpts)
	routes = append(routes, router.CallbackRoute(reg))
	return append(routes, router.TextRoutes(b, reg, router.TextOptions{
		Admin:           cmdOpts,
		UnknownText:     b.UnknownText(),
		UnknownDocument: b.UnknownDocument(),
	})...)
}

// InProgress reports whether the user is inside a wizard.
func (b *Bot) InProgress(userID int64) bool {
	s, ok := b.sessions.Peek(userID)
	return ok && s.Active()
}

// HandleText feeds a typed answer to the user's wizard.
func (b *Bot) HandleText(c tele.Context) error {
	r := b.withSession(c, func(ctx context.Context, s *flow.Session) flow.Render {
		return b.mgr.Text(ctx, s, c.Text())
	})
	return b.show(c, r, fromText)
}

func (b *Bot) startHandler(d booking.Domain) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.WithFlow(c, string(d))
		r := b.withSession(c, func(ctx context.Context, s *flow.Session) flow.Render {
			return b.mgr.Start(ctx, s, d)
		})
		return b.show(c, r, fromStart)
	}
}

func (b *Bot) handleOption(c tele.Context) error {
	_, token := callbackParts(c)
	r := b.withSession(c, func(ctx context.Context, s *flow.Session) flow.Render {
		return b.mgr.Selection(ctx, s, token)
	})
	return b.show(c, r, fromCallback)
}

func (b *Bot) handleBack(c tele.Context) error {
	r := b.withSession(c, func(ctx context.Context, s *flow.Session) flow.Render {
		return b.mgr.Back(ctx, s)
	})
	return b.show(c, r, fromCallback)
}

func (b *Bot) handleCancel(c tele.Context) error {
	if !b.InProgress(senderID(c)) {
		return tghelpers.SendText(c, txtChooseOption, mainMenu())
	}
	r := b.withSession(c, func(ctx context.Context, s *flow.Session) flow.Render {
		return b.mgr.Cancel(ctx, s)
	})
	return b.show(c, r, fromText)
}

// withSession runs fn on the sender's session under that user's lock. A
// session whose wizard ended is dropped.
func (b *Bot) withSession(c tele.Context, fn func(ctx context.Context, s *flow.Session) flow.Render) flow.Render {
	u := c.Sender()
	if u == nil {
		return flow.Render{Kind: flow.KindNoFlow}
	}
	ctx := tghelpers.BuildContext(c)
	var r flow.Render
	_ = b.sessions.Do(u.ID, func(cur *flow.Session) (*flow.Session, error) {
		if cur == nil {
			cur = &flow.Session{UserID: u.ID}
		}
		cur.DisplayName = tghelpers.DisplayName(u)
		r = fn(ctx, cur)
		if !cur.Active() {
			return nil, nil
		}
		return cur, nil
	})
	return r
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
