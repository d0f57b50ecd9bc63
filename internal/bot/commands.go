package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/core/telegram/format"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"

	tele "gopkg.in/telebot.v4"
)

// handleStart drops any wizard in progress and greets the user with the
// menu that fits their role.
func (b *Bot) handleStart(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	b.sessions.Delete(u.ID)
	name := u.FirstName
	if name == "" {
		name = tghelpers.DisplayName(u)
	}
	if b.isAdmin(c) {
		return tghelpers.SendText(c, fmt.Sprintf(txtWelcomeAdmin, name), adminMenu())
	}
	return tghelpers.SendText(c, fmt.Sprintf(txtWelcome, name), mainMenu())
}

func (b *Bot) handleHelp(c tele.Context) error {
	return tghelpers.SendMD(c, txtHelp, mainMenu())
}

func (b *Bot) handleKeyboard(c tele.Context) error {
	return tghelpers.SendText(c, txtKeyboard, mainMenu())
}

// handleTrack shows one booking by tracking code. Customers only see their
// own bookings; admins see any.
func (b *Bot) handleTrack(c tele.Context) error {
	code := ""
	if msg := c.Message(); msg != nil {
		code = msg.Payload
	}
	if strings.TrimSpace(code) == "" || b.panel == nil {
		return tghelpers.SendText(c, txtTrackUsage)
	}
	ctx := tghelpers.BuildContext(c)
	bk, err := b.panel.Lookup(ctx, code)
	switch {
	case errors.Is(err, admin.ErrInvalidCode), errors.Is(err, booking.ErrNotFound):
		return tghelpers.SendText(c, txtTrackNotFound)
	case err != nil:
		logger.Error(ctx, logger.CompBooking, "booking.track", logger.Err(err))
		return err
	}
	if b.isAdmin(c) {
		return tghelpers.SendText(c, admin.Card(bk, b.loc))
	}
	if bk.UserID != senderID(c) {
		logger.Debug(ctx, logger.CompBooking, "booking.track",
			slog.String("status", "skip"),
			slog.String("reason", "foreign"),
		)
		return tghelpers.SendText(c, txtTrackNotFound)
	}
	return tghelpers.SendMD(c, trackCard(bk))
}

// trackCard is the customer view of a booking, in Markdown.
func trackCard(bk *booking.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔖 کد رهگیری: *%s*\n", bk.TrackingCode)
	fmt.Fprintf(&sb, "🎛 %s: %s\n", bk.Domain.Title(), format.MD(bk.Service()))
	fmt.Fprintf(&sb, "📌 وضعیت: %s", bk.Status.Title())
	return sb.String()
}
