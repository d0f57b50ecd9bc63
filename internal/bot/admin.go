package bot

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"
	"github.com/m3rciful/dopiumbot/core/telegram/keyboard"
	"github.com/m3rciful/dopiumbot/core/telegram/middleware"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"

	tele "gopkg.in/telebot.v4"
)

// Callback keys of the admin panel.
const (
	cbAdminHome    = "adm_home"
	cbAdminList    = "adm_list"
	cbAdminConfirm = "adm_ok"
	cbAdminCancel  = "adm_no"
)

func (b *Bot) adminEnabled() bool { return b.admins != nil && b.panel != nil }

func (b *Bot) adminOptions() middleware.AdminOptions {
	return middleware.AdminOptions{
		Checker: b.admins,
		OnReject: func(c tele.Context) error {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: admin.NoAccess, ShowAlert: true})
			}
			return tghelpers.SendText(c, admin.NoAccess)
		},
	}
}

func (b *Bot) isAdmin(c tele.Context) bool {
	if b.admins == nil || c.Sender() == nil {
		return false
	}
	ctx := tghelpers.BuildContext(c)
	ok, err := b.admins.IsAdmin(ctx, c.Sender().ID)
	if err != nil {
		logger.Error(ctx, logger.CompAdmin, "admin.check", logger.Err(err))
	}
	return ok
}

func (b *Bot) handleAdmin(c tele.Context) error {
	return tghelpers.SendText(c, admin.MenuTitle, adminMenu())
}

func (b *Bot) handleOrders(c tele.Context) error {
	text, markup, err := b.overview(c)
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, text, markup)
}

func (b *Bot) handleAdminHome(c tele.Context) error {
	_ = c.Respond()
	text, markup, err := b.overview(c)
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendText(c, text, markup)
}

func (b *Bot) overview(c tele.Context) (string, *tele.ReplyMarkup, error) {
	sums, err := b.panel.Overview(tghelpers.BuildContext(c))
	if err != nil {
		return "", nil, err
	}
	return admin.OverviewText(sums), overviewMarkup(sums), nil
}

func (b *Bot) handleAdminList(c tele.Context) error {
	_ = c.Respond()
	d, page, err := listPayload(callbacks.CallbackPayload(c))
	if err != nil {
		return err
	}
	return b.showPage(c, d, page, "")
}

// handleAdminDecision confirms or cancels the order named in the payload and
// redraws the page it was listed on.
func (b *Bot) handleAdminDecision(to booking.Status) tele.HandlerFunc {
	return func(c tele.Context) error {
		parts, err := callbacks.PayloadParts(callbacks.CallbackPayload(c), 3)
		if err != nil {
			_ = c.Respond()
			return err
		}
		d, err := booking.ParseDomain(parts[0])
		if err != nil {
			_ = c.Respond()
			return err
		}
		page, _ := callbacks.PayloadInt(parts[2])
		ctx := tghelpers.BuildContext(c)

		var bk *booking.Booking
		if to == booking.StatusConfirmed {
			bk, err = b.panel.Confirm(ctx, d, parts[1])
		} else {
			bk, err = b.panel.Cancel(ctx, d, parts[1])
		}
		switch {
		case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrNotPending), errors.Is(err, booking.ErrAlreadyCancelled):
			_ = c.Respond(&tele.CallbackResponse{Text: admin.NotFoundText, ShowAlert: true})
			return b.showPage(c, d, page, "")
		case err != nil:
			_ = c.Respond()
			return err
		}

		head := admin.ConfirmedText(bk)
		if to == booking.StatusCancelled {
			head = admin.CancelledText(bk)
		}
		_ = c.Respond(&tele.CallbackResponse{Text: head})
		return b.showPage(c, d, page, head)
	}
}

func (b *Bot) showPage(c tele.Context, d booking.Domain, page int, head string) error {
	p, err := b.panel.Pending(tghelpers.BuildContext(c), d, page)
	if err != nil {
		return err
	}
	text := admin.PageText(p, b.loc)
	if head != "" {
		text = head + "\n\n" + text
	}
	return tghelpers.EditOrSendText(c, text, pageMarkup(p))
}

func listPayload(payload string) (booking.Domain, int, error) {
	parts, err := callbacks.PayloadParts(payload, 2)
	if err != nil {
		return "", 0, fmt.Errorf("admin list payload %q: %w", payload, err)
	}
	d, err := booking.ParseDomain(parts[0])
	if err != nil {
		return "", 0, err
	}
	page, err := callbacks.PayloadInt(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("admin list page %q: %w", parts[1], err)
	}
	return d, page, nil
}

// overviewMarkup has one button per domain with pending orders.
func overviewMarkup(sums []admin.Summary) *tele.ReplyMarkup {
	var btns []keyboard.InlineBtn
	for _, s := range sums {
		if s.Pending == 0 {
			continue
		}
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (%d)", s.Domain.Title(), s.Pending),
			Unique: cbAdminList,
			Data:   callbacks.Join(string(s.Domain), "0"),
		})
	}
	if len(btns) == 0 {
		return nil
	}
	return keyboard.InlineButtonsNPerRow(btns, 2)
}

// pageMarkup has a confirm and a cancel button per order, then paging.
func pageMarkup(p admin.Page) *tele.ReplyMarkup {
	page := strconv.Itoa(p.Page)
	rows := make([][]keyboard.InlineBtn, 0, len(p.Bookings)+1)
	for i := range p.Bookings {
		bk := &p.Bookings[i]
		label := admin.ButtonLabel(bk)
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "✅ تایید " + label, Unique: cbAdminConfirm, Data: callbacks.Join(string(p.Domain), bk.ID, page)},
			{Text: "❌ لغو " + label, Unique: cbAdminCancel, Data: callbacks.Join(string(p.Domain), bk.ID, page)},
		})
	}
	var nav []keyboard.InlineBtn
	if p.HasPrev() {
		nav = append(nav, keyboard.InlineBtn{Text: "◀️ قبلی", Unique: cbAdminList, Data: callbacks.Join(string(p.Domain), strconv.Itoa(p.Page-1))})
	}
	nav = append(nav, keyboard.InlineBtn{Text: "🔙 بازگشت", Unique: cbAdminHome})
	if p.HasNext() {
		nav = append(nav, keyboard.InlineBtn{Text: "بعدی ▶️", Unique: cbAdminList, Data: callbacks.Join(string(p.Domain), strconv.Itoa(p.Page+1))})
	}
	return keyboard.InlineButtonsRows(append(rows, nav)...)
}
