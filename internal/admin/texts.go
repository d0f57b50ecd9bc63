package admin

import (
	"fmt"
	"strings"
	"time"

	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

const (
	MenuTitle    = "👨‍💼 پنل مدیریت\n\nگزینه مورد نظر را انتخاب کنید:"
	NoAccess     = "❌ شما دسترسی مدیریت ندارید."
	NothingTodo  = "✅ هیچ سفارش در انتظار تاییدی وجود ندارد."
	NotFoundText = "❌ سفارش یافت نشد یا قبلا تایید شده است."
	BadCodeText  = "❌ کد رهگیری نامعتبر است."
	separator    = "===================="
)

// OverviewText lists pending counts per domain.
func OverviewText(sums []Summary) string {
	var b strings.Builder
	total := 0
	b.WriteString("📋 سفارشات در انتظار تایید:\n\n")
	for _, s := range sums {
		fmt.Fprintf(&b, "%s: %d\n", s.Domain.Title(), s.Pending)
		total += s.Pending
	}
	if total == 0 {
		return NothingTodo
	}
	return b.String()
}

// PageText renders a page of pending orders.
func PageText(p Page, loc *time.Location) string {
	if p.Total == 0 {
		return NothingTodo
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 سفارشات %s در انتظار تایید (%d/%d):\n\n", p.Domain.Title(), p.Page+1, p.Pages)
	for i := range p.Bookings {
		b.WriteString(Card(&p.Bookings[i], loc))
		b.WriteString("\n" + separator + "\n")
	}
	return b.String()
}

// Card is the staff view of one order.
func Card(bk *booking.Booking, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔖 کد رهگیری: %s\n", bk.TrackingCode)
	fmt.Fprintf(&b, "🎛 %s: %s\n", bk.Domain.Title(), bk.Service())
	fmt.Fprintf(&b, "👤 %s\n", bk.UserName)
	fmt.Fprintf(&b, "📞 %s\n", bk.UserContact)
	fmt.Fprintf(&b, "📅 %s\n", tghelpers.FormatStamp(bk.CreatedAt, loc))
	fmt.Fprintf(&b, "📌 %s\n", bk.Status.Title())
	return b.String()
}

// ConfirmedText replaces the staff message after confirmation.
func ConfirmedText(bk *booking.Booking) string {
	return fmt.Sprintf("✅ سفارش با کد رهگیری %s تایید شد!", bk.TrackingCode)
}

// CancelledText replaces the staff message after cancellation.
func CancelledText(bk *booking.Booking) string {
	return fmt.Sprintf("🚫 سفارش با کد رهگیری %s لغو شد.", bk.TrackingCode)
}

// ConfirmedUserText is sent to the customer.
func ConfirmedUserText(bk *booking.Booking) string {
	return fmt.Sprintf("✅ سفارش شما تایید شد!\n\n🔖 کد رهگیری: %s\n📞 به زودی با شما تماس گرفته خواهد شد.", bk.TrackingCode)
}

// ButtonLabel is the short inline label for an order.
func ButtonLabel(bk *booking.Booking) string {
	if bk.TrackingCode != "" {
		return bk.TrackingCode
	}
	return bk.ID[:min(8, len(bk.ID))]
}
