package bot

import (
	"github.com/m3rciful/dopiumbot/core/telegram/keyboard"
	"github.com/m3rciful/dopiumbot/internal/booking"

	tele "gopkg.in/telebot.v4"
)

// Reply keyboard labels.
const (
	btnRecording       = "ضبط"
	btnMusicProduction = "آهنگسازی"
	btnMixMaster       = "میکس و مستر"
	btnConsultation    = "مشاوره"
	btnDistribution    = "خدمات دیستریبیوشن"
	btnHelp            = "راهنما"
	btnCancel          = "لغو"
	btnOrders          = "تایید سفارش"
)

const (
	txtChooseOption  = "لطفا گزینه مورد نظر خود را انتخاب کنید:"
	txtInvalidOption = "لطفا یک گزینه معتبر انتخاب کنید."
	txtCancelHint    = "برای لغو عملیات، دکمه 'لغو' را فشار دهید:"
	txtJoinAlert     = "لطفا ابتدا در کانال عضو شوید."
	txtUnsupported   = "❌ این عملیات پشتیبانی نمی‌شود."
	txtTextOnly      = "لطفا فقط پیام متنی ارسال کنید."
	txtSlowDown      = "⏳ لطفا کمی صبر کنید و دوباره تلاش کنید."
	txtKeyboard      = "📱 منوی اصلی:"
	txtTrackUsage    = "برای پیگیری سفارش، کد رهگیری را بعد از دستور بفرستید:\n/track ABCDE"
	txtTrackNotFound = "❌ سفارشی با این کد رهگیری یافت نشد."
	txtWelcome       = "سلام %s! 👋\n\nبه ربات استودیو دوپیوم خوش آمدید. از منوی زیر سرویس مورد نظر را انتخاب کنید یا /help را بزنید."
	txtWelcomeAdmin  = "👨‍💼 خوش آمدید %s! 👋\n\nشما به عنوان مدیر دسترسی دارید. از منوی زیر استفاده کنید."
	txtHelp          = "*📖 راهنما*\n\nسرویس مورد نظر را از منوی پایین انتخاب کنید و به سوالات پاسخ دهید. در پایان یک کد رهگیری دریافت می‌کنید.\n\n/start شروع دوباره\n/keyboard نمایش منو\n/track پیگیری سفارش\n/help همین راهنما\n\nدر هر مرحله با دکمه 'لغو' می‌توانید عملیات را متوقف کنید."
)

// menuDomains maps the service buttons to their wizards, in menu order.
var menuDomains = []struct {
	Label   string
	Command string
	Domain  booking.Domain
}{
	{btnRecording, "/recording", booking.DomainRecording},
	{btnMusicProduction, "/production", booking.DomainMusicProduction},
	{btnMixMaster, "/mixmaster", booking.DomainMixMaster},
	{btnConsultation, "/consultation", booking.DomainConsultation},
	{btnDistribution, "/distribution", booking.DomainDistribution},
}

func mainMenu() *tele.ReplyMarkup {
	m := keyboard.ReplyButtons(
		[]string{btnRecording, btnMusicProduction},
		[]string{btnMixMaster, btnConsultation},
		[]string{btnDistribution, btnHelp},
	)
	m.Placeholder = "گزینه مورد نظر را انتخاب کنید..."
	return m
}

func cancelMenu() *tele.ReplyMarkup {
	m := keyboard.ReplyButtons([]string{btnCancel})
	m.Placeholder = "برای لغو عملیات، 'لغو' را فشار دهید"
	return m
}

func adminMenu() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{btnOrders}, []string{btnCancel})
}
