package flow

const (
	msgInvalidOption   = "❌ گزینه انتخاب شده یافت نشد."
	msgExpectButton    = "لطفا یکی از گزینه‌های بالا را انتخاب کنید."
	msgExpectText      = "لطفا پاسخ را به صورت متن ارسال کنید."
	msgEmptyName       = "❌ نام نمی‌تواند خالی باشد."
	msgEmptyContact    = "❌ اطلاعات تماس نمی‌تواند خالی باشد."
	msgCatalogMissing  = "❌ این بخش در حال حاضر در دسترس نیست."
	msgUnavailable     = "❌ این سرویس در حال حاضر در دسترس نیست."
	msgNoHistory       = "امکان بازگشت وجود ندارد."
	msgNoFlow          = "لطفا ابتدا یک سرویس را از منو انتخاب کنید."
	msgApology         = "❌ متاسفانه خطایی رخ داد. لطفا دوباره تلاش کنید."
	msgCancelled       = "❌ عملیات لغو شد.\n\nلطفا گزینه مورد نظر خود را انتخاب کنید:"
	msgBack            = "🔙 بازگشت"
	msgAskName         = "📝 لطفا نام و نام خانوادگی خود را وارد کنید:"
	msgAskContact      = "📞 شماره تماس یا ایمیل خود را وارد کنید:"
	msgAskTrackCount   = "🎚️ تعداد ترک‌های پروژه خود را وارد کنید:"
	msgAskTopic        = "💡 لطفا موضوع مشاوره مورد نظر خود را وارد کنید:\nمثال: مشاوره تولید موسیقی، راهنمایی استودیو و..."
	msgAskPlatforms    = "📦 پلتفرم‌های مورد نظر برای انتشار را مشخص کنید:\nمثال: Spotify، Apple Music، YouTube Music و..."
	msgAskReleaseDate  = "📅 تاریخ انتشار مورد نظر را وارد کنید (مثلا: 1403/12/15):"
	msgAskContactShort = "📞 اطلاعات تماس خود را وارد کنید:"
	msgDone            = "✅ رزرو شما با موفقیت ثبت شد!"
	msgDoneFooter      = "💳 برای پرداخت و تکمیل سفارش، اطلاعات خود را به پشتیبانی ارسال کنید.\n📞 به زودی با شما تماس گرفته خواهد شد."
)
