package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/dopiumbot/internal/booking"
	"github.com/m3rciful/dopiumbot/internal/catalog"
)

// Field names in Data.
const (
	FieldTierID          = "service_tier_id"
	FieldTierName        = "service_tier_name"
	FieldOptionID        = "service_option_id"
	FieldOptionName      = "service_option_name"
	FieldPrice           = "service_price"
	FieldPlanID          = "plan_id"
	FieldPlanName        = "plan_name"
	FieldPlanPrice       = "plan_price"
	FieldTrackCount      = "track_count"
	FieldConsultantID    = "consultant_id"
	FieldConsultantName  = "consultant_name"
	FieldConsultantPrice = "consultant_price"
	FieldTopic           = "topic"
	FieldPricingID       = "pricing_id"
	FieldPricingName     = "pricing_name"
	FieldPricingPrice    = "pricing_price"
	FieldPlatforms       = "platforms"
	FieldReleaseDate     = "release_date"
	FieldUserName        = "user_name"
	FieldUserContact     = "user_contact"
)

// Deps are the collaborators shared by every studio wizard.
type Deps struct {
	Catalog *catalog.Catalog
	Store   Saver
	Now     func() time.Time
}

// StudioWizards builds the wizard of every studio service.
func StudioWizards(deps Deps) ([]*Wizard, error) {
	builders := []func(Deps) (*Wizard, error){
		Recording,
		MusicProduction,
		MixMaster,
		Consultation,
		Distribution,
	}
	out := make([]*Wizard, 0, len(builders))
	for _, build := range builders {
		w, err := build(deps)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// Recording: select_tier → select_option → get_name → get_contact.
func Recording(deps Deps) (*Wizard, error) {
	return tieredWizard(booking.DomainRecording, deps)
}

// MusicProduction has the same shape as Recording over its own catalog.
func MusicProduction(deps Deps) (*Wizard, error) {
	return tieredWizard(booking.DomainMusicProduction, deps)
}

func tieredWizard(d booking.Domain, deps Deps) (*Wizard, error) {
	cat := deps.Catalog
	steps := []Step{
		pick(cat, d, "select_tier", "", intro(cat, d), func(data Data, it catalog.Item) {
			data[FieldTierID] = it.ID
			data[FieldTierName] = it.Name
		}),
		pick(cat, d, "select_option", FieldTierID, func(data Data) string {
			msg := data[FieldTierName]
			if tier, err := cat.Resolve(d, "select_tier", "", data[FieldTierID]); err == nil && tier.Description != "" {
				msg += "\n\n" + tier.Description
			}
			return msg
		}, func(data Data, it catalog.Item) {
			data[FieldOptionID] = it.ID
			data[FieldOptionName] = it.Name
			data[FieldPrice] = it.PriceLabel()
		}),
		ask("get_name", FieldUserName, func(data Data) string {
			return chosen(data[FieldOptionName], data[FieldPrice]) + msgAskName
		}),
		ask("get_contact", FieldUserContact, static(msgAskContact)),
	}
	return NewWizard(d, steps, completion(d, deps, nil, func(data Data) []detail {
		return []detail{
			{"پلن", data[FieldTierName]},
			{"سرویس", data[FieldOptionName]},
			{"قیمت", data[FieldPrice]},
		}
	}))
}

// MixMaster: select_plan → get_track_count → get_name → get_contact.
func MixMaster(deps Deps) (*Wizard, error) {
	d := booking.DomainMixMaster
	cat := deps.Catalog
	steps := []Step{
		pick(cat, d, "select_plan", "", intro(cat, d), func(data Data, it catalog.Item) {
			data[FieldPlanID] = it.ID
			data[FieldPlanName] = it.Name
			data[FieldPlanPrice] = it.PriceLabel()
		}),
		ask("get_track_count", FieldTrackCount, func(data Data) string {
			return chosen(data[FieldPlanName], data[FieldPlanPrice]) + msgAskTrackCount
		}),
		ask("get_name", FieldUserName, static(msgAskName)),
		ask("get_contact", FieldUserContact, static(msgAskContact)),
	}
	return NewWizard(d, steps, completion(d, deps, nil, func(data Data) []detail {
		return []detail{
			{"پلن", data[FieldPlanName]},
			{"قیمت", data[FieldPlanPrice]},
			{"تعداد ترک", data[FieldTrackCount]},
		}
	}))
}

// Consultation: select_consultant → get_topic → get_name → get_contact.
func Consultation(deps Deps) (*Wizard, error) {
	d := booking.DomainConsultation
	cat := deps.Catalog
	steps := []Step{
		pick(cat, d, "select_consultant", "", intro(cat, d), func(data Data, it catalog.Item) {
			data[FieldConsultantID] = it.ID
			data[FieldConsultantName] = it.Name
			data[FieldConsultantPrice] = it.PriceLabel()
		}),
		ask("get_topic", FieldTopic, func(data Data) string {
			return chosen(data[FieldConsultantName], data[FieldConsultantPrice]) + msgAskTopic
		}),
		ask("get_name", FieldUserName, static(msgAskName)),
		ask("get_contact", FieldUserContact, static(msgAskContact)),
	}
	return NewWizard(d, steps, completion(d, deps, nil, func(data Data) []detail {
		return []detail{
			{"مشاور", data[FieldConsultantName]},
			{"قیمت", data[FieldConsultantPrice]},
			{"موضوع", data[FieldTopic]},
		}
	}))
}

// Distribution: select_pricing → get_platforms → get_release_date →
// get_contact. It has no name step; the booking carries the user's profile
// name.
func Distribution(deps Deps) (*Wizard, error) {
	d := booking.DomainDistribution
	cat := deps.Catalog
	steps := []Step{
		pick(cat, d, "select_pricing", "", intro(cat, d), func(data Data, it catalog.Item) {
			data[FieldPricingID] = it.ID
			data[FieldPricingName] = it.Name
			data[FieldPricingPrice] = it.PriceLabel()
		}),
		ask("get_platforms", FieldPlatforms, func(data Data) string {
			return chosen(data[FieldPricingName], data[FieldPricingPrice]) + msgAskPlatforms
		}),
		ask("get_release_date", FieldReleaseDate, static(msgAskReleaseDate)),
		ask("get_contact", FieldUserContact, static(msgAskContactShort)),
	}
	profileName := func(s *Session, b *booking.Booking) {
		b.UserName = s.DisplayName
		if strings.TrimSpace(b.UserName) == "" {
			b.UserName = strconv.FormatInt(s.UserID, 10)
		}
	}
	return NewWizard(d, steps, completion(d, deps, profileName, func(data Data) []detail {
		return []detail{
			{"تعرفه", data[FieldPricingName]},
			{"قیمت", data[FieldPricingPrice]},
			{"پلتفرم‌ها", data[FieldPlatforms]},
			{"تاریخ انتشار", data[FieldReleaseDate]},
		}
	}))
}

func pick(cat *catalog.Catalog, d booking.Domain, step, parentField string, message func(Data) string, apply func(Data, catalog.Item)) Step {
	parent := func(data Data) string {
		if parentField == "" {
			return ""
		}
		return data[parentField]
	}
	return Step{
		Name:  step,
		Input: InputSelection,
		Render: func(data Data) Render {
			items, err := cat.Options(d, step, parent(data))
			if err != nil {
				return Render{Kind: KindError, Message: msgCatalogMissing}
			}
			r := Render{Message: message(data)}
			for _, it := range items {
				r.Options = append(r.Options, Option{Label: it.Label(), Token: it.ID})
			}
			return r
		},
		Choose: func(data Data, token string) error {
			it, err := cat.Resolve(d, step, parent(data), token)
			if err != nil {
				return err
			}
			apply(data, it)
			return nil
		},
	}
}

func ask(step, field string, prompt func(Data) string) Step {
	return Step{
		Name:   step,
		Input:  InputText,
		Field:  field,
		Render: func(data Data) Render { return Render{Message: prompt(data)} },
	}
}

func intro(cat *catalog.Catalog, d booking.Domain) func(Data) string {
	return func(Data) string { return cat.Intro(d) }
}

func static(msg string) func(Data) string {
	return func(Data) string { return msg }
}

func chosen(name, price string) string {
	if name == "" {
		return ""
	}
	s := "✅ " + name + " انتخاب شد\n"
	if price != "" {
		s += "💰 قیمت: " + price + "\n"
	}
	return s + "\n"
}

type detail struct{ label, value string }

func completion(d booking.Domain, deps Deps, adjust func(*Session, *booking.Booking), details func(Data) []detail) Completion {
	return Completion{
		Store: deps.Store,
		Now:   deps.Now,
		Draft: func(s *Session, data Data) booking.Booking {
			b := draftFrom(d, s, data)
			if adjust != nil {
				adjust(s, &b)
			}
			return b
		},
		Summary: func(b *booking.Booking, data Data) string {
			var sb strings.Builder
			sb.WriteString(msgDone + "\n\n📋 خلاصه رزرو:\n")
			for _, dt := range details(data) {
				writeDetail(&sb, "• ", dt)
			}
			fmt.Fprintf(&sb, "• تماس شما: %s\n", b.UserContact)
			fmt.Fprintf(&sb, "• 🔖 کد رهگیری: %s\n\n", b.TrackingCode)
			sb.WriteString(msgDoneFooter)
			return sb.String()
		},
		Notice: func(b *booking.Booking, data Data) string {
			var sb strings.Builder
			fmt.Fprintf(&sb, "📋 رزرو جدید - سرویس %s\n\n", d.Title())
			fmt.Fprintf(&sb, "👤 کاربر: %s\n", b.UserName)
			fmt.Fprintf(&sb, "🆔 شناسه: %d\n", b.UserID)
			fmt.Fprintf(&sb, "📞 تماس: %s\n", b.UserContact)
			for _, dt := range details(data) {
				writeDetail(&sb, "▫️ ", dt)
			}
			fmt.Fprintf(&sb, "🔖 کد رهگیری: %s\n", b.TrackingCode)
			fmt.Fprintf(&sb, "📊 وضعیت: %s", b.Status.Title())
			return sb.String()
		},
	}
}

func writeDetail(sb *strings.Builder, bullet string, dt detail) {
	if dt.value == "" {
		return
	}
	sb.WriteString(bullet + dt.label + ": " + dt.value + "\n")
}

func draftFrom(d booking.Domain, s *Session, data Data) booking.Booking {
	return booking.Booking{
		Domain:            d,
		UserID:            s.UserID,
		UserName:          data[FieldUserName],
		UserContact:       data[FieldUserContact],
		ServiceTierID:     data[FieldTierID],
		ServiceOptionID:   data[FieldOptionID],
		ServiceOptionName: data[FieldOptionName],
		ServicePrice:      data[FieldPrice],
		PlanID:            data[FieldPlanID],
		PlanName:          data[FieldPlanName],
		PlanPrice:         data[FieldPlanPrice],
		TrackCount:        data[FieldTrackCount],
		ConsultantID:      data[FieldConsultantID],
		ConsultantName:    data[FieldConsultantName],
		Topic:             data[FieldTopic],
		PricingID:         data[FieldPricingID],
		PricingName:       data[FieldPricingName],
		PricingPrice:      data[FieldPricingPrice],
		Platforms:         data[FieldPlatforms],
		ReleaseDate:       data[FieldReleaseDate],
	}
}
