// Package booking holds the studio's order records and their persistence.
package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Domain identifies one of the studio's bookable services.
type Domain string

const (
	DomainRecording       Domain = "recording"
	DomainMusicProduction Domain = "music_production"
	DomainMixMaster       Domain = "mix_master"
	DomainConsultation    Domain = "consultation"
	DomainDistribution    Domain = "distribution"
)

// Domains lists every service in menu order.
var Domains = []Domain{
	DomainRecording,
	DomainMusicProduction,
	DomainMixMaster,
	DomainConsultation,
	DomainDistribution,
}

var domainTitles = map[Domain]string{
	DomainRecording:       "ضبط",
	DomainMusicProduction: "آهنگسازی",
	DomainMixMaster:       "میکس و مستر",
	DomainConsultation:    "مشاوره",
	DomainDistribution:    "دیستریبیوشن",
}

// Valid reports whether d is a known service.
func (d Domain) Valid() bool {
	_, ok := domainTitles[d]
	return ok
}

// Title returns the user-facing service name.
func (d Domain) Title() string {
	if t, ok := domainTitles[d]; ok {
		return t
	}
	return string(d)
}

// Table returns the table holding the domain's bookings.
func (d Domain) Table() string { return string(d) + "_bookings" }

// ParseDomain accepts a domain identifier in any letter case.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Title returns the Persian label shown to staff and users.
func (s Status) Title() string {
	switch s {
	case StatusPending:
		return "در انتظار تایید"
	case StatusConfirmed:
		return "تایید شده"
	case StatusCancelled:
		return "لغو شده"
	}
	return string(s)
}

var (
	ErrNotFound         = errors.New("booking: not found")
	ErrNotPending       = errors.New("booking: not pending")
	ErrAlreadyCancelled = errors.New("booking: already cancelled")
	ErrInvalidBooking   = errors.New("booking: invalid")
	ErrUnknownDomain    = errors.New("booking: unknown domain")
)

// Booking is one order. Only the fields of its Domain are populated.
type Booking struct {
	ID           string `db:"id"`
	Domain       Domain `db:"-"`
	UserID       int64  `db:"user_id"`
	UserName     string `db:"user_name"`
	UserContact  string `db:"user_contact"`
	TrackingCode string `db:"tracking_code"`
	Status       Status `db:"status"`

	// recording, music_production
	ServiceTierID     string `db:"service_tier_id"`
	ServiceOptionID   string `db:"service_option_id"`
	ServiceOptionName string `db:"service_option_name"`
	ServicePrice      string `db:"service_price"`

	// mix_master
	PlanID     string `db:"plan_id"`
	PlanName   string `db:"plan_name"`
	PlanPrice  string `db:"plan_price"`
	TrackCount string `db:"track_count"`

	// consultation
	ConsultantID   string `db:"consultant_id"`
	ConsultantName string `db:"consultant_name"`
	Topic          string `db:"topic"`

	// distribution
	PricingID    string `db:"pricing_id"`
	PricingName  string `db:"pricing_name"`
	PricingPrice string `db:"pricing_price"`
	Platforms    string `db:"platforms"`
	ReleaseDate  string `db:"release_date"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// New completes draft into a pending booking with a fresh id and tracking
// code. The requester's name and contact must be non-blank.
func New(draft Booking, now time.Time) (*Booking, error) {
	if !draft.Domain.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, draft.Domain)
	}
	if strings.TrimSpace(draft.UserName) == "" {
		return nil, fmt.Errorf("%w: user name is empty", ErrInvalidBooking)
	}
	if strings.TrimSpace(draft.UserContact) == "" {
		return nil, fmt.Errorf("%w: user contact is empty", ErrInvalidBooking)
	}
	code, err := NewTrackingCode()
	if err != nil {
		return nil, err
	}
	b := draft
	b.ID = uuid.NewString()
	b.TrackingCode = code
	b.Status = StatusPending
	b.CreatedAt = now.UTC()
	b.UpdatedAt = b.CreatedAt
	return &b, nil
}

// Confirm moves a pending booking to confirmed.
func (b *Booking) Confirm(now time.Time) error {
	return b.transition(StatusConfirmed, now)
}

// Cancel moves a pending booking to cancelled.
func (b *Booking) Cancel(now time.Time) error {
	return b.transition(StatusCancelled, now)
}

func (b *Booking) transition(to Status, now time.Time) error {
	switch {
	case b.Status == StatusCancelled:
		return fmt.Errorf("%w: %s", ErrAlreadyCancelled, b.TrackingCode)
	case b.Status != StatusPending:
		return fmt.Errorf("%w: %s is %s", ErrNotPending, b.TrackingCode, b.Status)
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	return nil
}

// Service returns the selected item's display name for the booking's domain.
func (b *Booking) Service() string {
	switch b.Domain {
	case DomainRecording, DomainMusicProduction:
		return b.ServiceOptionName
	case DomainMixMaster:
		return b.PlanName
	case DomainConsultation:
		return b.ConsultantName
	case DomainDistribution:
		return b.PricingName
	}
	return ""
}
