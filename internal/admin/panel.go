package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

// PageSize is the number of pending orders shown per page.
const PageSize = 10

// ErrInvalidCode is returned by Lookup for malformed tracking codes.
var ErrInvalidCode = errors.New("admin: invalid tracking code")

// Bookings is the part of the booking store the panel reads and updates.
type Bookings interface {
	FindByStatus(ctx context.Context, d booking.Domain, status booking.Status, limit, offset int) ([]booking.Booking, error)
	CountByStatus(ctx context.Context, d booking.Domain, status booking.Status) (int, error)
	UpdateStatus(ctx context.Context, d booking.Domain, id string, to booking.Status) (*booking.Booking, error)
	Track(ctx context.Context, code string) (*booking.Booking, error)
}

// UserNotifier messages a user directly.
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) error
}

// Summary is the pending count of one domain.
type Summary struct {
	Domain  booking.Domain
	Pending int
}

// Page is one page of pending orders. Page is zero based.
type Page struct {
	Domain   booking.Domain
	Page     int
	Pages    int
	Total    int
	Bookings []booking.Booking
}

func (p Page) HasPrev() bool { return p.Page > 0 }
func (p Page) HasNext() bool { return p.Page+1 < p.Pages }

// Panel implements the staff order workflow.
type Panel struct {
	store Bookings
	users UserNotifier
}

// NewPanel builds a panel; users may be nil.
func NewPanel(store Bookings, users UserNotifier) *Panel {
	return &Panel{store: store, users: users}
}

// Overview counts pending orders per domain, in menu order.
func (p *Panel) Overview(ctx context.Context) ([]Summary, error) {
	out := make([]Summary, 0, len(booking.Domains))
	for _, d := range booking.Domains {
		n, err := p.store.CountByStatus(ctx, d, booking.StatusPending)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Domain: d, Pending: n})
	}
	return out, nil
}

// Pending returns one page of pending orders, oldest first. Out of range
// pages are clamped.
func (p *Panel) Pending(ctx context.Context, d booking.Domain, page int) (Page, error) {
	total, err := p.store.CountByStatus(ctx, d, booking.StatusPending)
	if err != nil {
		return Page{}, err
	}
	pages := max((total+PageSize-1)/PageSize, 1)
	page = min(max(page, 0), pages-1)
	items, err := p.store.FindByStatus(ctx, d, booking.StatusPending, PageSize, page*PageSize)
	if err != nil {
		return Page{}, err
	}
	logger.Debug(ctx, logger.CompAdmin, "admin.pending",
		slog.String("domain", string(d)),
		slog.Int("page", page),
		slog.Int("pages", pages),
		slog.Int("count", len(items)),
	)
	return Page{Domain: d, Page: page, Pages: pages, Total: total, Bookings: items}, nil
}

// Confirm confirms a pending order and tells the customer. A failed
// customer message is logged and does not undo the confirmation.
func (p *Panel) Confirm(ctx context.Context, d booking.Domain, id string) (*booking.Booking, error) {
	b, err := p.store.UpdateStatus(ctx, d, id, booking.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm %s: %w", id, err)
	}
	p.tell(ctx, b, ConfirmedUserText(b))
	return b, nil
}

// Cancel cancels a pending order. The customer is not messaged.
func (p *Panel) Cancel(ctx context.Context, d booking.Domain, id string) (*booking.Booking, error) {
	b, err := p.store.UpdateStatus(ctx, d, id, booking.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel %s: %w", id, err)
	}
	return b, nil
}

// Lookup finds an order of any domain by tracking code.
func (p *Panel) Lookup(ctx context.Context, code string) (*booking.Booking, error) {
	code = booking.NormalizeTrackingCode(code)
	if !booking.ValidTrackingCode(code) {
		return nil, ErrInvalidCode
	}
	return p.store.Track(ctx, code)
}

func (p *Panel) tell(ctx context.Context, b *booking.Booking, text string) {
	if p.users == nil {
		return
	}
	if err := p.users.NotifyUser(ctx, b.UserID, text); err != nil {
		logger.Warn(ctx, logger.CompAdmin, "admin.notify_user",
			slog.String("status", "fail"),
			slog.String("tracking_code", b.TrackingCode),
			logger.Err(err),
		)
	}
}
