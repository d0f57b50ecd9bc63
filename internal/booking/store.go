package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dopiumbot/core/logger"
)

var commonColumns = []string{"id", "user_id", "user_name", "user_contact", "tracking_code", "status"}

var domainColumns = map[Domain][]string{
	DomainRecording:       {"service_tier_id", "service_option_id", "service_option_name", "service_price"},
	DomainMusicProduction: {"service_tier_id", "service_option_id", "service_option_name", "service_price"},
	DomainMixMaster:       {"plan_id", "plan_name", "plan_price", "track_count"},
	DomainConsultation:    {"consultant_id", "consultant_name", "topic"},
	DomainDistribution:    {"pricing_id", "pricing_name", "pricing_price", "platforms", "release_date"},
}

func columns(d Domain) []string {
	cols := append([]string(nil), commonColumns...)
	cols = append(cols, domainColumns[d]...)
	return append(cols, "created_at", "updated_at")
}

// Store persists bookings, one table per domain.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore wraps an open database whose schema is migrated.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save inserts a new booking into its domain's table.
func (s *Store) Save(ctx context.Context, b *Booking) error {
	if b == nil {
		return fmt.Errorf("%w: nil booking", ErrInvalidBooking)
	}
	if !b.Domain.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, b.Domain)
	}
	start := time.Now()
	cols := columns(b.Domain)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s)",
		b.Domain.Table(), strings.Join(cols, ", "), strings.Join(cols, ", :"))

	_, err := s.db.NamedExecContext(ctx, query, b)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("domain", string(b.Domain)),
		slog.String("booking_id", b.ID),
		slog.String("tracking_code", b.TrackingCode),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		logger.Error(ctx, logger.CompBooking, "booking.save", append(attrs, logger.Err(err))...)
		return fmt.Errorf("booking: save %s: %w", b.Domain, err)
	}
	logger.Info(ctx, logger.CompBooking, "booking.save", attrs...)
	return nil
}

// UpdateStatus applies a pending → confirmed/cancelled transition and
// returns the updated booking. Concurrent transitions of one booking are
// resolved by the database: only the first wins.
func (s *Store) UpdateStatus(ctx context.Context, d Domain, id string, to Status) (*Booking, error) {
	b, err := s.FindByID(ctx, d, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	switch to {
	case StatusConfirmed:
		err = b.Confirm(now)
	case StatusCancelled:
		err = b.Cancel(now)
	default:
		err = fmt.Errorf("%w: cannot move to %q", ErrInvalidBooking, to)
	}
	if err != nil {
		return nil, err
	}

	query := s.db.Rebind(fmt.Sprintf(
		"UPDATE %s SET status = ?, updated_at = ? WHERE id = ? AND status = ?", d.Table()))
	res, err := s.db.ExecContext(ctx, query, string(b.Status), b.UpdatedAt, b.ID, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("booking: update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("booking: update status: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s changed concurrently", ErrNotPending, b.TrackingCode)
	}
	logger.Info(ctx, logger.CompBooking, "booking.status",
		slog.String("status", string(b.Status)),
		slog.String("domain", string(d)),
		slog.String("booking_id", b.ID),
		slog.String("tracking_code", b.TrackingCode),
	)
	return b, nil
}

// FindByID loads one booking.
func (s *Store) FindByID(ctx context.Context, d Domain, id string) (*Booking, error) {
	return s.getOne(ctx, d, "id = ?", id)
}

// FindByTrackingCode loads one booking of domain d by its public code.
func (s *Store) FindByTrackingCode(ctx context.Context, d Domain, code string) (*Booking, error) {
	return s.getOne(ctx, d, "tracking_code = ?", NormalizeTrackingCode(code))
}

// Track searches every domain for a tracking code.
func (s *Store) Track(ctx context.Context, code string) (*Booking, error) {
	code = NormalizeTrackingCode(code)
	if !ValidTrackingCode(code) {
		return nil, ErrNotFound
	}
	for _, d := range Domains {
		b, err := s.FindByTrackingCode(ctx, d, code)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return b, err
	}
	return nil, ErrNotFound
}

// FindByStatus lists bookings with the given status, oldest first. A
// non-positive limit returns all rows.
func (s *Store) FindByStatus(ctx context.Context, d Domain, status Status, limit, offset int) ([]Booking, error) {
	return s.list(ctx, d, "status = ?", []any{string(status)}, "created_at ASC", limit, offset)
}

// FindAll lists every booking of domain d, newest first.
func (s *Store) FindAll(ctx context.Context, d Domain) ([]Booking, error) {
	return s.list(ctx, d, "", nil, "created_at DESC", 0, 0)
}

// FindByUser lists a user's bookings of domain d, newest first.
func (s *Store) FindByUser(ctx context.Context, d Domain, userID int64) ([]Booking, error) {
	return s.list(ctx, d, "user_id = ?", []any{userID}, "created_at DESC", 0, 0)
}

// CountByStatus counts bookings of domain d with the given status.
func (s *Store) CountByStatus(ctx context.Context, d Domain, status Status) (int, error) {
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
	var n int
	query := s.db.Rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = ?", d.Table()))
	if err := s.db.GetContext(ctx, &n, query, string(status)); err != nil {
		return 0, fmt.Errorf("booking: count %s: %w", d, err)
	}
	return n, nil
}

func (s *Store) getOne(ctx context.Context, d Domain, where string, args ...any) (*Booking, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
	query := s.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(columns(d), ", "), d.Table(), where))
	var b Booking
	if err := s.db.GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("booking: get %s: %w", d, err)
	}
	b.Domain = d
	return &b, nil
}

func (s *Store) list(ctx context.Context, d Domain, where string, args []any, order string, limit, offset int) ([]Booking, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, d)
	}
	var q strings.Builder
	fmt.Fprintf(&q, "SELECT %s FROM %s", strings.Join(columns(d), ", "), d.Table())
	if where != "" {
		q.WriteString(" WHERE " + where)
	}
	q.WriteString(" ORDER BY " + order)
	if limit > 0 {
		fmt.Fprintf(&q, " LIMIT %d OFFSET %d", limit, max(offset, 0))
	}

	var out []Booking
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q.String()), args...); err != nil {
		return nil, fmt.Errorf("booking: list %s: %w", d, err)
	}
	for i := range out {
		out[i].Domain = d
	}
	return out, nil
}
