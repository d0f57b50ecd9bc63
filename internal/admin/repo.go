// Package admin holds the admin user table and the staff order panel.
package admin

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

// ErrNotFound is returned when no admin row matches.
var ErrNotFound = errors.New("admin: not found")

// Admin is a row of admin_users.
type Admin struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	FullName  string    `db:"full_name"`
	Active    bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// Repo reads and writes admin_users.
type Repo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewRepo wraps a migrated database.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db, now: time.Now}
}

// IsAdmin reports whether userID is an active admin.
func (r *Repo) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var n int
	q := r.db.Rebind("SELECT COUNT(1) FROM admin_users WHERE user_id = ? AND is_active = ?")
	if err := r.db.GetContext(ctx, &n, q, userID, true); err != nil {
		return false, fmt.Errorf("admin lookup %d: %w", userID, err)
	}
	return n > 0, nil
}

// Add inserts an admin or reactivates an existing one. Empty names keep the
// stored ones.
func (r *Repo) Add(ctx context.Context, a Admin) error {
	if a.UserID <= 0 {
		return fmt.Errorf("admin: invalid user id %d", a.UserID)
	}
	q := r.db.Rebind(`INSERT INTO admin_users (user_id, username, full_name, is_active, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    username = COALESCE(NULLIF(excluded.username, ''), admin_users.username),
    full_name = COALESCE(NULLIF(excluded.full_name, ''), admin_users.full_name),
    is_active = excluded.is_active`)
	_, err := r.db.ExecContext(ctx, q,
		a.UserID,
		strings.TrimPrefix(strings.TrimSpace(a.Username), "@"),
		strings.TrimSpace(a.FullName),
		true,
		r.now().UTC(),
	)
	logger.Info(ctx, logger.CompAdmin, "admin.add",
		slog.String("status", logger.Status(err)),
		slog.Int64("admin_id", a.UserID),
		logger.Err(err),
	)
	if err != nil {
		return fmt.Errorf("add admin %d: %w", a.UserID, err)
	}
	return nil
}

// Remove deactivates an admin. The row is kept.
func (r *Repo) Remove(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE admin_users SET is_active = ? WHERE user_id = ?"), false, userID)
	if err != nil {
		return fmt.Errorf("remove admin %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove admin %d: %w", userID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, userID)
	}
	logger.Info(ctx, logger.CompAdmin, "admin.remove", slog.String("status", "ok"), slog.Int64("admin_id", userID))
	return nil
}

// Get returns one admin row, active or not.
func (r *Repo) Get(ctx context.Context, userID int64) (*Admin, error) {
	var a Admin
	q := r.db.Rebind("SELECT user_id, username, full_name, is_active, created_at FROM admin_users WHERE user_id = ?")
	if err := r.db.GetContext(ctx, &a, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("get admin %d: %w", userID, err)
	}
	return &a, nil
}

// List returns admins ordered by id; inactive rows only when all is set.
func (r *Repo) List(ctx context.Context, all bool) ([]Admin, error) {
	q := "SELECT user_id, username, full_name, is_active, created_at FROM admin_users"
	var args []any
	if !all {
		q += " WHERE is_active = ?"
		args = append(args, true)
	}
	q += " ORDER BY user_id"
	var out []Admin
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}
