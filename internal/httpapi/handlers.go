package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

type handlers struct {
	orders Orders
}

type summaryView struct {
	Domain  string `json:"domain"`
	Title   string `json:"title"`
	Pending int    `json:"pending"`
}

type bookingView struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	TrackingCode string    `json:"tracking_code"`
	Status       string    `json:"status"`
	Service      string    `json:"service"`
	UserID       int64     `json:"user_id"`
	UserName     string    `json:"user_name"`
	UserContact  string    `json:"user_contact"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func viewOf(b *booking.Booking) bookingView {
	return bookingView{
		ID:           b.ID,
		Domain:       string(b.Domain),
		TrackingCode: b.TrackingCode,
		Status:       string(b.Status),
		Service:      b.Service(),
		UserID:       b.UserID,
		UserName:     b.UserName,
		UserContact:  b.UserContact,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func (h handlers) overview(c *gin.Context) {
	sums, err := h.orders.Overview(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]summaryView, 0, len(sums))
	total := 0
	for _, s := range sums {
		out = append(out, summaryView{Domain: string(s.Domain), Title: s.Domain.Title(), Pending: s.Pending})
		total += s.Pending
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "domains": out})
}

func (h handlers) pending(c *gin.Context) {
	d, err := booking.ParseDomain(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
			return
		}
	}
	p, err := h.orders.Pending(c.Request.Context(), d, page-1)
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]bookingView, 0, len(p.Bookings))
	for i := range p.Bookings {
		items = append(items, viewOf(&p.Bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"domain":   string(p.Domain),
		"page":     p.Page + 1,
		"pages":    p.Pages,
		"total":    p.Total,
		"bookings": items,
	})
}

func (h handlers) booking(c *gin.Context) {
	b, err := h.orders.Lookup(c.Request.Context(), c.Param("code"))
	switch {
	case errors.Is(err, admin.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tracking code"})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case err != nil:
		h.fail(c, err)
	default:
		c.JSON(http.StatusOK, viewOf(b))
	}
}

func (h handlers) fail(c *gin.Context, err error) {
	logger.Error(c.Request.Context(), logger.CompHTTP, "http.handler",
		slog.String("path", c.FullPath()),
		logger.Err(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
