// Package httpapi exposes a small read-only ops API over the booking data.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/m3rciful/dopiumbot/core/buildinfo"
	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

// Config enables the API. An empty Listen disables it.
type Config struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	// Token guards /api with a bearer check. It is required when Listen is set.
	Token string `yaml:"token" envconfig:"HTTP_TOKEN"`
	// AllowOrigins enables CORS for a browser dashboard.
	AllowOrigins []string `yaml:"allow_origins" envconfig:"HTTP_ALLOW_ORIGINS"`
}

// Orders is the read side of the admin panel.
type Orders interface {
	Overview(ctx context.Context) ([]admin.Summary, error)
	Pending(ctx context.Context, d booking.Domain, page int) (admin.Page, error)
	Lookup(ctx context.Context, code string) (*booking.Booking, error)
}

// NewRouter builds the gin engine.
func NewRouter(orders Orders, cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())
	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Accept", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": buildinfo.String()})
	})

	h := handlers{orders: orders}
	api := r.Group("/api", bearer(cfg.Token))
	api.GET("/pending", h.overview)
	api.GET("/pending/:domain", h.pending)
	api.GET("/bookings/:code", h.booking)
	return r
}

// Run serves cfg.Listen until ctx is done.
func Run(ctx context.Context, cfg Config, orders Orders) error {
	if strings.TrimSpace(cfg.Token) == "" {
		return fmt.Errorf("httpapi: token is required")
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           NewRouter(orders, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, logger.CompHTTP, "http.start", slog.String("listen", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	logger.Info(ctx, logger.CompHTTP, "http.stop", slog.String("status", logger.Status(err)), logger.Err(err))
	return err
}

func bearer(token string) gin.HandlerFunc {
	want := []byte("Bearer " + token)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader("Authorization"))
		if token == "" || subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), logger.CompHTTP, "http.request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("code", c.Writer.Status()),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}
