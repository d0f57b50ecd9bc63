// Package notify delivers staff notices about new bookings to the studio's
// channels: the Telegram staff group, a Slack webhook and email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/flow"
)

// Config selects the channels. Channels left empty are skipped.
type Config struct {
	GroupChatID     int64         `yaml:"group_chat_id" envconfig:"GROUP_CHAT_ID"`
	SlackWebhookURL string        `yaml:"slack_webhook_url" envconfig:"SLACK_WEBHOOK_URL"`
	Email           EmailConfig   `yaml:"email"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"NOTIFY_TIMEOUT"`
}

// defaultTimeout bounds a single channel call when Config.Timeout is unset.
const defaultTimeout = 10 * time.Second

// Budget returns how long a fan-out over n channels may take when each
// channel gets the per-channel timeout.
func (c Config) Budget(n int) time.Duration {
	per := c.Timeout
	if per <= 0 {
		per = defaultTimeout
	}
	if n < 1 {
		n = 1
	}
	return time.Duration(n) * per
}

// Named is a notifier with a label for logs.
type Named struct {
	Name string
	flow.Notifier
}

// Multi fans a notice out to every channel. One failing channel does not
// stop the others; the failures are joined.
type Multi struct {
	targets []Named
}

var _ flow.Notifier = (*Multi)(nil)

// NewMulti fans out to targets in order. Constructors in this package
// return nil for unconfigured channels; callers skip those before wrapping
// them, since a nil *Slack stored in a Notifier is not a nil interface.
func NewMulti(targets ...Named) *Multi {
	return &Multi{targets: append([]Named(nil), targets...)}
}

// Len returns the number of wired channels.
func (m *Multi) Len() int { return len(m.targets) }

func (m *Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, t := range m.targets {
		start := time.Now()
		err := t.Notify(ctx, text)
		logger.Debug(ctx, logger.CompNotify, "notify.send",
			slog.String("status", logger.Status(err)),
			slog.String("op", t.Name),
			slog.Duration("duration", logger.Took(start)),
			logger.Err(err),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}
