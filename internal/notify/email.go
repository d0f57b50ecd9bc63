package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/resendlabs/resend-go"
)

const emailSubject = "رزرو جدید در استودیو دوپیوم"

// EmailConfig configures the Resend channel.
type EmailConfig struct {
	APIKey string   `yaml:"api_key" envconfig:"RESEND_API_KEY"`
	From   string   `yaml:"from" envconfig:"EMAIL_FROM"`
	To     []string `yaml:"to" envconfig:"EMAIL_TO"`
}

func (c EmailConfig) enabled() bool {
	return c.APIKey != "" && c.From != "" && len(c.To) > 0
}

// Email sends notices through Resend. The Resend client takes no context,
// so each send is bounded by the HTTP client timeout and by ctx.
type Email struct {
	from   string
	to     []string
	client *resend.Client
	send   func(*resend.SendEmailRequest) error
}

// NewEmail returns nil unless key, sender and recipients are all set.
func NewEmail(cfg EmailConfig, timeout time.Duration) *Email {
	if !cfg.enabled() {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	e := &Email{
		from:   cfg.From,
		to:     append([]string(nil), cfg.To...),
		client: resend.NewCustomClient(&http.Client{Timeout: timeout}, cfg.APIKey),
	}
	e.send = func(r *resend.SendEmailRequest) error {
		_, err := e.client.Emails.Send(r)
		return err
	}
	return e
}

func (e *Email) Notify(ctx context.Context, text string) error {
	if e == nil {
		return errors.New("notify: email not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	req := &resend.SendEmailRequest{
		From:    e.from,
		To:      e.to,
		Subject: emailSubject,
		Text:    text,
		Html:    "<div dir=\"rtl\"><p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p></div>",
	}
	done := make(chan error, 1)
	go func() { done <- e.send(req) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send email: %w", ctx.Err())
	}
}
