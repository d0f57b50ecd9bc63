package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// Slack posts notices to an incoming webhook.
type Slack struct {
	url    string
	client *http.Client
}

// NewSlack returns nil when url is empty.
func NewSlack(url string, timeout time.Duration) *Slack {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Slack{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *Slack) Notify(ctx context.Context, text string) error {
	if s == nil {
		return errors.New("notify: slack webhook not configured")
	}
	return slack.PostWebhookCustomHTTPContext(ctx, s.url, s.client, &slack.WebhookMessage{Text: text})
}
