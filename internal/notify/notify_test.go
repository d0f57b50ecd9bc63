package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/resendlabs/resend-go"

	tele "gopkg.in/telebot.v4"
)

type fakeSender struct {
	to    []string
	texts []string
	err   error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.to = append(f.to, to.Recipient())
	f.texts = append(f.texts, what.(string))
	return &tele.Message{}, nil
}

type funcNotifier func(context.Context, string) error

func (f funcNotifier) Notify(ctx context.Context, text string) error { return f(ctx, text) }

func TestTelegramNotifyGroupAndUser(t *testing.T) {
	api := &fakeSender{}
	n := NewTelegram(api, nil, -1001)
	if err := n.Notify(context.Background(), "new booking"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.NotifyUser(context.Background(), 42, "confirmed"); err != nil {
		t.Fatalf("NotifyUser: %v", err)
	}
	if len(api.to) != 2 || api.to[0] != "-1001" || api.to[1] != "42" {
		t.Fatalf("recipients = %v", api.to)
	}
}

func TestTelegramWithoutGroup(t *testing.T) {
	n := NewTelegram(&fakeSender{}, nil, 0)
	if err := n.Notify(context.Background(), "x"); err == nil {
		t.Fatalf("expected error without group chat")
	}
	if NewTelegram(nil, nil, 1) != nil {
		t.Fatalf("nil api should give nil notifier")
	}
}

func TestSlackPostsWebhook(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		got = body.Text
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewSlack(srv.URL, time.Second).Notify(context.Background(), "رزرو جدید"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got != "رزرو جدید" {
		t.Fatalf("text = %q", got)
	}
}

func TestSlackServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	if err := NewSlack(srv.URL, time.Second).Notify(context.Background(), "x"); err == nil {
		t.Fatalf("expected error on 500")
	}
	if NewSlack("", 0) != nil {
		t.Fatalf("empty url should give nil notifier")
	}
}

func TestEmailBuildsRequest(t *testing.T) {
	if NewEmail(EmailConfig{APIKey: "k"}, 0) != nil {
		t.Fatalf("incomplete config should give nil notifier")
	}
	e := NewEmail(EmailConfig{APIKey: "k", From: "bot@dopium.ir", To: []string{"staff@dopium.ir"}}, time.Second)
	var req *resend.SendEmailRequest
	e.send = func(r *resend.SendEmailRequest) error {
		req = r
		return nil
	}
	if err := e.Notify(context.Background(), "a<b\nline"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if req.From != "bot@dopium.ir" || len(req.To) != 1 || req.Text != "a<b\nline" {
		t.Fatalf("request = %+v", req)
	}
	if !strings.Contains(req.Html, "a&lt;b<br>line") {
		t.Fatalf("html = %s", req.Html)
	}

	boom := errors.New("rate limited")
	e.send = func(*resend.SendEmailRequest) error { return boom }
	if err := e.Notify(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestEmailHonoursContext(t *testing.T) {
	e := NewEmail(EmailConfig{APIKey: "k", From: "bot@dopium.ir", To: []string{"staff@dopium.ir"}}, time.Minute)
	release := make(chan struct{})
	defer close(release)
	e.send = func(*resend.SendEmailRequest) error {
		<-release
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := e.Notify(ctx, "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("Notify blocked for %s", took)
	}
}

func TestEmailClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	e := NewEmail(EmailConfig{APIKey: "k", From: "bot@dopium.ir", To: []string{"staff@dopium.ir"}}, 100*time.Millisecond)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e.client.BaseURL = base
	start := time.Now()
	if err := e.Notify(context.Background(), "x"); err == nil {
		t.Fatalf("expected timeout error")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("Notify blocked for %s", took)
	}
}

func TestConfigBudget(t *testing.T) {
	if got := (Config{}).Budget(0); got != defaultTimeout {
		t.Fatalf("Budget(0) = %s", got)
	}
	if got := (Config{Timeout: 2 * time.Second}).Budget(3); got != 6*time.Second {
		t.Fatalf("Budget(3) = %s", got)
	}
}

func TestMultiContinuesPastFailures(t *testing.T) {
	boom := errors.New("down")
	var calls []string
	m := NewMulti(
		Named{Name: "slack", Notifier: funcNotifier(func(context.Context, string) error {
			calls = append(calls, "slack")
			return boom
		})},
		Named{Name: "telegram", Notifier: funcNotifier(func(context.Context, string) error {
			calls = append(calls, "telegram")
			return nil
		})},
	)
	if m.Len() != 2 {
		t.Fatalf("Len = %d", m.Len())
	}
	err := m.Notify(context.Background(), "x")
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "slack") {
		t.Fatalf("err = %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
}
