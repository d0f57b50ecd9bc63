package membership

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type fakeLookup struct {
	roles map[string]tele.MemberStatus
	errs  map[string]error
	calls []string
}

func (f *fakeLookup) ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error) {
	f.calls = append(f.calls, chat.Recipient())
	if err := f.errs[chat.Recipient()]; err != nil {
		return nil, err
	}
	return &tele.ChatMember{Role: f.roles[chat.Recipient()]}, nil
}

func TestGateDisabledPassesEveryone(t *testing.T) {
	g := New(nil, Config{})
	ok, err := g.Check(context.Background(), 1)
	if !ok || err != nil || g.Enabled() {
		t.Fatalf("Check = %v, %v", ok, err)
	}
}

func TestGateRoles(t *testing.T) {
	cases := map[tele.MemberStatus]bool{
		tele.Member:        true,
		tele.Administrator: true,
		tele.Creator:       true,
		tele.Left:          false,
		tele.Kicked:        false,
	}
	for role, want := range cases {
		api := &fakeLookup{roles: map[string]tele.MemberStatus{"@dopium": role}}
		g := New(api, Config{ChannelUsername: "dopium"})
		ok, err := g.Check(context.Background(), 7)
		if err != nil || ok != want {
			t.Fatalf("role %s: Check = %v, %v", role, ok, err)
		}
	}
}

func TestGateFallsBackToChannelID(t *testing.T) {
	api := &fakeLookup{
		roles: map[string]tele.MemberStatus{"-100123": tele.Member},
		errs:  map[string]error{"@dopium": errors.New("chat not found")},
	}
	g := New(api, Config{ChannelUsername: "@dopium", ChannelID: "-100123"})
	ok, err := g.Check(context.Background(), 7)
	if !ok || err != nil {
		t.Fatalf("Check = %v, %v", ok, err)
	}
	if len(api.calls) != 2 || api.calls[0] != "@dopium" {
		t.Fatalf("calls = %v", api.calls)
	}
}

func TestGateReportsLookupFailure(t *testing.T) {
	boom := errors.New("bot is not a member of the channel")
	api := &fakeLookup{errs: map[string]error{"-100123": boom}}
	g := New(api, Config{ChannelID: "-100123"})
	ok, err := g.Check(context.Background(), 7)
	if ok || !errors.Is(err, boom) {
		t.Fatalf("Check = %v, %v", ok, err)
	}
}

func TestJoinPrompt(t *testing.T) {
	r := New(nil, Config{ChannelUsername: "@dopium"}).JoinPrompt()
	if len(r.Options) != 1 || r.Options[0].URL != "https://t.me/dopium" {
		t.Fatalf("options = %+v", r.Options)
	}
	r = New(nil, Config{ChannelID: "-100555"}).JoinPrompt()
	if r.Options[0].URL != "https://t.me/c/555" {
		t.Fatalf("id url = %s", r.Options[0].URL)
	}
}
