package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestUserLimiterPerUser(t *testing.T) {
	l := NewUserLimiter(time.Hour, 2)
	if !l.Allow(1) || !l.Allow(1) {
		t.Fatal("burst of two should be allowed")
	}
	if l.Allow(1) {
		t.Fatal("third event within the interval should be limited")
	}
	if !l.Allow(2) {
		t.Fatal("other users keep their own bucket")
	}
}

func TestUpdateKind(t *testing.T) {
	if updateKind(tele.Update{Callback: &tele.Callback{}}) != "callback" {
		t.Fatal("callback kind")
	}
	if updateKind(tele.Update{Message: &tele.Message{}}) != "message" {
		t.Fatal("message kind")
	}
	if updateKind(tele.Update{}) != "other" {
		t.Fatal("other kind")
	}
}
