package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format logFormat) (*slog.Logger, *asyncWriter, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	return slog.New(h), aw, buf
}

func closeAndRead(t *testing.T, aw *asyncWriter, buf *bytes.Buffer) string {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, aw, buf := newTestLogger(formatKV)
	ctx := WithLogger(context.Background(), log)
	ctx = WithRID(ctx, "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	ctx = WithFlow(ctx, "recording")

	Info(ctx, CompFlow, "flow.advance",
		slog.String("status", "OK"),
		slog.String("step", "get_name"),
	)

	line := closeAndRead(t, aw, buf)
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=flow", "event=flow.advance", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "flow=recording", "step=get_name"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, aw, buf := newTestLogger(formatJSON)
	ctx := WithLogger(context.Background(), log)
	ctx = WithRID(ctx, "rid-json")

	Error(ctx, CompBooking, "booking.save",
		slog.String("status", "fail"),
		Err(errors.New("boom")),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	line := closeAndRead(t, aw, buf)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"booking"`, `"event":"booking.save"`, `"status":"fail"`, `"rid":"rid-json"`, `"duration_ms":2`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	for _, format := range []logFormat{formatKV, formatJSON} {
		log, aw, buf := newTestLogger(format)
		ctx := WithLogger(WithRID(context.Background(), "12:34:56"), log)
		Info(ctx, CompApp, "rid.test")
		line := closeAndRead(t, aw, buf)

		compact := CompactRID("12:34:56")
		if compact != "c.y.1k" {
			t.Fatalf("CompactRID = %q", compact)
		}
		switch format {
		case formatKV:
			if !strings.Contains(line, "rid="+compact) || strings.Contains(line, "rid_full=") {
				t.Fatalf("unexpected kv rid rendering: %s", line)
			}
		case formatJSON:
			if !strings.Contains(line, `"rid":"`+compact+`"`) || !strings.Contains(line, `"rid_full":"12:34:56"`) {
				t.Fatalf("unexpected json rid rendering: %s", line)
			}
		}
	}
}

func TestStructuredHandlerPrunesEmptyAndLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	log := slog.New(newStructuredHandler(handlerConfig{level: slog.LevelInfo, writer: aw, format: formatKV}))
	ctx := WithLogger(context.Background(), log)

	Debug(ctx, CompApp, "hidden")
	Info(ctx, "", "visible", Err(nil), slog.Group("req", slog.String("path", "/healthz")))

	line := closeAndRead(t, aw, buf)
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug line should be filtered: %s", line)
	}
	if strings.Contains(line, "err=") {
		t.Fatalf("empty err should be pruned: %s", line)
	}
	if !strings.Contains(line, "component=app") || !strings.Contains(line, "req.path=/healthz") {
		t.Fatalf("unexpected line: %s", line)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("سلام دنیا", 4); got != "سلام" {
		t.Fatalf("SanitizeLimit rune cut = %q", got)
	}
}
