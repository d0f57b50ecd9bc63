package booking

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewBooking(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	b, err := New(Booking{
		Domain:          DomainRecording,
		UserID:          42,
		UserName:        "Ali Rezai",
		UserContact:     "+98-912-000-0000",
		ServiceTierID:   "basic",
		ServiceOptionID: "basic_hourly",
	}, now)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %s", b.Status)
	}
	if b.ID == "" || !ValidTrackingCode(b.TrackingCode) {
		t.Fatalf("id=%q code=%q", b.ID, b.TrackingCode)
	}
	if !b.CreatedAt.Equal(now) || !b.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v / %v", b.CreatedAt, b.UpdatedAt)
	}
}

func TestNewBookingRejectsBlankFields(t *testing.T) {
	cases := []Booking{
		{Domain: DomainMixMaster, UserName: "  ", UserContact: "x"},
		{Domain: DomainMixMaster, UserName: "x", UserContact: "\t"},
	}
	for _, draft := range cases {
		if _, err := New(draft, time.Now()); !errors.Is(err, ErrInvalidBooking) {
			t.Fatalf("New(%+v) err = %v", draft, err)
		}
	}
	if _, err := New(Booking{Domain: "karaoke", UserName: "a", UserContact: "b"}, time.Now()); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("unknown domain err = %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	now := time.Now()
	b := &Booking{Status: StatusPending, TrackingCode: "ABCDE"}
	if err := b.Confirm(now); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := b.Confirm(now); !errors.Is(err, ErrNotPending) {
		t.Fatalf("second Confirm err = %v", err)
	}
	if err := b.Cancel(now); !errors.Is(err, ErrNotPending) || b.Status != StatusConfirmed {
		t.Fatalf("Cancel after confirm err = %v status = %s", err, b.Status)
	}

	c := &Booking{Status: StatusPending}
	if err := c.Cancel(now); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := c.Confirm(now); !errors.Is(err, ErrAlreadyCancelled) || c.Status != StatusCancelled {
		t.Fatalf("Confirm after cancel err = %v status = %s", err, c.Status)
	}
}

func TestTrackingCodeAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewTrackingCode()
		if err != nil {
			t.Fatalf("NewTrackingCode: %v", err)
		}
		if len(code) != TrackingCodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		if strings.ContainsAny(code, "OI01") {
			t.Fatalf("code %q contains an ambiguous glyph", code)
		}
		if !ValidTrackingCode(code) {
			t.Fatalf("code %q rejected by ValidTrackingCode", code)
		}
	}
	if ValidTrackingCode("ABC0E") || ValidTrackingCode("abcde") || ValidTrackingCode("ABCDEF") {
		t.Fatalf("ValidTrackingCode accepted a malformed code")
	}
	if got := NormalizeTrackingCode(" #ab2cd "); got != "AB2CD" {
		t.Fatalf("NormalizeTrackingCode = %q", got)
	}
}

func TestParseDomain(t *testing.T) {
	d, err := ParseDomain(" Distribution ")
	if err != nil || d != DomainDistribution {
		t.Fatalf("ParseDomain = %q, %v", d, err)
	}
	if _, err := ParseDomain("karaoke"); !errors.Is(err, ErrUnknownDomain) {
		t.Fatalf("err = %v", err)
	}
	if DomainMixMaster.Table() != "mix_master_bookings" {
		t.Fatalf("Table = %s", DomainMixMaster.Table())
	}
}
