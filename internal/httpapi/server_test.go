package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

type fakeOrders struct {
	sums     []admin.Summary
	page     admin.Page
	askedFor int
	found    *booking.Booking
	err      error
}

func (f *fakeOrders) Overview(context.Context) ([]admin.Summary, error) { return f.sums, f.err }

func (f *fakeOrders) Pending(_ context.Context, d booking.Domain, page int) (admin.Page, error) {
	f.askedFor = page
	p := f.page
	p.Domain = d
	return p, f.err
}

func (f *fakeOrders) Lookup(_ context.Context, code string) (*booking.Booking, error) {
	if code == "bad" {
		return nil, admin.ErrInvalidCode
	}
	if f.found == nil || f.found.TrackingCode != code {
		return nil, booking.ErrNotFound
	}
	return f.found, nil
}

func do(t *testing.T, r http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, rec.Body.String())
	}
	return rec, body
}

func TestHealthzIsPublic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&fakeOrders{}, Config{Token: "secret"})

	rec, body := do(t, r, "/healthz", "")
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz = %d %v", rec.Code, body)
	}
}

func TestAPIRequiresBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&fakeOrders{}, Config{Token: "secret"})

	for _, tok := range []string{"", "wrong"} {
		rec, body := do(t, r, "/api/pending", tok)
		if rec.Code != http.StatusUnauthorized || body["error"] != "unauthorized" {
			t.Fatalf("token %q: %d %v", tok, rec.Code, body)
		}
	}
	empty := NewRouter(&fakeOrders{}, Config{})
	if rec, _ := do(t, empty, "/api/pending", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("empty token accepted: %d", rec.Code)
	}
}

func TestOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orders := &fakeOrders{sums: []admin.Summary{
		{Domain: booking.DomainRecording, Pending: 2},
		{Domain: booking.DomainMixMaster, Pending: 1},
	}}
	r := NewRouter(orders, Config{Token: "secret"})

	rec, body := do(t, r, "/api/pending", "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if body["total"] != float64(3) {
		t.Fatalf("total = %v", body["total"])
	}
	domains := body["domains"].([]any)
	if len(domains) != 2 || domains[0].(map[string]any)["domain"] != "recording" {
		t.Fatalf("domains = %v", domains)
	}

	orders.err = errors.New("db down")
	if rec, _ := do(t, r, "/api/pending", "secret"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("error code = %d", rec.Code)
	}
}

func TestPendingPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	orders := &fakeOrders{page: admin.Page{Page: 1, Pages: 3, Total: 21, Bookings: []booking.Booking{
		{ID: "b1", Domain: booking.DomainConsultation, TrackingCode: "ABCDE", Status: booking.StatusPending, ConsultantName: "آرین راد", CreatedAt: at},
	}}}
	r := NewRouter(orders, Config{Token: "secret"})

	rec, body := do(t, r, "/api/pending/Consultation?page=2", "secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d %v", rec.Code, body)
	}
	if orders.askedFor != 1 {
		t.Fatalf("page index = %d, want 1", orders.askedFor)
	}
	if body["domain"] != "consultation" || body["page"] != float64(2) || body["pages"] != float64(3) {
		t.Fatalf("body = %v", body)
	}
	items := body["bookings"].([]any)
	first := items[0].(map[string]any)
	if first["tracking_code"] != "ABCDE" || first["service"] != "آرین راد" {
		t.Fatalf("item = %v", first)
	}

	if rec, _ := do(t, r, "/api/pending/karaoke", "secret"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown domain code = %d", rec.Code)
	}
	if rec, _ := do(t, r, "/api/pending/recording?page=0", "secret"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad page code = %d", rec.Code)
	}
}

func TestBookingByCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orders := &fakeOrders{found: &booking.Booking{ID: "b9", Domain: booking.DomainMixMaster, TrackingCode: "QWERT", Status: booking.StatusConfirmed, PlanName: "Mix"}}
	r := NewRouter(orders, Config{Token: "secret"})

	rec, body := do(t, r, "/api/bookings/QWERT", "secret")
	if rec.Code != http.StatusOK || body["id"] != "b9" || body["status"] != "confirmed" || body["service"] != "Mix" {
		t.Fatalf("found = %d %v", rec.Code, body)
	}
	if rec, _ := do(t, r, "/api/bookings/ZZZZZ", "secret"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing code = %d", rec.Code)
	}
	if rec, _ := do(t, r, "/api/bookings/bad", "secret"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad code = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&fakeOrders{}, Config{Token: "secret", AllowOrigins: []string{"https://ops.dopium.studio"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/pending", nil)
	req.Header.Set("Origin", "https://ops.dopium.studio")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.dopium.studio" {
		t.Fatalf("allow origin = %q (code %d)", got, rec.Code)
	}
}
