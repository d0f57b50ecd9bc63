package flow

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/dopiumbot/internal/booking"
	"github.com/m3rciful/dopiumbot/internal/catalog"
)

type memStore struct {
	mu    sync.Mutex
	saved []*booking.Booking
	err   error
}

func (m *memStore) Save(_ context.Context, b *booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, b)
	return nil
}

type stubGate struct {
	ok  bool
	err error
}

func (g stubGate) Check(context.Context, int64) (bool, error) { return g.ok, g.err }

func (g stubGate) JoinPrompt() Render {
	return Render{Message: "join", Options: []Option{{Label: "channel", URL: "https://t.me/dopium"}}}
}

type recordNotifier struct {
	texts []string
	err   error
}

func (n *recordNotifier) Notify(_ context.Context, text string) error {
	n.texts = append(n.texts, text)
	return n.err
}

var trackingRe = regexp.MustCompile(`کد رهگیری: ([A-HJ-NP-Z2-9]{5})\b`)

type harness struct {
	mgr      *Manager
	store    *memStore
	notifier *recordNotifier
	wizards  map[booking.Domain]*Wizard
}

func newHarness(t *testing.T, gate Gate) *harness {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	h := &harness{store: &memStore{}, notifier: &recordNotifier{}, wizards: map[booking.Domain]*Wizard{}}
	ws, err := StudioWizards(Deps{
		Catalog: cat,
		Store:   h.store,
		Now:     func() time.Time { return time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("StudioWizards: %v", err)
	}
	h.mgr = NewManager(Options{Gate: gate, Notifier: h.notifier})
	for _, w := range ws {
		if err := h.mgr.Register(w); err != nil {
			t.Fatalf("Register: %v", err)
		}
		h.wizards[w.Domain()] = w
	}
	return h
}

func newSession() *Session {
	return &Session{UserID: 42, DisplayName: "Sara Ahmadi"}
}

func TestStartYieldsFirstStep(t *testing.T) {
	h := newHarness(t, stubGate{ok: true})
	for _, d := range booking.Domains {
		s := newSession()
		s.History = []HistoryEntry{{Step: "stale"}}
		r := h.mgr.Start(context.Background(), s, d)
		if r.Kind != KindOK || !r.Cancelable {
			t.Fatalf("%s: render = %+v", d, r)
		}
		if want := h.wizards[d].Steps()[0]; s.Step != want {
			t.Fatalf("%s: step = %q, want %q", d, s.Step, want)
		}
		if s.Flow != d || len(s.Data) != 0 || len(s.History) != 0 {
			t.Fatalf("%s: session = %+v", d, s)
		}
		if len(r.Options) == 0 || r.HasBack() {
			t.Fatalf("%s: options = %+v", d, r.Options)
		}
	}
}

func TestRecordingScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubGate{ok: true})
	s := newSession()

	h.mgr.Start(ctx, s, booking.DomainRecording)
	if r := h.mgr.Selection(ctx, s, "basic"); s.Step != "select_option" || !r.HasBack() {
		t.Fatalf("after tier: step=%s render=%+v", s.Step, r)
	}
	if r := h.mgr.Selection(ctx, s, "basic_hourly"); s.Step != "get_name" || !r.RequiresText {
		t.Fatalf("after option: step=%s render=%+v", s.Step, r)
	}
	h.mgr.Text(ctx, s, "Ali Rezai")
	r := h.mgr.Text(ctx, s, "+98-912-000-0000")

	if !r.Completed || r.Kind != KindOK {
		t.Fatalf("render = %+v", r)
	}
	m := trackingRe.FindStringSubmatch(r.Message)
	if m == nil {
		t.Fatalf("no tracking code in %q", r.Message)
	}
	if len(h.store.saved) != 1 {
		t.Fatalf("saved %d bookings", len(h.store.saved))
	}
	b := h.store.saved[0]
	if b.TrackingCode != m[1] || b.Status != booking.StatusPending || b.Domain != booking.DomainRecording {
		t.Fatalf("booking = %+v", b)
	}
	if b.UserName != "Ali Rezai" || b.UserContact != "+98-912-000-0000" || b.ServiceTierID != "basic" || b.ServiceOptionID != "basic_hourly" {
		t.Fatalf("booking fields = %+v", b)
	}
	if b.ServicePrice != "ساعتی 1" || b.UserID != 42 {
		t.Fatalf("price/user = %q/%d", b.ServicePrice, b.UserID)
	}
	if s.Active() || s.Step != "" || len(s.Data) != 0 || len(s.History) != 0 {
		t.Fatalf("session not reset: %+v", s)
	}
	if r.Cancelable || r.HasBack() {
		t.Fatalf("completed render decorated: %+v", r)
	}
	if len(h.notifier.texts) != 1 || !trackingRe.MatchString(h.notifier.texts[0]) {
		t.Fatalf("staff notices = %q", h.notifier.texts)
	}
}

func TestDistributionScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubGate{ok: true})
	s := newSession()

	h.mgr.Start(ctx, s, booking.DomainDistribution)
	h.mgr.Selection(ctx, s, "pricing_single")
	h.mgr.Text(ctx, s, "Spotify, Apple Music")
	h.mgr.Text(ctx, s, "1403/12/15")
	r := h.mgr.Text(ctx, s, "foo@bar.com")
	if !r.Completed {
		t.Fatalf("render = %+v", r)
	}
	b := h.store.saved[0]
	if b.PricingName != "تک آهنگ" || b.Platforms != "Spotify, Apple Music" || b.ReleaseDate != "1403/12/15" {
		t.Fatalf("booking = %+v", b)
	}
	if b.UserName != "Sara Ahmadi" || b.UserContact != "foo@bar.com" {
		t.Fatalf("identity = %q / %q", b.UserName, b.UserContact)
	}
}

func TestOtherDomainsComplete(t *testing.T) {
	cases := []struct {
		domain booking.Domain
		inputs []string
		check  func(*booking.Booking) bool
	}{
		{booking.DomainMusicProduction, []string{"@premium", "@production_difo", "Reza", "0912"}, func(b *booking.Booking) bool {
			return b.ServiceOptionName == "پروداکشن با دیفو" && b.ServicePrice == "15"
		}},
		{booking.DomainMixMaster, []string{"@mix_pro", "3", "Reza", "0912"}, func(b *booking.Booking) bool {
			return b.PlanID == "mix_pro" && b.TrackCount == "3"
		}},
		{booking.DomainConsultation, []string{"@arin_rad", "mixing", "Reza", "0912"}, func(b *booking.Booking) bool {
			return b.ConsultantName == "آرین راد" && b.Topic == "mixing"
		}},
	}
	for _, tc := range cases {
		ctx := context.Background()
		h := newHarness(t, nil)
		s := newSession()
		h.mgr.Start(ctx, s, tc.domain)
		var r Render
		for _, in := range tc.inputs {
			if in[0] == '@' {
				r = h.mgr.Selection(ctx, s, in[1:])
			} else {
				r = h.mgr.Text(ctx, s, in)
			}
		}
		if !r.Completed || len(h.store.saved) != 1 || !tc.check(h.store.saved[0]) {
			t.Fatalf("%s: render=%+v saved=%+v", tc.domain, r, h.store.saved)
		}
	}
}

func TestBackRestoresDataAfterEveryTransition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubGate{ok: true})
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainRecording)

	steps := []func() Render{
		func() Render { return h.mgr.Selection(ctx, s, "premium") },
		func() Render { return h.mgr.Selection(ctx, s, "premium_mendesan") },
		func() Render { return h.mgr.Text(ctx, s, "Ali") },
	}
	for i, step := range steps {
		beforeStep := s.Step
		beforeData := s.Data.Clone()
		beforeDepth := len(s.History)
		_, render, _ := h.wizards[booking.DomainRecording].Step(beforeStep)
		want := render(beforeData)

		step()
		if len(s.History) != beforeDepth+1 {
			t.Fatalf("transition %d: depth %d, want %d", i, len(s.History), beforeDepth+1)
		}
		r := h.mgr.Back(ctx, s)
		if s.Step != beforeStep || !reflect.DeepEqual(s.Data, beforeData) || len(s.History) != beforeDepth {
			t.Fatalf("transition %d: after back step=%s data=%v depth=%d", i, s.Step, s.Data, len(s.History))
		}
		if r.Message != want.Message {
			t.Fatalf("transition %d: back rendered %q, want %q", i, r.Message, want.Message)
		}
		// walk forward again for the next round
		step()
	}
}

func TestBackKeepsEarlierSelections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainRecording)
	h.mgr.Selection(ctx, s, "premium")
	h.mgr.Selection(ctx, s, "premium_aiyhoud")

	r := h.mgr.Back(ctx, s)
	if s.Step != "select_option" || s.Data[FieldTierID] != "premium" || s.Data[FieldOptionID] != "" {
		t.Fatalf("session = %+v", s)
	}
	if len(r.Options) != 5 || !r.HasBack() {
		t.Fatalf("premium options plus back expected, got %+v", r.Options)
	}
}

func TestBackOnEmptyHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()

	if r := h.mgr.Back(ctx, s); r.Kind != KindNoHistory {
		t.Fatalf("idle back = %+v", r)
	}
	h.mgr.Start(ctx, s, booking.DomainMixMaster)
	before := *s
	r := h.mgr.Back(ctx, s)
	if r.Kind != KindNoHistory || s.Step != before.Step || s.Flow != before.Flow || len(s.History) != 0 {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
}

func TestInvalidSelectionLeavesSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainRecording)
	h.mgr.Selection(ctx, s, "basic")

	step, data := s.Step, s.Data.Clone()
	for _, token := range []string{"nope", "premium_mendesan", ""} {
		r := h.mgr.Selection(ctx, s, token)
		if r.Kind != KindRetry {
			t.Fatalf("token %q: kind = %s", token, r.Kind)
		}
		if s.Step != step || !reflect.DeepEqual(s.Data, data) || len(s.History) != 1 {
			t.Fatalf("token %q mutated session: %+v", token, s)
		}
		if len(r.Options) != 3 {
			t.Fatalf("retry should redraw basic options plus back: %+v", r.Options)
		}
	}
}

func TestWrongInputKindRetries(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainConsultation)

	if r := h.mgr.Text(ctx, s, "hello"); r.Kind != KindRetry || s.Step != "select_consultant" {
		t.Fatalf("text at selection: %+v step=%s", r, s.Step)
	}
	h.mgr.Selection(ctx, s, "mendesan")
	if r := h.mgr.Selection(ctx, s, "mendesan"); r.Kind != KindRetry || s.Step != "get_topic" || len(s.History) != 1 {
		t.Fatalf("selection at text step: %+v step=%s", r, s.Step)
	}
}

func TestNoActiveFlow(t *testing.T) {
	h := newHarness(t, nil)
	s := newSession()
	if r := h.mgr.Text(context.Background(), s, "hi"); r.Kind != KindNoFlow || s.Active() {
		t.Fatalf("render = %+v", r)
	}
}

func TestUnregisteredDomain(t *testing.T) {
	mgr := NewManager(Options{})
	s := newSession()
	r := mgr.Start(context.Background(), s, booking.DomainRecording)
	if r.Kind != KindUnavailable || s.Active() {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
	s.Flow, s.Step = booking.DomainMixMaster, "get_name"
	if r := mgr.Text(context.Background(), s, "x"); r.Kind != KindUnavailable || s.Step != "get_name" {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
}

func TestGateBlocksAndFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, stubGate{ok: false})
	s := newSession()
	r := h.mgr.Start(ctx, s, booking.DomainRecording)
	if r.Kind != KindJoin || s.Active() || len(r.Options) != 1 || r.Options[0].URL == "" {
		t.Fatalf("render=%+v session=%+v", r, s)
	}

	h = newHarness(t, stubGate{err: errors.New("telegram down")})
	r = h.mgr.Start(ctx, s, booking.DomainRecording)
	if r.Kind != KindError || s.Active() {
		t.Fatalf("gate error render=%+v session=%+v", r, s)
	}

	h = newHarness(t, stubGate{ok: true})
	h.mgr.Start(ctx, s, booking.DomainRecording)
	h.mgr.gate = stubGate{ok: false}
	r = h.mgr.Selection(ctx, s, "basic")
	if r.Kind != KindJoin || s.Step != "select_tier" || len(s.History) != 0 {
		t.Fatalf("gated selection render=%+v session=%+v", r, s)
	}
}

func TestPersistenceFailureKeepsSessionForRetry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainMixMaster)
	h.mgr.Selection(ctx, s, "mix_basic")
	h.mgr.Text(ctx, s, "4")
	h.mgr.Text(ctx, s, "Reza")

	h.store.err = errors.New("database is locked")
	data := s.Data.Clone()
	r := h.mgr.Text(ctx, s, "0912")
	if r.Kind != KindError || r.Completed || !r.Cancelable {
		t.Fatalf("render = %+v", r)
	}
	if s.Step != "get_contact" || !reflect.DeepEqual(s.Data, data) || len(s.History) != 3 {
		t.Fatalf("session = %+v", s)
	}
	if len(h.notifier.texts) != 0 {
		t.Fatalf("notice sent for failed booking")
	}

	h.store.err = nil
	if r := h.mgr.Text(ctx, s, "0912"); !r.Completed {
		t.Fatalf("retry render = %+v", r)
	}
}

func TestInvalidBookingStaysActive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainRecording)
	h.mgr.Selection(ctx, s, "basic")
	h.mgr.Selection(ctx, s, "basic_hourly")
	h.mgr.Text(ctx, s, "   ")
	r := h.mgr.Text(ctx, s, "0912")
	if r.Kind != KindInvalid || r.Completed || !s.Active() || s.Step != "get_contact" {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
	if len(h.store.saved) != 0 {
		t.Fatalf("invalid booking saved")
	}
	h.mgr.Back(ctx, s)
	h.mgr.Text(ctx, s, "Ali")
	if r := h.mgr.Text(ctx, s, "0912"); !r.Completed {
		t.Fatalf("corrected render = %+v", r)
	}
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.notifier.err = errors.New("chat not found")
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainConsultation)
	h.mgr.Selection(ctx, s, "arin_rad")
	h.mgr.Text(ctx, s, "topic")
	h.mgr.Text(ctx, s, "Ali")
	if r := h.mgr.Text(ctx, s, "0912"); !r.Completed || s.Active() {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
}

type blockingNotifier struct {
	deadline bool
}

func (n *blockingNotifier) Notify(ctx context.Context, _ string) error {
	_, n.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledNotifierDoesNotBlockCompletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	n := &blockingNotifier{}
	h.mgr.notifier = n
	h.mgr.timeout = 50 * time.Millisecond
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainConsultation)
	h.mgr.Selection(ctx, s, "arin_rad")
	h.mgr.Text(ctx, s, "topic")
	h.mgr.Text(ctx, s, "Ali")
	start := time.Now()
	r := h.mgr.Text(ctx, s, "0912")
	if !r.Completed || s.Active() {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
	if !n.deadline {
		t.Fatalf("notifier got a context without deadline")
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("completion blocked for %s", took)
	}
}

func TestNewManagerDefaultsNotifyTimeout(t *testing.T) {
	if m := NewManager(Options{}); m.timeout != DefaultNotifyTimeout {
		t.Fatalf("timeout = %s", m.timeout)
	}
}

func TestCancelResetsSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	s := newSession()
	h.mgr.Start(ctx, s, booking.DomainRecording)
	h.mgr.Selection(ctx, s, "basic")
	r := h.mgr.Cancel(ctx, s)
	if r.Kind != KindCancelled || s.Active() || s.Data != nil || s.History != nil || s.UserID != 42 {
		t.Fatalf("render=%+v session=%+v", r, s)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.mgr.Register(h.wizards[booking.DomainRecording]); err == nil {
		t.Fatalf("expected duplicate error")
	}
	if err := h.mgr.Register(nil); err == nil {
		t.Fatalf("expected nil machine error")
	}
}

func TestSelectionOnlyMachineRejectsText(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	store := &memStore{}
	w, err := NewWizard(booking.DomainMixMaster, []Step{
		pick(cat, booking.DomainMixMaster, "select_plan", "", static("plan?"), func(d Data, it catalog.Item) {
			d[FieldPlanID] = it.ID
		}),
	}, Completion{
		Store: store,
		Draft: func(s *Session, d Data) booking.Booking {
			return booking.Booking{UserName: "n", UserContact: "c", PlanID: d[FieldPlanID]}
		},
		Summary: func(b *booking.Booking, _ Data) string { return b.TrackingCode },
	})
	if err != nil {
		t.Fatalf("NewWizard: %v", err)
	}
	if w.Capability() != CanSelect {
		t.Fatalf("capability = %b", w.Capability())
	}
	mgr := NewManager(Options{})
	if err := mgr.Register(w); err != nil {
		t.Fatalf("Register: %v", err)
	}
	s := newSession()
	mgr.Start(context.Background(), s, booking.DomainMixMaster)
	if r := mgr.Text(context.Background(), s, "x"); r.Kind != KindRetry {
		t.Fatalf("render = %+v", r)
	}
	if r := mgr.Selection(context.Background(), s, "master_only"); !r.Completed || store.saved[0].PlanID != "master_only" {
		t.Fatalf("render = %+v", r)
	}
}

func TestNewWizardValidatesSteps(t *testing.T) {
	draft := func(s *Session, d Data) booking.Booking { return draftFrom(booking.DomainRecording, s, d) }
	c := Completion{Store: &memStore{}, Draft: draft, Summary: func(*booking.Booking, Data) string { return "" }}
	bad := [][]Step{
		nil,
		{{Name: "a", Input: InputText, Render: func(Data) Render { return Render{} }}},
		{{Name: "a", Input: InputSelection, Render: func(Data) Render { return Render{} }}},
		{ask("a", "f", static("x")), ask("a", "g", static("y"))},
	}
	for i, steps := range bad {
		if _, err := NewWizard(booking.DomainRecording, steps, c); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
