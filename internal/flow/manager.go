package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/dopiumbot/core/logger"
	"github.com/m3rciful/dopiumbot/internal/booking"
)

// Gate decides whether a user may use the wizards.
type Gate interface {
	Check(ctx context.Context, userID int64) (bool, error)
	JoinPrompt() Render
}

// Notifier delivers staff announcements.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// DefaultNotifyTimeout bounds the staff notice sent on completion.
const DefaultNotifyTimeout = 30 * time.Second

// Options configures a Manager. Both collaborators are optional.
type Options struct {
	Gate     Gate
	Notifier Notifier
	// NotifyTimeout defaults to DefaultNotifyTimeout.
	NotifyTimeout time.Duration
}

// Manager routes user events to the registered machines. It is built once at
// startup and shared by every handler; sessions are passed in by the caller,
// which must not use one session from two goroutines at once.
type Manager struct {
	machines map[booking.Domain]Machine
	gate     Gate
	notifier Notifier
	timeout  time.Duration
}

// NewManager returns a Manager with no machines.
func NewManager(opts Options) *Manager {
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	return &Manager{
		machines: make(map[booking.Domain]Machine),
		gate:     opts.Gate,
		notifier: opts.Notifier,
		timeout:  opts.NotifyTimeout,
	}
}

// Register adds m under its domain.
func (m *Manager) Register(machine Machine) error {
	if machine == nil {
		return fmt.Errorf("flow: nil machine")
	}
	d := machine.Domain()
	if _, dup := m.machines[d]; dup {
		return fmt.Errorf("flow: %s already registered", d)
	}
	m.machines[d] = machine
	return nil
}

// Registered reports whether d has a machine.
func (m *Manager) Registered(d booking.Domain) bool {
	_, ok := m.machines[d]
	return ok
}

// Start begins the wizard of domain d, discarding any wizard in progress.
func (m *Manager) Start(ctx context.Context, s *Session, d booking.Domain) Render {
	ctx = logger.WithFlow(ctx, string(d))
	machine, ok := m.machines[d]
	if !ok {
		logger.Warn(ctx, logger.CompFlow, "flow.start", slog.String("status", "skip"), slog.String("reason", "unregistered"))
		return Render{Kind: KindUnavailable, Message: msgUnavailable}
	}
	if r, ok := m.admit(ctx, s); !ok {
		return r
	}
	s.History = nil
	r := machine.Start(s)
	logger.Info(ctx, logger.CompFlow, "flow.start", slog.String("step", s.Step))
	return m.decorate(s, r)
}

// Selection feeds a button choice to the active wizard.
func (m *Manager) Selection(ctx context.Context, s *Session, token string) Render {
	return m.forward(ctx, s, CanSelect, func(machine Machine) (Render, error) {
		return machine.HandleSelection(ctx, s, token)
	})
}

// Text feeds free text to the active wizard.
func (m *Manager) Text(ctx context.Context, s *Session, text string) Render {
	return m.forward(ctx, s, CanText, func(machine Machine) (Render, error) {
		return machine.HandleText(ctx, s, text)
	})
}

// forward runs one transition. History grows only when the step actually
// changes; a completed wizard clears the session.
func (m *Manager) forward(ctx context.Context, s *Session, need Capability, call func(Machine) (Render, error)) Render {
	if !s.Active() {
		return Render{Kind: KindNoFlow, Message: msgNoFlow}
	}
	ctx = logger.WithFlow(ctx, string(s.Flow))
	machine, ok := m.machines[s.Flow]
	if !ok {
		return Render{Kind: KindUnavailable, Message: msgUnavailable}
	}
	if r, ok := m.admit(ctx, s); !ok {
		return r
	}
	if !machine.Capability().Has(need) {
		prefix := msgExpectButton
		if need == CanSelect {
			prefix = msgExpectText
		}
		return m.redraw(s, machine, KindRetry, prefix)
	}

	prev := HistoryEntry{Step: s.Step, Data: s.Data.Clone()}
	if _, render, ok := machine.Step(s.Step); ok {
		prev.Render = render
	}

	r, err := call(machine)
	if err != nil {
		logger.Error(ctx, logger.CompFlow, "flow.advance",
			slog.String("step", prev.Step),
			logger.Err(err),
		)
		return m.decorate(s, Render{Kind: KindError, Message: msgApology})
	}

	switch {
	case r.Completed:
		m.finish(ctx, s, r)
		return r
	case s.Step != prev.Step && prev.Render != nil:
		s.History = append(s.History, prev)
		logger.Debug(ctx, logger.CompFlow, "flow.advance",
			slog.String("step", s.Step),
			slog.Int("depth", len(s.History)),
		)
	default:
		logger.Debug(ctx, logger.CompFlow, "flow.advance",
			slog.String("status", "retry"),
			slog.String("step", s.Step),
			slog.String("kind", string(r.Kind)),
		)
	}
	return m.decorate(s, r)
}

// Back returns to the step before the last transition, restoring the data
// collected up to it.
func (m *Manager) Back(ctx context.Context, s *Session) Render {
	if !s.Active() || len(s.History) == 0 {
		return m.decorate(s, Render{Kind: KindNoHistory, Message: msgNoHistory})
	}
	ctx = logger.WithFlow(ctx, string(s.Flow))
	if r, ok := m.admit(ctx, s); !ok {
		return r
	}
	last := len(s.History) - 1
	e := s.History[last]
	s.History = s.History[:last]
	s.Step = e.Step
	s.Data = e.Data

	r := e.Render(s.Data)
	if r.Kind == "" {
		r.Kind = KindOK
	}
	logger.Debug(ctx, logger.CompFlow, "flow.back",
		slog.String("step", s.Step),
		slog.Int("depth", len(s.History)),
	)
	return m.decorate(s, r)
}

// Cancel abandons the active wizard.
func (m *Manager) Cancel(ctx context.Context, s *Session) Render {
	if s.Active() {
		logger.Info(logger.WithFlow(ctx, string(s.Flow)), logger.CompFlow, "flow.cancel",
			slog.String("status", "cancelled"),
			slog.String("step", s.Step),
		)
	}
	s.Reset()
	return Render{Kind: KindCancelled, Message: msgCancelled}
}

// admit asks the gate. A failing check is reported as a generic error.
func (m *Manager) admit(ctx context.Context, s *Session) (Render, bool) {
	if m.gate == nil {
		return Render{}, true
	}
	ok, err := m.gate.Check(ctx, s.UserID)
	if err != nil {
		logger.Error(ctx, logger.CompFlow, "flow.gate", logger.Err(err))
		return m.decorate(s, Render{Kind: KindError, Message: msgApology}), false
	}
	if !ok {
		logger.Debug(ctx, logger.CompFlow, "flow.gate", slog.String("status", "skip"))
		r := m.gate.JoinPrompt()
		r.Kind = KindJoin
		return r, false
	}
	return Render{}, true
}

func (m *Manager) finish(ctx context.Context, s *Session, r Render) {
	attrs := []slog.Attr{slog.Int("steps", len(s.History)+1)}
	if r.Booking != nil {
		attrs = append(attrs,
			slog.String("booking_id", r.Booking.ID),
			slog.String("tracking_code", r.Booking.TrackingCode),
		)
	}
	logger.Info(ctx, logger.CompFlow, "flow.complete", attrs...)
	s.Reset()

	if m.notifier == nil || r.Notice == "" {
		return
	}
	nctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.notifier.Notify(nctx, r.Notice); err != nil {
		logger.Warn(ctx, logger.CompNotify, "notify.staff", slog.String("status", "fail"), logger.Err(err))
	}
}

func (m *Manager) redraw(s *Session, machine Machine, kind Kind, prefix string) Render {
	_, render, ok := machine.Step(s.Step)
	if !ok {
		return m.decorate(s, Render{Kind: KindError, Message: msgApology})
	}
	r := render(s.Data)
	r.Kind = kind
	r.Message = prefix + "\n\n" + r.Message
	return m.decorate(s, r)
}

// decorate attaches the back button and the cancel flag.
func (m *Manager) decorate(s *Session, r Render) Render {
	if !s.Active() {
		return r
	}
	r.Cancelable = true
	if len(s.History) > 0 && !r.HasBack() {
		r.Options = append(r.Options, Option{Label: msgBack, Token: BackToken})
	}
	return r
}
