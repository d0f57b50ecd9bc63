package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/dopiumbot/internal/booking"
)

// Machine is one service's step machine.
type Machine interface {
	Domain() booking.Domain
	Capability() Capability
	// Start resets s to the first step.
	Start(s *Session) Render
	// Step reports what step waits for and how to draw it again.
	Step(step string) (Input, RenderFunc, bool)
	HandleSelection(ctx context.Context, s *Session, token string) (Render, error)
	HandleText(ctx context.Context, s *Session, text string) (Render, error)
}

// Saver persists completed bookings.
type Saver interface {
	Save(ctx context.Context, b *booking.Booking) error
}

// Step is one position in a wizard. Selection steps set Choose; text steps
// set Field.
type Step struct {
	Name   string
	Input  Input
	Render RenderFunc

	// Choose resolves token and merges its fields into data.
	Choose func(data Data, token string) error
	// Field receives the text verbatim.
	Field string
}

// Completion turns the final data into a booking and its messages.
type Completion struct {
	Store Saver
	Now   func() time.Time
	// Draft builds the unsaved booking.
	Draft func(s *Session, data Data) booking.Booking
	// Summary is shown to the user, Notice to staff.
	Summary func(b *booking.Booking, data Data) string
	Notice  func(b *booking.Booking, data Data) string
}

// Wizard is a fixed sequence of steps ending in a saved booking.
type Wizard struct {
	domain   booking.Domain
	steps    []Step
	index    map[string]int
	complete Completion
}

var errNoSuchStep = errors.New("flow: session step not in wizard")

// NewWizard validates the step table.
func NewWizard(d booking.Domain, steps []Step, c Completion) (*Wizard, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("flow: unknown domain %q", d)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("flow: %s has no steps", d)
	}
	if c.Store == nil || c.Draft == nil || c.Summary == nil {
		return nil, fmt.Errorf("flow: %s completion is incomplete", d)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	w := &Wizard{domain: d, steps: steps, index: make(map[string]int, len(steps)), complete: c}
	for i, st := range steps {
		if _, dup := w.index[st.Name]; dup || st.Name == "" {
			return nil, fmt.Errorf("flow: %s: bad step name %q", d, st.Name)
		}
		if st.Render == nil {
			return nil, fmt.Errorf("flow: %s/%s: no render", d, st.Name)
		}
		switch st.Input {
		case InputSelection:
			if st.Choose == nil {
				return nil, fmt.Errorf("flow: %s/%s: selection without Choose", d, st.Name)
			}
		case InputText:
			if st.Field == "" {
				return nil, fmt.Errorf("flow: %s/%s: text without Field", d, st.Name)
			}
		default:
			return nil, fmt.Errorf("flow: %s/%s: unknown input", d, st.Name)
		}
		w.index[st.Name] = i
	}
	return w, nil
}

func (w *Wizard) Domain() booking.Domain { return w.domain }

func (w *Wizard) Capability() Capability {
	var c Capability
	for _, st := range w.steps {
		switch st.Input {
		case InputSelection:
			c |= CanSelect
		case InputText:
			c |= CanText
		}
	}
	return c
}

// Steps returns the step names in order.
func (w *Wizard) Steps() []string {
	names := make([]string, len(w.steps))
	for i, st := range w.steps {
		names[i] = st.Name
	}
	return names
}

func (w *Wizard) Start(s *Session) Render {
	s.Flow = w.domain
	s.Step = w.steps[0].Name
	s.Data = Data{}
	return w.draw(w.steps[0], s.Data)
}

func (w *Wizard) Step(name string) (Input, RenderFunc, bool) {
	i, ok := w.index[name]
	if !ok {
		return 0, nil, false
	}
	st := w.steps[i]
	return st.Input, func(d Data) Render { return w.draw(st, d) }, true
}

func (w *Wizard) HandleSelection(ctx context.Context, s *Session, token string) (Render, error) {
	i, ok := w.index[s.Step]
	if !ok {
		return Render{}, fmt.Errorf("%w: %s/%s", errNoSuchStep, w.domain, s.Step)
	}
	st := w.steps[i]
	if st.Input != InputSelection {
		return retry(msgExpectText, w.draw(st, s.Data)), nil
	}
	next := s.Data.Clone()
	if err := st.Choose(next, token); err != nil {
		return retry(msgInvalidOption, w.draw(st, s.Data)), nil
	}
	return w.advance(ctx, s, i, next)
}

func (w *Wizard) HandleText(ctx context.Context, s *Session, text string) (Render, error) {
	i, ok := w.index[s.Step]
	if !ok {
		return Render{}, fmt.Errorf("%w: %s/%s", errNoSuchStep, w.domain, s.Step)
	}
	st := w.steps[i]
	if st.Input != InputText {
		return retry(msgExpectButton, w.draw(st, s.Data)), nil
	}
	next := s.Data.Clone()
	next[st.Field] = text
	return w.advance(ctx, s, i, next)
}

// advance commits next and moves on, or completes after the last step. The
// session is untouched when completion fails.
func (w *Wizard) advance(ctx context.Context, s *Session, i int, next Data) (Render, error) {
	if i+1 < len(w.steps) {
		s.Data = next
		s.Step = w.steps[i+1].Name
		return w.draw(w.steps[i+1], next), nil
	}

	c := w.complete
	draft := c.Draft(s, next)
	draft.Domain = w.domain
	b, err := booking.New(draft, c.Now())
	if err != nil {
		if errors.Is(err, booking.ErrInvalidBooking) {
			r := w.draw(w.steps[i], s.Data)
			r.Kind = KindInvalid
			r.Message = invalidMessage(draft) + "\n\n" + r.Message
			return r, nil
		}
		return Render{}, err
	}
	if err := c.Store.Save(ctx, b); err != nil {
		return Render{}, err
	}
	r := Render{Kind: KindOK, Completed: true, Booking: b, Message: c.Summary(b, next)}
	if c.Notice != nil {
		r.Notice = c.Notice(b, next)
	}
	return r, nil
}

func (w *Wizard) draw(st Step, d Data) Render {
	r := st.Render(d)
	if r.Kind == "" {
		r.Kind = KindOK
	}
	r.RequiresText = st.Input == InputText
	return r
}

func retry(prefix string, r Render) Render {
	r.Kind = KindRetry
	r.Message = prefix + "\n\n" + r.Message
	return r
}

func invalidMessage(draft booking.Booking) string {
	if strings.TrimSpace(draft.UserName) == "" {
		return msgEmptyName
	}
	return msgEmptyContact
}
