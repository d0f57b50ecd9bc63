// Package flow runs the booking wizards: one step machine per studio
// service plus the Manager that routes user events to them, keeps the
// back-navigation history and turns every outcome into a Render.
package flow

import (
	"maps"

	"github.com/m3rciful/dopiumbot/internal/booking"
)

// Data is what a wizard has collected so far, keyed by field name.
type Data map[string]string

// Clone returns an independent copy of d.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	maps.Copy(out, d)
	return out
}

// Kind classifies a Render so callers can react without parsing text.
type Kind string

const (
	KindOK          Kind = "ok"
	KindRetry       Kind = "retry"
	KindInvalid     Kind = "invalid"
	KindError       Kind = "error"
	KindJoin        Kind = "join"
	KindUnavailable Kind = "unavailable"
	KindNoHistory   Kind = "no_history"
	KindNoFlow      Kind = "no_flow"
	KindCancelled   Kind = "cancelled"
)

// BackToken is the option token of the back button.
const BackToken = "back"

// Option is one button. Options with a URL open a link instead of sending
// their token.
type Option struct {
	Label string
	Token string
	URL   string
}

// Render is the outcome of every wizard and Manager call.
type Render struct {
	Kind    Kind
	Message string
	Options []Option

	Completed    bool
	RequiresText bool
	// Cancelable is set while a flow is active.
	Cancelable bool

	// Notice is the staff announcement of a completed booking.
	Notice  string
	Booking *booking.Booking
}

// HasBack reports whether the back button is attached.
func (r Render) HasBack() bool {
	for _, o := range r.Options {
		if o.Token == BackToken && o.URL == "" {
			return true
		}
	}
	return false
}

// Input is what a step waits for.
type Input int

const (
	InputSelection Input = iota + 1
	InputText
)

func (i Input) String() string {
	switch i {
	case InputSelection:
		return "selection"
	case InputText:
		return "text"
	}
	return "unknown"
}

// Capability is the set of input kinds a machine accepts.
type Capability uint8

const (
	CanSelect Capability = 1 << iota
	CanText

	CanBoth = CanSelect | CanText
)

// Has reports whether c includes every bit of x.
func (c Capability) Has(x Capability) bool { return c&x == x }

// RenderFunc draws a step from the data collected before it. It must not
// modify data.
type RenderFunc func(data Data) Render

// HistoryEntry is the state before one forward transition.
type HistoryEntry struct {
	Step   string
	Data   Data
	Render RenderFunc
}

// Session is one user's conversation state. It lives in memory only.
type Session struct {
	UserID      int64
	DisplayName string

	Flow    booking.Domain
	Step    string
	Data    Data
	History []HistoryEntry
}

// Active reports whether a wizard is running.
func (s *Session) Active() bool { return s != nil && s.Flow != "" }

// Reset clears the wizard state but keeps the user identity.
func (s *Session) Reset() {
	s.Flow = ""
	s.Step = ""
	s.Data = nil
	s.History = nil
}
