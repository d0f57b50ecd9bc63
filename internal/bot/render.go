package bot

import (
	tghelpers "github.com/m3rciful/dopiumbot/core/telegram/helpers"
	"github.com/m3rciful/dopiumbot/core/telegram/keyboard"
	"github.com/m3rciful/dopiumbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// Callback keys of the wizard buttons.
const (
	cbFlowOption = "flow_opt"
	cbFlowBack   = "flow_back"
)

// origin tells show where the event came from.
type origin int

const (
	fromText origin = iota
	fromStart
	fromCallback
)

// optionsMarkup lays the options out one per row. Nil when there are none.
func optionsMarkup(opts []flow.Option) *tele.ReplyMarkup {
	if len(opts) == 0 {
		return nil
	}
	btns := make([]keyboard.InlineBtn, 0, len(opts))
	for _, o := range opts {
		switch {
		case o.URL != "":
			btns = append(btns, keyboard.InlineBtn{Text: o.Label, URL: o.URL})
		case o.Token == flow.BackToken:
			btns = append(btns, keyboard.InlineBtn{Text: o.Label, Unique: cbFlowBack})
		default:
			btns = append(btns, keyboard.InlineBtn{Text: o.Label, Unique: cbFlowOption, Data: o.Token})
		}
	}
	return keyboard.InlineButtonsNPerRow(btns, 1)
}

// show delivers a Render. Wizard screens reached from an inline button edit
// that message in place; finished or cancelled wizards bring the main menu
// back.
func (b *Bot) show(c tele.Context, r flow.Render, from origin) error {
	markup := optionsMarkup(r.Options)
	if from == fromCallback {
		respond(c, r)
	}

	switch {
	case r.Kind == flow.KindNoFlow, r.Kind == flow.KindNoHistory:
		if from == fromCallback {
			return nil
		}
		return tghelpers.SendText(c, r.Message, mainMenu())
	case r.Completed, r.Kind == flow.KindCancelled:
		return tghelpers.SendText(c, r.Message, mainMenu())
	case r.Kind == flow.KindJoin, r.Kind == flow.KindUnavailable, r.Kind == flow.KindError:
		// the wizard's own message keeps its buttons
		return tghelpers.SendText(c, r.Message, markup)
	}

	switch from {
	case fromCallback:
		return tghelpers.EditOrSendText(c, r.Message, markup)
	case fromStart:
		if markup == nil {
			return tghelpers.SendText(c, r.Message, cancelMenu())
		}
		if err := tghelpers.SendText(c, r.Message, markup); err != nil {
			return err
		}
		return tghelpers.SendText(c, txtCancelHint, cancelMenu())
	}
	return tghelpers.SendText(c, r.Message, markup)
}

// respond answers the callback query; stale buttons get a toast.
func respond(c tele.Context, r flow.Render) {
	resp := &tele.CallbackResponse{}
	switch r.Kind {
	case flow.KindNoFlow, flow.KindNoHistory:
		resp.Text = r.Message
	case flow.KindJoin:
		resp.Text = txtJoinAlert
	}
	_ = c.Respond(resp)
}
