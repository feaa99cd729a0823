package actions

import (
	"context"
	"fmt"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// NextFormName maps the intents that start a form to that form.
var NextFormName = map[string]string{
	"pay_cc":              "cc_payment_form",
	"transfer_money":      "transfer_money_form",
	"search_transactions": "transaction_search_form",
	"check_earnings":      "transaction_search_form",
}

// FormDescription is how each switchable form is named to the user.
var FormDescription = map[string]string{
	"cc_payment_form":         "credit card payment",
	"transfer_money_form":     "money transfer",
	"transaction_search_form": "transaction search",
}

// SwitchFormsAsk is action_switch_forms_ask: the user asked for another
// form while one is active.
func SwitchFormsAsk() Action {
	return Func("action_switch_forms_ask", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		active := tr.ActiveLoopName()
		next := NextFormName[tr.LatestMessage.Intent.Name]
		current, okActive := FormDescription[active]
		target, okNext := FormDescription[next]
		if !okActive || !okNext {
			logging.ActionsDebug("No switch text for active form %q and next form %q", active, next)
			return []types.Event{forms.NextFormName.Set(nil)}, nil
		}
		d.UtterText(fmt.Sprintf("We haven't completed the %s yet. Are you sure you want to switch to %s?", current, target),
			types.YesNoButtons...)
		return []types.Event{forms.NextFormName.Set(next)}, nil
	})
}

// SwitchFormsDeny is action_switch_forms_deny.
func SwitchFormsDeny() Action {
	return Func("action_switch_forms_deny", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		if current, ok := FormDescription[tr.ActiveLoopName()]; ok {
			d.UtterText(fmt.Sprintf("Ok, let's continue with the %s.", current))
		} else {
			logging.ActionsDebug("No switch text for active form %q", tr.ActiveLoopName())
		}
		return []types.Event{forms.NextFormName.Set(nil)}, nil
	})
}

// SwitchFormsAffirm is action_switch_forms_affirm. It remembers the form
// being left so the user can be offered to go back.
func SwitchFormsAffirm() Action {
	return Func("action_switch_forms_affirm", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		active := tr.ActiveLoopName()
		next := tr.SlotString(string(forms.NextFormName))
		current, okActive := FormDescription[active]
		target, okNext := FormDescription[next]
		if okActive && okNext {
			d.UtterText(fmt.Sprintf("Great. Let's switch from the %s to %s. Once completed, you will have the option to switch back.",
				current, target))
		} else {
			logging.ActionsDebug("No switch text for active form %q and next form %q", active, next)
		}

		var previous any
		if active != "" {
			previous = active
		}
		return []types.Event{
			forms.PreviousFormName.Set(previous),
			forms.NextFormName.Set(nil),
		}, nil
	})
}

// SwitchBackAsk is action_switch_back_ask.
func SwitchBackAsk() Action {
	return Func("action_switch_back_ask", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		previous := tr.SlotString(string(forms.PreviousFormName))
		if desc, ok := FormDescription[previous]; ok {
			d.UtterText(fmt.Sprintf("Would you like to go back to the %s now?", desc), types.YesNoButtons...)
		} else {
			logging.ActionsDebug("No switch-back text for previous form %q", previous)
		}
		return []types.Event{forms.PreviousFormName.Set(nil)}, nil
	})
}
