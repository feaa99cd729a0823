package actions

import (
	"context"
	"errors"
	"fmt"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// TransferForm builds transfer_money_form: to whom and how much.
func TransferForm(p Profile) (*forms.Form, error) {
	recipients := recipientChoice(p)
	return forms.NewForm("transfer_money_form",
		[]forms.Slot{
			forms.ContinueForm,
			forms.Person,
			forms.AmountOfMoney,
			forms.ConfirmForm,
		},
		map[forms.Slot]forms.Validator{
			forms.ContinueForm:  forms.ValidateContinue,
			forms.Person:        recipients.Validator(),
			forms.AmountOfMoney: amountValidator(p, nil),
			forms.ConfirmForm:   forms.ValidateConfirm,
		},
		forms.WithExplainer(forms.Person, explainRecipients(p)),
	)
}

// recipientChoice accepts a known recipient by full or first name.
func recipientChoice(p Profile) forms.Choice {
	return forms.Choice{
		Slot: forms.Person,
		Candidates: func(ctx context.Context, tr *types.Tracker) ([]string, error) {
			return p.ListKnownRecipients(ctx, tr.SenderID)
		},
		FirstWord: true,
		Fuzzy:     true,
		Reject:    "utter_unknown_recipient",
	}
}

func recipientList(ctx context.Context, p Profile, sessionID string) (string, error) {
	names, err := p.ListKnownRecipients(ctx, sessionID)
	if err != nil {
		return "", err
	}
	for i, n := range names {
		names[i] = forms.TitleCase(n)
	}
	return formatted(names), nil
}

func explainRecipients(p Profile) forms.Explainer {
	return func(ctx context.Context, _ any, tr *types.Tracker) (forms.Result, error) {
		list, err := recipientList(ctx, p, tr.SenderID)
		if err != nil {
			return forms.Result{}, err
		}
		return forms.Result{}.Say("utter_recipients", map[string]any{"formatted_recipients": list}), nil
	}
}

// TransferMoney is action_transfer_money, which submits
// transfer_money_form.
func TransferMoney(p Profile) Action {
	return Func("action_transfer_money", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		events := resetForm(forms.Person, forms.AmountOfMoney, forms.Number)

		if !submitted(tr) {
			d.Utter("utter_transfer_cancelled", nil)
			return events, nil
		}

		recipient := tr.SlotString(string(forms.Person))
		amount, ok := tr.SlotFloat(string(forms.AmountOfMoney))
		if !ok {
			return nil, fmt.Errorf("amount %q is not a number", tr.SlotString(string(forms.AmountOfMoney)))
		}
		err := p.Transfer(ctx, tr.SenderID, recipient, amount)
		switch {
		case errors.Is(err, store.ErrInsufficientFunds):
			logging.ActionsWarn("Transfer of %.2f to %s declined: %v", amount, recipient, err)
			d.Utter("utter_insufficient_funds", nil)
		case errors.Is(err, store.ErrInvalidAmount):
			d.Utter("utter_no_payment_amount", nil)
		case errors.Is(err, store.ErrRecipientNotFound):
			d.Utter("utter_unknown_recipient", map[string]any{string(forms.Person): recipient})
		case err != nil:
			return nil, err
		default:
			d.Utter("utter_transfer_complete", map[string]any{
				string(forms.Person):        recipient,
				string(forms.AmountOfMoney): money(amount),
			})
		}
		return events, nil
	})
}
