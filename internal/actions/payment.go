package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// PaymentForm builds cc_payment_form: which card, how much and when.
func PaymentForm(p Profile) (*forms.Form, error) {
	cards := cardChoice(p)
	return forms.NewForm("cc_payment_form",
		[]forms.Slot{
			forms.ContinueForm,
			forms.CreditCard,
			forms.AmountOfMoney,
			forms.Time,
			forms.ConfirmForm,
		},
		map[forms.Slot]forms.Validator{
			forms.ContinueForm:  forms.ValidateContinue,
			forms.CreditCard:    cards.Validator(),
			forms.AmountOfMoney: amountValidator(p, cardBalance(p)),
			forms.Time:          timePointValidator,
			forms.ConfirmForm:   forms.ValidateConfirm,
		},
		forms.WithExplainer(forms.CreditCard, explainCards(p)),
	)
}

func cardChoice(p Profile) forms.Choice {
	return forms.Choice{
		Slot: forms.CreditCard,
		Candidates: func(ctx context.Context, tr *types.Tracker) ([]string, error) {
			return p.ListCreditCards(ctx, tr.SenderID)
		},
		Fuzzy:  true,
		Reject: "utter_no_creditcard",
	}
}

// cardBalance resolves "minimum balance" or "current balance" against the
// card chosen earlier in the form.
func cardBalance(p Profile) func(ctx context.Context, value any, tr *types.Tracker) (float64, string, bool, error) {
	return func(ctx context.Context, value any, tr *types.Tracker) (float64, string, bool, error) {
		s, _ := value.(string)
		name := tr.SlotString(string(forms.CreditCard))
		if s == "" || name == "" {
			return 0, "", false, nil
		}
		card, err := p.CreditCard(ctx, tr.SenderID, name)
		if errors.Is(err, store.ErrCardNotFound) {
			return 0, "", false, nil
		}
		if err != nil {
			return 0, "", false, err
		}
		amount, err := card.Balance(s)
		if errors.Is(err, store.ErrUnknownBalanceType) {
			return 0, "", false, nil
		}
		if err != nil {
			return 0, "", false, err
		}
		kind := strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " ")), " ")
		return amount, kind, true, nil
	}
}

func explainCards(p Profile) forms.Explainer {
	return func(ctx context.Context, _ any, tr *types.Tracker) (forms.Result, error) {
		names, err := p.ListCreditCards(ctx, tr.SenderID)
		if err != nil {
			return forms.Result{}, err
		}
		r := forms.Result{}.SayText("You have the following credit cards:")
		for _, name := range names {
			card, err := p.CreditCard(ctx, tr.SenderID, name)
			if err != nil {
				return forms.Result{}, err
			}
			r = r.Say("utter_credit_card_balance", map[string]any{
				string(forms.CreditCard):    forms.TitleCase(card.Name),
				string(forms.AmountOfMoney): money(card.CurrentBalance),
			})
		}
		return r, nil
	}
}

// PayCreditCard is action_pay_cc, which submits cc_payment_form.
func PayCreditCard(p Profile) Action {
	return Func("action_pay_cc", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		events := resetForm(append([]forms.Slot{
			forms.CreditCard,
			forms.AccountType,
			forms.AmountOfMoney,
			forms.PaymentAmountType,
			forms.Number,
		}, timeSlots...)...)

		if !submitted(tr) {
			d.Utter("utter_cc_pay_cancelled", nil)
			return events, nil
		}

		card := tr.SlotString(string(forms.CreditCard))
		amount, ok := tr.SlotFloat(string(forms.AmountOfMoney))
		if !ok {
			return nil, fmt.Errorf("amount %q is not a number", tr.SlotString(string(forms.AmountOfMoney)))
		}
		err := p.PayOffCreditCard(ctx, tr.SenderID, card, amount)
		switch {
		case errors.Is(err, store.ErrInsufficientFunds):
			logging.ActionsWarn("Payment of %.2f to %s declined: %v", amount, card, err)
			d.Utter("utter_insufficient_funds", nil)
		case errors.Is(err, store.ErrInvalidAmount):
			d.Utter("utter_no_payment_amount", nil)
		case err != nil:
			return nil, err
		default:
			d.Utter("utter_cc_pay_scheduled", nil)
		}
		return events, nil
	})
}
