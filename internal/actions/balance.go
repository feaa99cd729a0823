package actions

import (
	"context"
	"errors"

	"bankbot/internal/forms"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

// ShowBalance is action_show_balance. It reports either the bank account
// balance or, for account_type "credit", the balance of the named card or of
// every card.
func ShowBalance(p Profile) Action {
	return Func("action_show_balance", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		if tr.SlotString(string(forms.AccountType)) != "credit" {
			balance, err := p.AccountBalance(ctx, tr.SenderID)
			if err != nil {
				return nil, err
			}
			d.Utter("utter_account_balance", map[string]any{"init_account_balance": money(balance)})
			return askToContinue(tr), nil
		}

		names := []string{tr.SlotString(string(forms.CreditCard))}
		if names[0] != "" {
			if _, err := p.CreditCard(ctx, tr.SenderID, names[0]); errors.Is(err, store.ErrCardNotFound) {
				names[0] = ""
			} else if err != nil {
				return nil, err
			}
		}
		if names[0] == "" {
			all, err := p.ListCreditCards(ctx, tr.SenderID)
			if err != nil {
				return nil, err
			}
			names = all
		}
		for _, name := range names {
			card, err := p.CreditCard(ctx, tr.SenderID, name)
			if err != nil {
				return nil, err
			}
			d.Utter("utter_credit_card_balance", map[string]any{
				string(forms.CreditCard):    forms.TitleCase(card.Name),
				string(forms.AmountOfMoney): money(card.CurrentBalance),
			})
		}
		return askToContinue(tr), nil
	})
}

// ShowRecipients is action_show_recipients.
func ShowRecipients(p Profile) Action {
	return Func("action_show_recipients", func(ctx context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		list, err := recipientList(ctx, p, tr.SenderID)
		if err != nil {
			return nil, err
		}
		d.Utter("utter_recipients", map[string]any{"formatted_recipients": list})
		return askToContinue(tr), nil
	})
}

// ShowTransferCharge is action_show_transfer_charge.
func ShowTransferCharge() Action {
	return Func("action_show_transfer_charge", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		d.Utter("utter_transfer_charge", nil)
		return askToContinue(tr), nil
	})
}
