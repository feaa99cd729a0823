package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bankbot/internal/forms"
	"bankbot/internal/parsing"
	"bankbot/internal/types"
)

// timeSlots are the slots a parsed time annotation fills.
var timeSlots = []forms.Slot{
	forms.Time,
	forms.TimeFormatted,
	forms.StartTime,
	forms.EndTime,
	forms.StartTimeFormatted,
	forms.EndTimeFormatted,
	forms.Grain,
}

// submitted reports whether the user confirmed the form.
func submitted(tr *types.Tracker) bool {
	return tr.SlotString(string(forms.ConfirmForm)) == "yes"
}

// resetForm clears the bookkeeping slots of a finished form followed by
// slots.
func resetForm(slots ...forms.Slot) []types.Event {
	return forms.Clear(append([]forms.Slot{forms.ContinueForm, forms.ConfirmForm}, slots...)...)
}

// askToContinue makes an active form ask whether to go on after an
// interjection such as "what's my balance?".
func askToContinue(tr *types.Tracker) []types.Event {
	if tr.ActiveLoopName() == "" {
		return nil
	}
	return []types.Event{forms.ContinueForm.Set(nil)}
}

// money formats an amount the way slots and templates carry it.
func money(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// extractedMoney reads the amount of the latest message: a money entity,
// else a number entity, else a numeric slot value.
func extractedMoney(value any, tr *types.Tracker) (parsing.Money, bool) {
	for _, kind := range []string{parsing.EntityMoney, parsing.EntityNumber} {
		if e, ok := tr.LatestEntity(kind); ok {
			if m, ok := parsing.ParseMoney(e); ok {
				return m, true
			}
		}
	}
	if f, ok := types.AsFloat(value); ok && f > 0 {
		return parsing.Money{Amount: f, Currency: parsing.DefaultCurrency}, true
	}
	return parsing.Money{}, false
}

// amountValidator accepts positive amounts the account can cover. keyword, if set,
// resolves phrases such as "my minimum balance" that are not numbers.
func amountValidator(p Profile, keyword func(ctx context.Context, value any, tr *types.Tracker) (float64, string, bool, error)) forms.Validator {
	return func(ctx context.Context, value any, tr *types.Tracker) (forms.Result, error) {
		available, err := p.AccountBalance(ctx, tr.SenderID)
		if err != nil {
			return forms.Result{}, err
		}

		if m, ok := extractedMoney(value, tr); ok {
			if m.Amount <= 0 {
				return forms.Reject(forms.AmountOfMoney).Say("utter_no_payment_amount", nil), nil
			}
			if m.Amount > available {
				return forms.Reject(forms.AmountOfMoney).Say("utter_insufficient_funds", nil), nil
			}
			return forms.AcceptSlots(m.Slots()), nil
		}

		if keyword != nil {
			amount, kind, ok, err := keyword(ctx, value, tr)
			if err != nil {
				return forms.Result{}, err
			}
			if ok {
				if amount <= 0 {
					return forms.Reject(forms.AmountOfMoney).Say("utter_no_payment_amount", nil), nil
				}
				if amount > available {
					return forms.Reject(forms.AmountOfMoney).Say("utter_insufficient_funds", nil), nil
				}
				return forms.Accept(forms.AmountOfMoney, money(amount)).
					Also(forms.PaymentAmountType, fmt.Sprintf(" (your %s)", kind)).
					Also(forms.Currency, parsing.DefaultCurrency), nil
			}
		}

		return forms.Reject(forms.AmountOfMoney).Say("utter_no_payment_amount", nil), nil
	}
}

// timePointValidator fills the time slots from a point-in-time entity.
func timePointValidator(_ context.Context, _ any, tr *types.Tracker) (forms.Result, error) {
	if e, ok := tr.LatestEntity(parsing.EntityTime); ok {
		if p, ok := parsing.ParseTimePoint(e); ok {
			return forms.AcceptSlots(p.Slots()), nil
		}
	}
	return forms.Reject(forms.Time).Say("utter_no_transactdate", nil), nil
}

// timeIntervalValidator fills the time slots from a time entity read as a
// span. The time slot itself holds the start so the form sees it filled.
func timeIntervalValidator(_ context.Context, _ any, tr *types.Tracker) (forms.Result, error) {
	if e, ok := tr.LatestEntity(parsing.EntityTime); ok {
		if iv, ok := parsing.ParseTimeAsInterval(e); ok {
			return forms.AcceptSlots(iv.Slots()).Also(forms.Time, iv.Start.Format(time.RFC3339)), nil
		}
	}
	return forms.Reject(forms.Time).Say("utter_no_transactdate", nil), nil
}

// formatted renders names as a bulleted list on its own lines.
func formatted(names []string) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString("\n- ")
		b.WriteString(n)
	}
	return b.String()
}
