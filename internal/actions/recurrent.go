package actions

import (
	"context"
	"time"

	"bankbot/internal/forms"
	"bankbot/internal/logging"
	"bankbot/internal/parsing"
	"bankbot/internal/types"
)

// recurrentDate reads a date the user gave for a recurrent payment. The time
// entity of the latest message wins; otherwise the slot must already hold an
// ISO-8601 timestamp. Spans resolve to their start.
func recurrentDate(tr *types.Tracker, slot forms.Slot) (time.Time, bool) {
	if e, ok := tr.LatestEntity(parsing.EntityTime); ok {
		if iv, ok := parsing.ParseTimeAsInterval(e); ok {
			return iv.Start, true
		}
	}
	t, err := parsing.ParseInstant(tr.SlotString(string(slot)))
	if err != nil {
		logging.ActionsDebug("%s: %v", slot, err)
		return time.Time{}, false
	}
	return t, true
}

func invalidDate(d *types.Dispatcher, slot forms.Slot) []types.Event {
	d.Utter("utter_invalid_date", nil)
	return []types.Event{slot.Set(nil)}
}

// ValidateRecurrentStartDate is validate_recurrent_payment_start_date. The
// first payment cannot be in the past.
func ValidateRecurrentStartDate(now func() time.Time) Action {
	return Func("validate_recurrent_payment_start_date", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		slot := forms.RecurrentPaymentStartDate
		if tr.Slot(string(slot)) == nil {
			return nil, nil
		}
		start, ok := recurrentDate(tr, slot)
		if !ok || start.Before(now()) {
			return invalidDate(d, slot), nil
		}
		return []types.Event{slot.Set(start.Format(time.RFC3339))}, nil
	})
}

// ValidateRecurrentEndDate is validate_recurrent_payment_end_date. The last
// payment cannot come before the first.
func ValidateRecurrentEndDate() Action {
	return Func("validate_recurrent_payment_end_date", func(_ context.Context, d *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		slot := forms.RecurrentPaymentEndDate
		if tr.Slot(string(slot)) == nil {
			return nil, nil
		}
		end, ok := recurrentDate(tr, slot)
		if !ok {
			return invalidDate(d, slot), nil
		}
		if s := tr.SlotString(string(forms.RecurrentPaymentStartDate)); s != "" {
			start, err := parsing.ParseInstant(s)
			if err == nil && end.Before(start) {
				return invalidDate(d, slot), nil
			}
		}
		return []types.Event{slot.Set(end.Format(time.RFC3339))}, nil
	})
}

// ExecuteRecurrentPayment is action_execute_recurrent_payment. Scheduling
// itself happens outside the assistant; the action only records success.
func ExecuteRecurrentPayment() Action {
	return Func("action_execute_recurrent_payment", func(_ context.Context, _ *types.Dispatcher, tr *types.Tracker) ([]types.Event, error) {
		logging.Actions("Recurrent payment for %s from %s to %s", tr.SenderID,
			tr.SlotString(string(forms.RecurrentPaymentStartDate)),
			tr.SlotString(string(forms.RecurrentPaymentEndDate)))
		return []types.Event{forms.SetupRecurrentPaymentSuccessful.Set(true)}, nil
	})
}
