// Package forms validates the slots a form collects and tracks repeated
// validation failures of the slot the form is asking for.
//
// Every slot of a form is bound to an explicit Validator when the form is
// built. After each turn the requested slot's outcome feeds a per
// conversation failure counter held in the repeated_validation_failures
// slot; when the counter reaches the configured threshold the form explains
// the slot (if it can) and clears the AA_CONTINUE_FORM marker so the user is
// asked whether to keep going.
package forms

import "bankbot/internal/types"

// Slot is the name of a conversation slot.
type Slot string

// Form bookkeeping.
const (
	RequestedSlot              Slot = types.RequestedSlot
	ContinueForm               Slot = "AA_CONTINUE_FORM"
	RepeatedValidationFailures Slot = "repeated_validation_failures"
	ConfirmForm                Slot = "zz_confirm_form"
)

// Banking slots.
const (
	AccountType       Slot = "account_type"
	CreditCard        Slot = "credit_card"
	AmountOfMoney     Slot = "amount-of-money"
	Number            Slot = "number"
	Currency          Slot = "currency"
	PaymentAmountType Slot = "payment_amount_type"
	Person            Slot = "PERSON"
	SearchType        Slot = "search_type"
	VendorName        Slot = "vendor_name"
	Vendor            Slot = "vendor"
	HandoffTo         Slot = "handoff_to"
	NextFormName      Slot = "next_form_name"
	PreviousFormName  Slot = "previous_form_name"

	RecurrentPaymentStartDate       Slot = "recurrent_payment_start_date"
	RecurrentPaymentEndDate         Slot = "recurrent_payment_end_date"
	SetupRecurrentPaymentSuccessful Slot = "setup_recurrent_payment_successful"
)

// Time slots, filled from time annotations.
const (
	Time               Slot = "time"
	TimeFormatted      Slot = "time_formatted"
	StartTime          Slot = "start_time"
	EndTime            Slot = "end_time"
	StartTimeFormatted Slot = "start_time_formatted"
	EndTimeFormatted   Slot = "end_time_formatted"
	Grain              Slot = "grain"
)

// Set returns a SlotSet event for s.
func (s Slot) Set(value any) types.Event {
	return types.SlotSet(string(s), value)
}

// Clear returns events that reset every slot in slots.
func Clear(slots ...Slot) []types.Event {
	events := make([]types.Event, 0, len(slots))
	for _, s := range slots {
		events = append(events, s.Set(nil))
	}
	return events
}

// filled reports whether a slot value counts as present. Empty strings,
// false, zero and empty lists do not.
func filled(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	case []string:
		return len(x) > 0
	default:
		return true
	}
}
