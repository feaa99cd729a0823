package forms

import (
	"context"

	"bankbot/internal/types"
)

// Update sets Slot to Value. A nil Value rejects the slot.
type Update struct {
	Slot  Slot
	Value any
}

// Result is what a validator decided: ordered slot updates plus the messages
// to send the user, in order.
type Result struct {
	Updates  []Update
	Messages []types.BotMessage
}

// Validator checks the value extracted for one slot against the current
// conversation. Bad input is a rejection in the Result; the error return is
// reserved for failures of the bot itself, such as the profile store.
type Validator func(ctx context.Context, value any, tr *types.Tracker) (Result, error)

// Explainer tells the user more about a slot they keep getting wrong. It is
// called with the slot's current value and may set further slots.
type Explainer func(ctx context.Context, value any, tr *types.Tracker) (Result, error)

// Accept returns a result that sets slot to value.
func Accept(slot Slot, value any) Result {
	return Result{Updates: []Update{{Slot: slot, Value: value}}}
}

// Reject returns a result that clears slot.
func Reject(slot Slot) Result {
	return Result{Updates: []Update{{Slot: slot}}}
}

// AcceptSlots returns a result that sets each slot value in order.
func AcceptSlots(values []types.SlotValue) Result {
	var r Result
	for _, v := range values {
		r = r.Also(Slot(v.Name), v.Value)
	}
	return r
}

// Also appends another slot update.
func (r Result) Also(slot Slot, value any) Result {
	r.Updates = append(r.Updates, Update{Slot: slot, Value: value})
	return r
}

// Say appends a templated message.
func (r Result) Say(response string, kwargs map[string]any) Result {
	r.Messages = append(r.Messages, types.BotMessage{Response: response, Kwargs: kwargs})
	return r
}

// SayText appends a literal message.
func (r Result) SayText(text string, buttons ...types.Button) Result {
	r.Messages = append(r.Messages, types.BotMessage{Text: text, Buttons: buttons})
	return r
}

// Value returns the last update for slot.
func (r Result) Value(slot Slot) (any, bool) {
	for i := len(r.Updates) - 1; i >= 0; i-- {
		if r.Updates[i].Slot == slot {
			return r.Updates[i].Value, true
		}
	}
	return nil, false
}

// Accepted reports whether the result fills slot.
func (r Result) Accepted(slot Slot) bool {
	v, ok := r.Value(slot)
	return ok && filled(v)
}

// Events converts the updates into SlotSet events.
func (r Result) Events() []types.Event {
	events := make([]types.Event, 0, len(r.Updates))
	for _, u := range r.Updates {
		events = append(events, u.Slot.Set(u.Value))
	}
	return events
}
