package forms

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankbot/internal/config"
	"bankbot/internal/types"
)

var cards = Choice{
	Slot:       CreditCard,
	Candidates: Static("iron bank", "gringots", "credit all"),
	Reject:     "utter_no_creditcard",
}

func explainCards(_ context.Context, _ any, _ *types.Tracker) (Result, error) {
	return Result{}.SayText("You have these cards: Iron Bank, Gringots, Credit All"), nil
}

func paymentForm(t *testing.T) *Form {
	t.Helper()
	f, err := NewForm("cc_payment_form",
		[]Slot{ContinueForm, CreditCard, ConfirmForm},
		map[Slot]Validator{
			ContinueForm: ValidateContinue,
			CreditCard:   cards.Validator(),
			ConfirmForm:  ValidateConfirm,
		},
		WithExplainer(CreditCard, explainCards),
	)
	require.NoError(t, err)
	return f
}

// turn builds the tracker the engine sends after the user answered the
// requested slot. rvf < 0 leaves the counter unset.
func turn(requested Slot, rvf int, extracted ...types.SlotValue) *types.Tracker {
	tr := types.NewTracker("alice")
	tr.ActiveLoop = types.Loop{Name: "cc_payment_form"}
	tr.Slots[string(ContinueForm)] = "yes"
	tr.Slots[string(RequestedSlot)] = string(requested)
	if rvf >= 0 {
		tr.Slots[string(RepeatedValidationFailures)] = float64(rvf)
	}
	tr.Events = append(tr.Events, types.UserUttered("..."))
	for _, sv := range extracted {
		tr.Slots[sv.Name] = sv.Value
		tr.Events = append(tr.Events, types.SlotSet(sv.Name, sv.Value))
	}
	return tr
}

func card(v string) types.SlotValue {
	return types.SlotValue{Name: string(CreditCard), Value: v}
}

func counter(t *testing.T, events []types.Event) int {
	t.Helper()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsSlot(string(RepeatedValidationFailures)) {
			n, ok := types.AsFloat(events[i].Value)
			require.True(t, ok, "counter must be numeric: %v", events[i])
			return int(n)
		}
	}
	t.Fatalf("no counter update in %v", events)
	return 0
}

func escalated(events []types.Event) bool {
	for _, ev := range events {
		if ev.IsSlot(string(ContinueForm)) && ev.Value == nil {
			return true
		}
	}
	return false
}

func run(t *testing.T, a *ValidationAction, tr *types.Tracker) ([]types.Event, []types.BotMessage) {
	t.Helper()
	d := types.NewDispatcher()
	events, err := a.Run(context.Background(), d, tr)
	require.NoError(t, err)
	return events, d.Messages()
}

func TestNewEscalationDefaults(t *testing.T) {
	assert.Equal(t, 2, NewEscalation(config.FormsConfig{}).Threshold)
	assert.Equal(t, 2, NewEscalation(config.FormsConfig{MaxValidationFailures: -1}).Threshold)
	assert.Equal(t, 5, NewEscalation(config.FormsConfig{MaxValidationFailures: 5}).Threshold)
}

func TestUnknownCardEscalatesOnSecondTurn(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{MaxValidationFailures: 2}))

	// Turn 1: rejected, counted, no escalation.
	events, msgs := run(t, a, turn(CreditCard, -1, card("xyz")))
	want := []types.Event{
		CreditCard.Set(nil),
		RepeatedValidationFailures.Set(1),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("turn 1 events mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, msgs, 1)
	assert.Equal(t, "utter_no_creditcard", msgs[0].Response)
	assert.Equal(t, "xyz", msgs[0].Kwargs[string(CreditCard)])

	// Turn 2: rejected again, the form explains and asks to continue.
	events, msgs = run(t, a, turn(CreditCard, 1, card("xyz")))
	want = []types.Event{
		CreditCard.Set(nil),
		ContinueForm.Set(nil),
		RepeatedValidationFailures.Set(0),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("turn 2 events mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, msgs, 2)
	assert.Equal(t, "utter_no_creditcard", msgs[0].Response)
	assert.Contains(t, msgs[1].Text, "Iron Bank")
}

func TestSuccessResetsCounter(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{MaxValidationFailures: 2}))

	events, _ := run(t, a, turn(CreditCard, 1, card("Gringots")))
	assert.Equal(t, 0, counter(t, events))
	assert.False(t, escalated(events))
	assert.Contains(t, events, CreditCard.Set("Gringots"))
}

func TestFailureAfterResetDoesNotEscalate(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{MaxValidationFailures: 2}))

	rvf := -1
	for i, value := range []string{"xyz", "iron bank", "xyz"} {
		events, _ := run(t, a, turn(CreditCard, rvf, card(value)))
		assert.False(t, escalated(events), "turn %d must not escalate", i+1)
		rvf = counter(t, events)
	}
	assert.Equal(t, 1, rvf)
}

func TestHigherThreshold(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{MaxValidationFailures: 3}))

	events, _ := run(t, a, turn(CreditCard, 1, card("xyz")))
	assert.False(t, escalated(events))
	assert.Equal(t, 2, counter(t, events))

	events, _ = run(t, a, turn(CreditCard, 2, card("xyz")))
	assert.True(t, escalated(events))
}

func TestNothingExtractedInterruptsForm(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	events, msgs := run(t, a, turn(CreditCard, 1))
	want := []types.Event{
		types.LoopInterrupted(true),
		types.ActionExecutionRejected("cc_payment_form"),
		RepeatedValidationFailures.Set(0),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, msgs)
}

func TestOtherSlotDoesNotCount(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	// The user answered the confirmation early while the form asks for the
	// card: only the requested slot's outcome counts.
	events, _ := run(t, a, turn(CreditCard, 1, types.SlotValue{Name: string(ConfirmForm), Value: "yes"}))
	assert.True(t, escalated(events), "card was still not provided")

	events, _ = run(t, a, turn(ConfirmForm, 0, card("iron bank"), types.SlotValue{Name: string(ConfirmForm), Value: "yes"}))
	assert.Equal(t, 0, counter(t, events))
	assert.Contains(t, events, CreditCard.Set("Iron Bank"))
}

func TestNoRequestedSlotSkipsTracking(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	events, _ := run(t, a, turn("", -1, card("xyz")))
	want := []types.Event{CreditCard.Set(nil)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestContinueMarkerPrepended(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	tr := turn(CreditCard, -1, card("gringots"))
	delete(tr.Slots, string(ContinueForm))
	events, _ := run(t, a, tr)
	require.NotEmpty(t, events)
	assert.Equal(t, ContinueForm.Set("yes"), events[0])
	assert.Equal(t, 0, counter(t, events))
}

func TestAnsweringNoCancelsForm(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	tr := turn(ContinueForm, 0, types.SlotValue{Name: string(ContinueForm), Value: "no"})
	events, _ := run(t, a, tr)
	want := []types.Event{
		RequestedSlot.Set(nil),
		ConfirmForm.Set("no"),
		ContinueForm.Set("no"),
		types.LoopInterrupted(true),
		types.ActionExecutionRejected("cc_payment_form"),
		RepeatedValidationFailures.Set(0),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestAnsweringYesResumes(t *testing.T) {
	a := NewValidationAction(paymentForm(t), NewEscalation(config.FormsConfig{}))

	events, _ := run(t, a, turn(ContinueForm, 0, types.SlotValue{Name: string(ContinueForm), Value: "yes"}))
	assert.Contains(t, events, ContinueForm.Set("yes"))
	assert.False(t, escalated(events))
	assert.Equal(t, 0, counter(t, events))
}

func TestHookRunsAfterTracking(t *testing.T) {
	var seen *types.Tracker
	f, err := NewForm("transaction_search_form",
		[]Slot{SearchType},
		map[Slot]Validator{
			SearchType: Choice{Slot: SearchType, Candidates: Static("spend", "deposit"), Display: func(s string) string { return s }}.Validator(),
			VendorName: PassThrough(VendorName),
		},
		WithNext(func(_ context.Context, tr *types.Tracker) []types.Event {
			seen = tr
			if tr.SlotString(string(SearchType)) == "spend" && tr.SlotString(string(VendorName)) == "" {
				return []types.Event{RequestedSlot.Set(string(VendorName))}
			}
			return nil
		}),
	)
	require.NoError(t, err)
	a := NewValidationAction(f, NewEscalation(config.FormsConfig{}))

	events, _ := run(t, a, turn(SearchType, 1, types.SlotValue{Name: string(SearchType), Value: "Spend"}))
	want := []types.Event{
		SearchType.Set("spend"),
		RepeatedValidationFailures.Set(0),
		RequestedSlot.Set(string(VendorName)),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, seen)
	assert.Equal(t, "spend", seen.SlotString(string(SearchType)))
}

func TestValidatorErrorPropagates(t *testing.T) {
	boom := assert.AnError
	f, err := NewForm("cc_payment_form",
		[]Slot{CreditCard},
		map[Slot]Validator{
			CreditCard: func(context.Context, any, *types.Tracker) (Result, error) { return Result{}, boom },
		},
	)
	require.NoError(t, err)

	_, err = NewValidationAction(f, nil).Run(context.Background(), types.NewDispatcher(), turn(CreditCard, 0, card("x")))
	require.ErrorIs(t, err, boom)
}

func TestWithoutEscalation(t *testing.T) {
	f := paymentForm(t)
	events, _ := run(t, NewValidationAction(f, nil), turn(CreditCard, -1, card("xyz")))
	want := []types.Event{CreditCard.Set(nil)}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
