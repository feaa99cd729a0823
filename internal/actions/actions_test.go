package actions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankbot/internal/config"
	"bankbot/internal/forms"
	"bankbot/internal/store"
	"bankbot/internal/types"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.HandoffHosts = map[string]config.HandoffHost{
		"sara":    {Title: "Sara", URL: "http://sara.example:5005"},
		"finbot":  {Title: "Financial Demo", URL: "http://finbot.example:5005"},
		"offline": {Title: "Offline"},
	}
	return cfg
}

func newTestRegistry(t *testing.T, p Profile) *Registry {
	t.Helper()
	r, err := Default(Deps{Profile: p, Config: newTestConfig(), Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	return r
}

func TestDefaultRegistersEveryAction(t *testing.T) {
	r := newTestRegistry(t, newFakeProfile())
	want := []string{
		"action_add_vendor",
		"action_ask_transaction_search_form_zz_confirm_form",
		"action_execute_recurrent_payment",
		"action_handoff",
		"action_handoff_options",
		"action_pay_cc",
		"action_restart",
		"action_session_start",
		"action_show_balance",
		"action_show_recipients",
		"action_show_transfer_charge",
		"action_show_vendors",
		"action_switch_back_ask",
		"action_switch_forms_affirm",
		"action_switch_forms_ask",
		"action_switch_forms_deny",
		"action_transaction_search",
		"action_transfer_money",
		"validate_add_vendor_form",
		"validate_cc_payment_form",
		"validate_recurrent_payment_end_date",
		"validate_recurrent_payment_start_date",
		"validate_transaction_search_form",
		"validate_transfer_money_form",
	}
	assert.Equal(t, want, r.Names())
}

func TestDefaultNeedsProfile(t *testing.T) {
	_, err := Default(Deps{})
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Restart()))
	assert.Error(t, r.Register(Restart()))
	assert.Error(t, r.Register(Func("", nil)))
}

func TestRegistryRun(t *testing.T) {
	r := newTestRegistry(t, newFakeProfile())

	t.Run("unknown action", func(t *testing.T) {
		_, err := r.Run(context.Background(), types.Request{NextAction: "action_nope", SenderID: "alice"})
		assert.ErrorIs(t, err, ErrUnknownAction)
	})

	t.Run("missing tracker", func(t *testing.T) {
		resp, err := r.Run(context.Background(), types.Request{NextAction: "action_show_transfer_charge", SenderID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, []types.Event{}, resp.Events)
		assert.Equal(t, []types.BotMessage{{Response: "utter_transfer_charge"}}, resp.Responses)
	})

	t.Run("action error", func(t *testing.T) {
		p := newFakeProfile()
		p.err = errors.New("disk on fire")
		r := newTestRegistry(t, p)
		_, err := r.Run(context.Background(), types.Request{NextAction: "action_show_balance", SenderID: "alice"})
		assert.ErrorContains(t, err, "action_show_balance")
		assert.ErrorContains(t, err, "disk on fire")
	})

	t.Run("validation error", func(t *testing.T) {
		p := newFakeProfile()
		p.err = errors.New("disk on fire")
		r := newTestRegistry(t, p)
		tr := formTurn("transfer_money_form", forms.Person, 0, slot(forms.Person, "evan"))
		_, err := r.Run(context.Background(), types.Request{NextAction: "validate_transfer_money_form", Tracker: tr})
		assert.ErrorContains(t, err, "disk on fire")
	})
}

func TestVendorForm(t *testing.T) {
	p := newFakeProfile()
	f, err := VendorForm(p)
	require.NoError(t, err)
	a := forms.NewValidationAction(f, nil)

	tr := formTurn("add_vendor_form", forms.Vendor, -1, slot(forms.Vendor, "Target"))
	events, msgs := run(t, a, tr)
	assert.Equal(t, []types.Event{types.SlotSet("vendor", nil)}, events)
	assert.Equal(t, []types.BotMessage{{Text: "Such vendor already exists: Target"}}, msgs)

	tr = formTurn("add_vendor_form", forms.Vendor, -1, slot(forms.Vendor, "  AMAZON "))
	events, msgs = run(t, a, tr)
	assert.Equal(t, []types.Event{types.SlotSet("vendor", nil)}, events)
	assert.Equal(t, []types.BotMessage{{Text: "Such vendor already exists: AMAZON"}}, msgs)

	tr = formTurn("add_vendor_form", forms.Vendor, -1, slot(forms.Vendor, " Walmart "))
	events, msgs = run(t, a, tr)
	assert.Equal(t, []types.Event{types.SlotSet("vendor", "Walmart")}, events)
	assert.Empty(t, msgs)
}

func TestAddAndShowVendors(t *testing.T) {
	p := newFakeProfile()
	tr := types.NewTracker("alice")
	tr.Slots[string(forms.Vendor)] = "Walmart"

	events, msgs := run(t, AddVendor(p), tr)
	assert.Equal(t, []types.Event{types.SlotSet("vendor", nil)}, events)
	assert.Equal(t, []types.BotMessage{{Text: "Walmart is added"}}, msgs)

	_, msgs = run(t, AddVendor(p), tr)
	assert.Equal(t, []types.BotMessage{{Text: "Such vendor already exists: Walmart"}}, msgs)

	_, msgs = run(t, ShowVendors(p), tr)
	assert.Equal(t, []types.BotMessage{{Text: "Here are available vendors: Target, Starbucks, Amazon, Walmart"}}, msgs)
}

func TestShowBalance(t *testing.T) {
	p := newFakeProfile()

	t.Run("account", func(t *testing.T) {
		events, msgs := run(t, ShowBalance(p), types.NewTracker("alice"))
		assert.Empty(t, events)
		assert.Equal(t, []types.BotMessage{{
			Response: "utter_account_balance",
			Kwargs:   map[string]any{"init_account_balance": "1000.00"},
		}}, msgs)
	})

	t.Run("named card", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.AccountType)] = "credit"
		tr.Slots[string(forms.CreditCard)] = "gringots"
		_, msgs := run(t, ShowBalance(p), tr)
		assert.Equal(t, []types.BotMessage{{
			Response: "utter_credit_card_balance",
			Kwargs:   map[string]any{"credit_card": "Gringots", "amount-of-money": "75.25"},
		}}, msgs)
	})

	t.Run("every card", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.AccountType)] = "credit"
		tr.Slots[string(forms.CreditCard)] = "visa"
		_, msgs := run(t, ShowBalance(p), tr)
		require.Len(t, msgs, 3)
		assert.Equal(t, "Iron Bank", msgs[0].Kwargs["credit_card"])
	})

	t.Run("during a form", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.ActiveLoop = types.Loop{Name: "transfer_money_form"}
		events, _ := run(t, ShowBalance(p), tr)
		assert.Equal(t, []types.Event{types.SlotSet("AA_CONTINUE_FORM", nil)}, events)
	})
}

func TestShowRecipientsAndCharges(t *testing.T) {
	tr := types.NewTracker("alice")
	tr.ActiveLoop = types.Loop{Name: "cc_payment_form"}

	events, msgs := run(t, ShowRecipients(newFakeProfile()), tr)
	assert.Equal(t, []types.Event{types.SlotSet("AA_CONTINUE_FORM", nil)}, events)
	assert.Equal(t, []types.BotMessage{{
		Response: "utter_recipients",
		Kwargs:   map[string]any{"formatted_recipients": "\n- Katy Parrow\n- Evan Oslo\n- William Baker"},
	}}, msgs)

	events, msgs = run(t, ShowTransferCharge(), types.NewTracker("alice"))
	assert.Empty(t, events)
	assert.Equal(t, []types.BotMessage{{Response: "utter_transfer_charge"}}, msgs)
}

func TestSessionStart(t *testing.T) {
	tr := types.NewTracker("alice")
	tr.Events = []types.Event{
		types.UserUttered("hi"),
		types.SlotSet("account_type", "credit"),
		types.ActionExecuted("utter_greet"),
	}

	events, msgs := run(t, SessionStart(newFakeProfile()), tr)
	want := []types.Event{
		types.SessionStarted(),
		types.SlotSet("account_type", "credit"),
		types.SlotSet("currency", "$"),
		types.ActionExecuted("action_listen"),
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, msgs)
}

func TestRestart(t *testing.T) {
	events, _ := run(t, Restart(), types.NewTracker("alice"))
	assert.Equal(t, []types.Event{types.Restarted(), types.FollowupAction("action_session_start")}, events)
}

func TestSwitchForms(t *testing.T) {
	tr := types.NewTracker("alice")
	tr.ActiveLoop = types.Loop{Name: "cc_payment_form"}
	tr.LatestMessage.Intent.Name = "transfer_money"

	events, msgs := run(t, SwitchFormsAsk(), tr)
	assert.Equal(t, []types.Event{types.SlotSet("next_form_name", "transfer_money_form")}, events)
	assert.Equal(t, []types.BotMessage{{
		Text:    "We haven't completed the credit card payment yet. Are you sure you want to switch to money transfer?",
		Buttons: types.YesNoButtons,
	}}, msgs)

	tr.Apply(events...)
	events, msgs = run(t, SwitchFormsAffirm(), tr)
	assert.Equal(t, []types.Event{
		types.SlotSet("previous_form_name", "cc_payment_form"),
		types.SlotSet("next_form_name", nil),
	}, events)
	assert.Equal(t, []types.BotMessage{{
		Text: "Great. Let's switch from the credit card payment to money transfer. Once completed, you will have the option to switch back.",
	}}, msgs)

	tr.Apply(events...)
	events, msgs = run(t, SwitchBackAsk(), tr)
	assert.Equal(t, []types.Event{types.SlotSet("previous_form_name", nil)}, events)
	assert.Equal(t, []types.BotMessage{{
		Text:    "Would you like to go back to the credit card payment now?",
		Buttons: types.YesNoButtons,
	}}, msgs)

	events, msgs = run(t, SwitchFormsDeny(), tr)
	assert.Equal(t, []types.Event{types.SlotSet("next_form_name", nil)}, events)
	assert.Equal(t, []types.BotMessage{{Text: "Ok, let's continue with the credit card payment."}}, msgs)
}

func TestSwitchFormsUnknownIntent(t *testing.T) {
	tr := types.NewTracker("alice")
	tr.ActiveLoop = types.Loop{Name: "cc_payment_form"}
	tr.LatestMessage.Intent.Name = "greet"

	events, msgs := run(t, SwitchFormsAsk(), tr)
	assert.Equal(t, []types.Event{types.SlotSet("next_form_name", nil)}, events)
	assert.Empty(t, msgs)
}

func TestHandoffOptions(t *testing.T) {
	_, msgs := run(t, HandoffOptions(newTestConfig()), types.NewTracker("alice"))
	assert.Equal(t, []types.BotMessage{{
		Text: "I can't transfer you to a human, but I can transfer you to one of these bots",
		Buttons: []types.Button{
			{Title: "Financial Demo", Payload: `/trigger_handoff{"handoff_to":"finbot"}`},
			{Title: "Offline", Payload: `/trigger_handoff{"handoff_to":"offline"}`},
			{Title: "Sara", Payload: `/trigger_handoff{"handoff_to":"sara"}`},
		},
	}}, msgs)

	_, msgs = run(t, HandoffOptions(config.DefaultConfig()), types.NewTracker("alice"))
	assert.Equal(t, []types.BotMessage{{Response: "utter_no_handoff"}}, msgs)
}

func TestHandoff(t *testing.T) {
	cfg := newTestConfig()
	tests := []struct {
		name    string
		to      string
		channel string
		want    types.BotMessage
	}{
		{"rest", "sara", "rest", types.BotMessage{Custom: map[string]any{"handoff_host": "http://sara.example:5005", "title": "Sara"}}},
		{"other channel", "sara", "socketio", types.BotMessage{Response: "utter_wouldve_handed_off", Kwargs: map[string]any{"handoffhost": "http://sara.example:5005"}}},
		{"no url", "offline", "rest", types.BotMessage{Response: "utter_no_handoff"}},
		{"unknown bot", "nobody", "rest", types.BotMessage{Response: "utter_no_handoff"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := types.NewTracker("alice")
			tr.Slots[string(forms.HandoffTo)] = tt.to
			tr.LatestInputChannel = tt.channel

			events, msgs := run(t, Handoff(cfg), tr)
			assert.Empty(t, events)
			assert.Equal(t, []types.BotMessage{{Response: "utter_handoff"}, tt.want}, msgs)
		})
	}
}

func TestRecurrentPaymentDates(t *testing.T) {
	now := func() time.Time { return testNow }
	start := ValidateRecurrentStartDate(now)
	end := ValidateRecurrentEndDate()

	t.Run("start unset", func(t *testing.T) {
		events, msgs := run(t, start, types.NewTracker("alice"))
		assert.Empty(t, events)
		assert.Empty(t, msgs)
	})

	t.Run("start in the future", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.RecurrentPaymentStartDate)] = "2024-07-01"
		events, msgs := run(t, start, tr)
		assert.Equal(t, []types.Event{types.SlotSet("recurrent_payment_start_date", "2024-07-01T00:00:00Z")}, events)
		assert.Empty(t, msgs)
	})

	t.Run("start from a time entity", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.RecurrentPaymentStartDate)] = "next month"
		tr.LatestMessage.Entities = []types.Entity{{
			Entity:         "time",
			AdditionalInfo: &types.Annotation{Type: "value", Value: "2024-07-01T00:00:00.000Z", Grain: "month"},
		}}
		events, _ := run(t, start, tr)
		assert.Equal(t, []types.Event{types.SlotSet("recurrent_payment_start_date", "2024-07-01T00:00:00Z")}, events)
	})

	for name, value := range map[string]string{"start in the past": "2024-01-01", "start unreadable": "whenever"} {
		t.Run(name, func(t *testing.T) {
			tr := types.NewTracker("alice")
			tr.Slots[string(forms.RecurrentPaymentStartDate)] = value
			events, msgs := run(t, start, tr)
			assert.Equal(t, []types.Event{types.SlotSet("recurrent_payment_start_date", nil)}, events)
			assert.Equal(t, []types.BotMessage{{Response: "utter_invalid_date"}}, msgs)
		})
	}

	t.Run("end after start", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.RecurrentPaymentStartDate)] = "2024-07-01T00:00:00Z"
		tr.Slots[string(forms.RecurrentPaymentEndDate)] = "2024-12-31"
		events, _ := run(t, end, tr)
		assert.Equal(t, []types.Event{types.SlotSet("recurrent_payment_end_date", "2024-12-31T00:00:00Z")}, events)
	})

	t.Run("end before start", func(t *testing.T) {
		tr := types.NewTracker("alice")
		tr.Slots[string(forms.RecurrentPaymentStartDate)] = "2024-07-01T00:00:00Z"
		tr.Slots[string(forms.RecurrentPaymentEndDate)] = "2024-06-30"
		events, msgs := run(t, end, tr)
		assert.Equal(t, []types.Event{types.SlotSet("recurrent_payment_end_date", nil)}, events)
		assert.Equal(t, []types.BotMessage{{Response: "utter_invalid_date"}}, msgs)
	})

	t.Run("execute", func(t *testing.T) {
		events, _ := run(t, ExecuteRecurrentPayment(), types.NewTracker("alice"))
		assert.Equal(t, []types.Event{types.SlotSet("setup_recurrent_payment_successful", true)}, events)
	})
}

// TestPaymentAgainstStore runs a whole payment conversation against the
// SQLite profile store.
func TestPaymentAgainstStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(ctx, store.DefaultDriver, filepath.Join(t.TempDir(), "bank.db"),
		store.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	r := newTestRegistry(t, s)

	resp, err := r.Run(ctx, types.Request{NextAction: "action_session_start", SenderID: "alice", Tracker: types.NewTracker("alice")})
	require.NoError(t, err)
	assert.Contains(t, resp.Events, types.SlotSet("currency", "$"))

	before, err := s.CreditCard(ctx, "alice", "iron bank")
	require.NoError(t, err)

	tr := formTurn("cc_payment_form", forms.CreditCard, 0, slot(forms.CreditCard, "Iron Bank"))
	resp, err = r.Run(ctx, types.Request{NextAction: "validate_cc_payment_form", Tracker: tr})
	require.NoError(t, err)
	v, _ := valueOf(resp.Events, forms.CreditCard)
	assert.Equal(t, "Iron Bank", v)

	tr.Apply(resp.Events...)
	tr.Slots[string(forms.AmountOfMoney)] = "10.00"
	tr.Slots[string(forms.ConfirmForm)] = "yes"
	resp, err = r.Run(ctx, types.Request{NextAction: "action_pay_cc", Tracker: tr})
	require.NoError(t, err)
	assert.Equal(t, []types.BotMessage{{Response: "utter_cc_pay_scheduled"}}, resp.Responses)

	after, err := s.CreditCard(ctx, "alice", "iron bank")
	require.NoError(t, err)
	assert.InDelta(t, before.CurrentBalance-10, after.CurrentBalance, 0.001)
}
