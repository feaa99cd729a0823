package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const trackerJSON = `{
  "sender_id": "alice",
  "slots": {"requested_slot": "credit_card", "repeated_validation_failures": 1, "PERSON": ["evan", "katy"]},
  "latest_message": {
    "text": "pay my iron bank card 50 dollars",
    "intent": {"name": "pay_cc", "confidence": 0.97},
    "entities": [
      {"entity": "credit_card", "value": "iron bank", "start": 7, "end": 16},
      {"entity": "amount-of-money", "value": 50, "additional_info": {"value": 50, "unit": "USD"}}
    ]
  },
  "events": [
    {"event": "slot", "name": "credit_card", "value": "gringots"},
    {"event": "user", "text": "pay my iron bank card 50 dollars"},
    {"event": "slot", "name": "credit_card", "value": "iron bank"},
    {"event": "slot", "name": "amount-of-money", "value": 50},
    {"event": "slot", "name": "credit_card", "value": "Iron Bank"}
  ],
  "active_loop": {"name": "cc_payment_form"},
  "latest_input_channel": "rest"
}`

func TestParseTracker(t *testing.T) {
	tr, err := ParseTracker([]byte(trackerJSON))
	if err != nil {
		t.Fatalf("ParseTracker failed: %v", err)
	}

	if tr.RequestedSlot() != "credit_card" {
		t.Errorf("expected requested slot credit_card, got %q", tr.RequestedSlot())
	}
	if tr.ActiveLoopName() != "cc_payment_form" {
		t.Errorf("expected active loop cc_payment_form, got %q", tr.ActiveLoopName())
	}
	if n, ok := tr.SlotFloat("repeated_validation_failures"); !ok || n != 1 {
		t.Errorf("expected counter 1, got %v (%v)", n, ok)
	}
	if got := tr.SlotStrings("PERSON"); len(got) != 2 || got[0] != "evan" {
		t.Errorf("unexpected list slot %v", got)
	}

	e, ok := tr.LatestEntity("amount-of-money")
	if !ok {
		t.Fatal("expected amount-of-money entity")
	}
	if e.Info().Unit != "USD" {
		t.Errorf("expected USD unit, got %q", e.Info().Unit)
	}
	if _, ok := tr.LatestEntity("time"); ok {
		t.Error("no time entity expected")
	}
}

func TestParseTrackerRejectsUntaggedEvents(t *testing.T) {
	if _, err := ParseTracker([]byte(`{"events": [{"name": "x"}]}`)); err == nil {
		t.Fatal("expected error for event without kind")
	}
}

func TestSlotsToValidate(t *testing.T) {
	tr, err := ParseTracker([]byte(trackerJSON))
	if err != nil {
		t.Fatal(err)
	}

	want := []SlotValue{
		{Name: "credit_card", Value: "Iron Bank"},
		{Name: "amount-of-money", Value: float64(50)},
	}
	if diff := cmp.Diff(want, tr.SlotsToValidate()); diff != "" {
		t.Errorf("SlotsToValidate mismatch (-want +got):\n%s", diff)
	}
}

func TestSlotsToValidateWithoutUserEvent(t *testing.T) {
	tr := NewTracker("bob")
	tr.Events = []Event{SlotSet("search_type", "spend"), ActionExecuted("action_listen")}

	got := tr.SlotsToValidate()
	if len(got) != 1 || got[0].Name != "search_type" {
		t.Fatalf("expected search_type only, got %v", got)
	}
}

func TestEventJSON(t *testing.T) {
	events := []Event{
		SlotSet("AA_CONTINUE_FORM", nil),
		SlotSet("repeated_validation_failures", 2.0),
		LoopInterrupted(true),
		ActionExecutionRejected("cc_payment_form"),
		FollowupAction("action_session_start"),
		Restarted(),
	}
	data, err := json.Marshal(events)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if v, present := raw[0]["value"]; !present || v != nil {
		t.Errorf("cleared slot must encode an explicit null, got %v", raw[0])
	}
	if raw[2]["is_interrupted"] != true {
		t.Errorf("expected is_interrupted=true, got %v", raw[2])
	}
	if raw[3]["name"] != "cc_payment_form" {
		t.Errorf("expected rejected action name, got %v", raw[3])
	}

	var decoded []Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if diff := cmp.Diff(events, decoded); diff != "" {
		t.Errorf("events changed in transit (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	tr := NewTracker("carol")
	tr.Apply(
		SlotSet("credit_card", "Iron Bank"),
		ActiveLoopSet("cc_payment_form"),
		ActionExecuted("action_listen"),
	)
	if tr.SlotString("credit_card") != "Iron Bank" {
		t.Errorf("slot not applied: %v", tr.Slots)
	}
	if tr.ActiveLoopName() != "cc_payment_form" {
		t.Errorf("loop not applied: %v", tr.ActiveLoop)
	}
	if tr.LatestActionName != "action_listen" {
		t.Errorf("latest action not tracked: %q", tr.LatestActionName)
	}

	tr.Apply(Restarted())
	if len(tr.Slots) != 0 || tr.ActiveLoopName() != "" {
		t.Errorf("restart should clear state, got slots=%v loop=%v", tr.Slots, tr.ActiveLoop)
	}
	if len(tr.Events) != 4 {
		t.Errorf("expected 4 recorded events, got %d", len(tr.Events))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := NewTracker("dave")
	tr.Slots["vendor_name"] = "target"
	c := tr.Clone()
	c.Apply(SlotSet("vendor_name", "amazon"))

	if tr.SlotString("vendor_name") != "target" {
		t.Errorf("clone mutated original: %v", tr.Slots)
	}
	if len(tr.Events) != 0 {
		t.Errorf("clone appended to original events")
	}
}

func TestSlotConversions(t *testing.T) {
	tr := NewTracker("erin")
	tr.Slots["amount-of-money"] = "12.50"
	tr.Slots["flag"] = true
	tr.Slots["list"] = []any{"a", nil, "b"}

	if f, ok := tr.SlotFloat("amount-of-money"); !ok || f != 12.5 {
		t.Errorf("expected 12.5, got %v", f)
	}
	if tr.SlotString("flag") != "true" {
		t.Errorf("expected formatted bool, got %q", tr.SlotString("flag"))
	}
	if tr.SlotString("list") != "" {
		t.Errorf("list slots have no string form")
	}
	if got := tr.SlotStrings("list"); len(got) != 2 {
		t.Errorf("expected nils dropped, got %v", got)
	}
	if _, ok := tr.SlotFloat("missing"); ok {
		t.Error("missing slot is not a number")
	}
}

func TestDispatcherPreservesOrder(t *testing.T) {
	d := NewDispatcher()
	d.Utter("utter_no_creditcard", nil)
	d.UtterText("Pick one", YesNoButtons...)
	d.UtterJSON(map[string]any{"handoff_host": "http://x"})

	msgs := d.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Response != "utter_no_creditcard" || msgs[1].Buttons[1].Payload != "/deny" || msgs[2].Custom == nil {
		t.Errorf("messages out of order: %+v", msgs)
	}
}
