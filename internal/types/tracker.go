// Package types provides the conversation-state and wire shapes shared by
// every bankbot package: the tracker snapshot handed over by the dialogue
// engine, the events an action returns, and the dispatcher that collects
// outbound messages.
package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RequestedSlot is the engine-owned pointer to the slot a form is asking for.
const RequestedSlot = "requested_slot"

// Intent is the classified intent of a user message.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Message is the latest user message together with its annotations.
type Message struct {
	Text     string   `json:"text,omitempty"`
	Intent   Intent   `json:"intent"`
	Entities []Entity `json:"entities,omitempty"`
}

// Loop names the form the engine is currently running, if any.
type Loop struct {
	Name string `json:"name,omitempty"`
}

// Tracker is a read-mostly snapshot of one conversation. Actions never
// mutate it directly; they return events that the engine applies.
type Tracker struct {
	SenderID           string         `json:"sender_id"`
	Slots              map[string]any `json:"slots"`
	LatestMessage      Message        `json:"latest_message"`
	Events             []Event        `json:"events"`
	ActiveLoop         Loop           `json:"active_loop"`
	LatestInputChannel string         `json:"latest_input_channel,omitempty"`
	LatestActionName   string         `json:"latest_action_name,omitempty"`
}

// NewTracker returns an empty tracker for senderID.
func NewTracker(senderID string) *Tracker {
	return &Tracker{SenderID: senderID, Slots: make(map[string]any)}
}

// Slot returns the current value of name, or nil when unset.
func (t *Tracker) Slot(name string) any {
	if t == nil || t.Slots == nil {
		return nil
	}
	return t.Slots[name]
}

// SlotString returns the slot as a string. Non-string scalars are formatted;
// nil and empty collections return "".
func (t *Tracker) SlotString(name string) string {
	return asString(t.Slot(name))
}

// SlotFloat returns the slot as a float64. Strings are parsed, so slots
// stored as formatted amounts ("12.50") work too.
func (t *Tracker) SlotFloat(name string) (float64, bool) {
	return AsFloat(t.Slot(name))
}

// SlotStrings returns a list-typed slot as strings.
func (t *Tracker) SlotStrings(name string) []string {
	switch v := t.Slot(name).(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// RequestedSlot returns the slot the active form is asking for.
func (t *Tracker) RequestedSlot() string {
	return t.SlotString(RequestedSlot)
}

// ActiveLoopName returns the name of the active form, or "".
func (t *Tracker) ActiveLoopName() string {
	if t == nil {
		return ""
	}
	return t.ActiveLoop.Name
}

// SlotsToValidate returns the slot values set since the last user utterance,
// in the order they were extracted. A slot extracted twice keeps its
// position but takes the later value.
func (t *Tracker) SlotsToValidate() []SlotValue {
	if t == nil {
		return nil
	}
	start := 0
	for i := len(t.Events) - 1; i >= 0; i-- {
		if t.Events[i].Kind == KindUser {
			start = i + 1
			break
		}
	}

	var out []SlotValue
	index := make(map[string]int)
	for _, ev := range t.Events[start:] {
		if ev.Kind != KindSlot {
			continue
		}
		if pos, ok := index[ev.Name]; ok {
			out[pos].Value = ev.Value
			continue
		}
		index[ev.Name] = len(out)
		out = append(out, SlotValue{Name: ev.Name, Value: ev.Value})
	}
	return out
}

// SlotValue is a name/value pair extracted during the current turn.
type SlotValue struct {
	Name  string
	Value any
}

// LatestEntity returns the first entity of the given kind in the latest
// message.
func (t *Tracker) LatestEntity(kind string) (Entity, bool) {
	if t == nil {
		return Entity{}, false
	}
	for _, e := range t.LatestMessage.Entities {
		if e.Entity == kind {
			return e, true
		}
	}
	return Entity{}, false
}

// LatestEntityValues returns the values of every entity of the given kind in
// the latest message.
func (t *Tracker) LatestEntityValues(kind string) []any {
	if t == nil {
		return nil
	}
	var values []any
	for _, e := range t.LatestMessage.Entities {
		if e.Entity == kind {
			values = append(values, e.Value)
		}
	}
	return values
}

// Clone returns a deep enough copy for Apply to work on without touching t.
func (t *Tracker) Clone() *Tracker {
	if t == nil {
		return nil
	}
	c := *t
	c.Slots = make(map[string]any, len(t.Slots))
	for k, v := range t.Slots {
		c.Slots[k] = v
	}
	c.Events = append([]Event(nil), t.Events...)
	c.LatestMessage.Entities = append([]Entity(nil), t.LatestMessage.Entities...)
	return &c
}

// Apply folds events into the tracker the way the engine would: slot events
// overwrite slots, restarts clear them, active_loop events switch the form.
func (t *Tracker) Apply(events ...Event) {
	if t.Slots == nil {
		t.Slots = make(map[string]any)
	}
	for _, ev := range events {
		switch ev.Kind {
		case KindSlot:
			t.Slots[ev.Name] = ev.Value
		case KindRestarted:
			t.Slots = make(map[string]any)
			t.ActiveLoop = Loop{}
		case KindActiveLoop:
			t.ActiveLoop = Loop{Name: ev.Name}
		case KindAction:
			t.LatestActionName = ev.Name
		}
		t.Events = append(t.Events, ev)
	}
}

// ParseTracker decodes a tracker snapshot from JSON.
func ParseTracker(data []byte) (*Tracker, error) {
	var t Tracker
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tracker: %w", err)
	}
	if t.Slots == nil {
		t.Slots = make(map[string]any)
	}
	return &t, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case []any, []string, map[string]any:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// AsFloat converts a JSON-decoded scalar to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
