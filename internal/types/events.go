package types

import (
	"encoding/json"
	"fmt"
)

// EventKind is the wire tag of an event.
type EventKind string

const (
	KindSlot                    EventKind = "slot"
	KindUser                    EventKind = "user"
	KindBot                     EventKind = "bot"
	KindAction                  EventKind = "action"
	KindSessionStarted          EventKind = "session_started"
	KindRestarted               EventKind = "restart"
	KindFollowup                EventKind = "followup"
	KindLoopInterrupted         EventKind = "loop_interrupted"
	KindActionExecutionRejected EventKind = "action_execution_rejected"
	KindActiveLoop              EventKind = "active_loop"
)

// Event is one state mutation reported back to the engine, or a past event
// read from the tracker. Only the fields relevant to Kind are encoded.
type Event struct {
	Kind        EventKind
	Name        string
	Value       any
	Text        string
	Interrupted bool
}

// SlotSet sets (or, with a nil value, clears) a slot.
func SlotSet(name string, value any) Event {
	return Event{Kind: KindSlot, Name: name, Value: value}
}

// SessionStarted marks the beginning of a new session.
func SessionStarted() Event {
	return Event{Kind: KindSessionStarted}
}

// ActionExecuted records that an action ran.
func ActionExecuted(name string) Event {
	return Event{Kind: KindAction, Name: name}
}

// Restarted resets the conversation.
func Restarted() Event {
	return Event{Kind: KindRestarted}
}

// FollowupAction forces the engine to run name next.
func FollowupAction(name string) Event {
	return Event{Kind: KindFollowup, Name: name}
}

// LoopInterrupted stops the active form from asking for its slot this turn.
func LoopInterrupted(interrupted bool) Event {
	return Event{Kind: KindLoopInterrupted, Interrupted: interrupted}
}

// ActionExecutionRejected lets the engine predict another action before
// returning to the form.
func ActionExecutionRejected(action string) Event {
	return Event{Kind: KindActionExecutionRejected, Name: action}
}

// ActiveLoopSet activates the named form, or deactivates forms when name is
// empty.
func ActiveLoopSet(name string) Event {
	return Event{Kind: KindActiveLoop, Name: name}
}

// UserUttered records a user message. Trackers carry these; actions do not
// emit them.
func UserUttered(text string) Event {
	return Event{Kind: KindUser, Text: text}
}

// IsSlot reports whether e sets the named slot.
func (e Event) IsSlot(name string) bool {
	return e.Kind == KindSlot && e.Name == name
}

func (e Event) String() string {
	switch e.Kind {
	case KindSlot:
		return fmt.Sprintf("SlotSet(%s=%v)", e.Name, e.Value)
	case KindAction, KindFollowup, KindActionExecutionRejected, KindActiveLoop:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Name)
	case KindUser, KindBot:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	case KindLoopInterrupted:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Interrupted)
	default:
		return string(e.Kind)
	}
}

// MarshalJSON encodes the event in the engine's wire format.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"event":     string(e.Kind),
		"timestamp": nil,
	}
	switch e.Kind {
	case KindSlot:
		out["name"] = e.Name
		out["value"] = e.Value
	case KindAction, KindFollowup, KindActionExecutionRejected, KindActiveLoop:
		out["name"] = e.Name
	case KindUser, KindBot:
		out["text"] = e.Text
	case KindLoopInterrupted:
		out["is_interrupted"] = e.Interrupted
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an event from the engine's wire format. Unknown
// kinds are kept with their tag so they still delimit turns correctly.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Event         string `json:"event"`
		Name          string `json:"name"`
		Value         any    `json:"value"`
		Text          string `json:"text"`
		IsInterrupted bool   `json:"is_interrupted"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Event == "" {
		return fmt.Errorf("event without kind: %s", data)
	}
	*e = Event{
		Kind:        EventKind(raw.Event),
		Name:        raw.Name,
		Value:       raw.Value,
		Text:        raw.Text,
		Interrupted: raw.IsInterrupted,
	}
	return nil
}
