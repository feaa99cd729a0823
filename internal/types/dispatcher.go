package types

// Button is a quick-reply choice attached to a text message.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// BotMessage is one outbound message directive: either a response template
// with keyword substitutions, or literal text with optional buttons, or a
// custom JSON payload.
type BotMessage struct {
	Response string         `json:"response,omitempty"`
	Text     string         `json:"text,omitempty"`
	Buttons  []Button       `json:"buttons,omitempty"`
	Custom   map[string]any `json:"custom,omitempty"`
	Kwargs   map[string]any `json:"kwargs,omitempty"`
}

// YesNoButtons is the affirm/deny pair offered by every confirmation prompt.
var YesNoButtons = []Button{
	{Title: "Yes", Payload: "/affirm"},
	{Title: "No", Payload: "/deny"},
}

// Dispatcher collects outbound messages in the order they are issued.
type Dispatcher struct {
	messages []BotMessage
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Utter queues a response template with keyword substitutions.
func (d *Dispatcher) Utter(response string, kwargs map[string]any) {
	d.messages = append(d.messages, BotMessage{Response: response, Kwargs: kwargs})
}

// UtterText queues literal text with optional buttons.
func (d *Dispatcher) UtterText(text string, buttons ...Button) {
	d.messages = append(d.messages, BotMessage{Text: text, Buttons: buttons})
}

// UtterJSON queues a custom payload for channels that understand it.
func (d *Dispatcher) UtterJSON(payload map[string]any) {
	d.messages = append(d.messages, BotMessage{Custom: payload})
}

// Send queues already-built messages.
func (d *Dispatcher) Send(msgs ...BotMessage) {
	d.messages = append(d.messages, msgs...)
}

// Messages returns the collected messages.
func (d *Dispatcher) Messages() []BotMessage {
	return d.messages
}

// Request is one action invocation from the engine.
type Request struct {
	NextAction string   `json:"next_action"`
	SenderID   string   `json:"sender_id"`
	Tracker    *Tracker `json:"tracker"`
}

// Response is what an action invocation returns to the engine.
type Response struct {
	Events    []Event      `json:"events"`
	Responses []BotMessage `json:"responses"`
}
