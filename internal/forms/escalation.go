package forms

import (
	"context"
	"fmt"

	"bankbot/internal/config"
	"bankbot/internal/logging"
	"bankbot/internal/types"
)

// Escalation counts consecutive rejections of the slot a form is asking for.
// The count lives in the RepeatedValidationFailures slot so it survives
// between turns without any state in the process.
type Escalation struct {
	Threshold int
}

// NewEscalation returns a tracker for the configured threshold. Values below
// one fall back to the default.
func NewEscalation(cfg config.FormsConfig) *Escalation {
	n := cfg.MaxValidationFailures
	if n < 1 {
		n = config.DefaultMaxValidationFailures
	}
	return &Escalation{Threshold: n}
}

// Track inspects the outcome of one turn for the requested slot and returns
// the events that update the failure counter. updates are what the turn's
// validators produced; form supplies the explainer and the name to reject
// when the form should step aside.
func (e *Escalation) Track(ctx context.Context, form *Form, tr *types.Tracker, updates []Update) ([]types.Event, []types.BotMessage, error) {
	requested := Slot(tr.RequestedSlot())
	if requested == "" {
		return nil, nil, nil
	}

	if len(updates) == 0 || touches(updates, RequestedSlot) {
		// The form moved on, or the user said something the form cannot
		// use. Let the engine predict something else this turn.
		logging.FormsDebug("%s: not counting %s this turn (updates=%d)", form.Name(), requested, len(updates))
		return []types.Event{
			types.LoopInterrupted(true),
			types.ActionExecutionRejected(form.Name()),
			RepeatedValidationFailures.Set(0),
		}, nil, nil
	}

	count := 0
	if n, ok := tr.SlotFloat(string(RepeatedValidationFailures)); ok && n > 0 {
		count = int(n)
	}

	if accepted(updates, requested) {
		count = 0
	} else {
		count++
		logging.FormsDebug("%s: %s rejected, %d in a row", form.Name(), requested, count)
	}

	var (
		events   []types.Event
		messages []types.BotMessage
	)
	if count >= e.Threshold {
		logging.Forms("%s: %s rejected %d times, asking whether to continue", form.Name(), requested, count)
		explained, err := e.explain(ctx, form, requested, tr)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, explained.Events()...)
		messages = explained.Messages
		count = 0
		events = append(events, ContinueForm.Set(nil))
	}
	events = append(events, RepeatedValidationFailures.Set(count))
	return events, messages, nil
}

func (e *Escalation) explain(ctx context.Context, form *Form, slot Slot, tr *types.Tracker) (Result, error) {
	explainer, ok := form.Explainer(slot)
	if !ok {
		logging.FormsDebug("%s: no explanation for %s", form.Name(), slot)
		return Result{}, nil
	}
	r, err := explainer(ctx, tr.Slot(string(slot)), tr)
	if err != nil {
		return Result{}, fmt.Errorf("failed to explain %s: %w", slot, err)
	}
	return r, nil
}

func touches(updates []Update, slot Slot) bool {
	for _, u := range updates {
		if u.Slot == slot {
			return true
		}
	}
	return false
}

// accepted reports whether any update fills slot. A validator may reject and
// later re-accept within a turn; one filled value is enough.
func accepted(updates []Update, slot Slot) bool {
	for _, u := range updates {
		if u.Slot == slot && filled(u.Value) {
			return true
		}
	}
	return false
}
